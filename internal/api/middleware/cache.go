package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for a route prefix
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware caches successful GET responses whose content does not
// depend on the current instant. The refresh pipeline clears every entry
// once a city has been upserted.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a cache middleware for the state summary and
// detailed statistics routes.
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return NewCacheMiddlewareWithConfig(cache, map[string]CacheConfig{
		"/api/states/": {TTLSeconds: 900, Enabled: true},
	})
}

// NewCacheMiddlewareWithConfig creates a cache middleware with custom route prefixes.
func NewCacheMiddlewareWithConfig(cache providers.CacheProvider, configs map[string]CacheConfig) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		routeConfigs: configs,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.routeConfig(r)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.LoggerFromContext(r.Context())
		cacheKey := m.cacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

// routeConfig matches on path prefix. Detailed city statistics are cacheable;
// listings carry live open-now state and are not. Requests pinned to an
// explicit instant bypass the cache.
func (m *CacheMiddleware) routeConfig(r *http.Request) CacheConfig {
	if r.URL.Query().Has("at") {
		return CacheConfig{}
	}
	path := r.URL.Path
	if strings.HasPrefix(path, "/api/cities/") && strings.HasSuffix(path, "/stats") && r.URL.Query().Get("detailed") == "true" {
		return CacheConfig{TTLSeconds: 900, Enabled: true}
	}
	for prefix, config := range m.routeConfigs {
		if strings.HasPrefix(path, prefix) {
			return config
		}
	}
	return CacheConfig{}
}

func (m *CacheMiddleware) cacheKey(r *http.Request) string {
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return providers.ResponseCachePrefix + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
