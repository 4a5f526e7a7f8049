package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/api/middleware"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	refreshHandler   *handlers.RefreshHandler
	directoryHandler *handlers.DirectoryHandler
	sseHandler       *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
	healthChecks    map[string]HealthCheck
}

// NewRouter creates a new router. sseHandler and cacheMiddleware are
// optional and only wired when Redis is available.
func NewRouter(
	refreshHandler *handlers.RefreshHandler,
	directoryHandler *handlers.DirectoryHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		refreshHandler:   refreshHandler,
		directoryHandler: directoryHandler,
		sseHandler:       sseHandler,
		cacheMiddleware:  cacheMiddleware,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
		healthChecks:     make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probe reported by /health.
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.healthChecks[name] = check
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.health)

	// Refresh endpoints. Literal segments win over {citySlug}.
	r.mux.HandleFunc("GET /api/refresh/status", r.refreshHandler.Status)
	r.mux.HandleFunc("GET /api/refresh/test-key", r.refreshHandler.TestKey)
	r.mux.HandleFunc("GET /api/refresh/bulk/stream", r.refreshHandler.StreamBulk)
	r.mux.HandleFunc("POST /api/refresh/bulk", r.refreshHandler.RefreshBulk)
	r.mux.HandleFunc("POST /api/refresh/{citySlug}", r.refreshHandler.RefreshCity)
	r.mux.HandleFunc("GET /api/refresh/{citySlug}", r.refreshHandler.CityStatus)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/refresh/events", r.sseHandler.StreamRefreshEvents)
	}

	// Directory endpoints
	r.mux.HandleFunc("GET /api/cities/{citySlug}/businesses", r.directoryHandler.ListBusinesses)
	r.mux.HandleFunc("GET /api/cities/{citySlug}/stats", r.directoryHandler.CityStats)
	r.mux.HandleFunc("GET /api/states/{stateSlug}/summary", r.directoryHandler.StateSummary)

	// Observability sits directly on the mux so the matched pattern is visible to it.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache hits
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(r.healthChecks))
	for name, check := range r.healthChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	handlers.RespondWithJSON(w, status, map[string]interface{}{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
