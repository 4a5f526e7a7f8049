package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
)

// CachedBusinessAdapter wraps a BusinessRepository with a listing cache.
// Writes pass straight through; the refresh pipeline drops a city's cached
// listings once the whole city has been upserted.
type CachedBusinessAdapter struct {
	repositories.BusinessRepository
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCachedBusinessAdapter creates a new cached business adapter
func NewCachedBusinessAdapter(adapter repositories.BusinessRepository, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *CachedBusinessAdapter {
	ttlSeconds := int(ttl.Seconds())
	if ttlSeconds <= 0 {
		ttlSeconds = 600
	}
	return &CachedBusinessAdapter{
		BusinessRepository: adapter,
		cache:              cache,
		ttlSeconds:         ttlSeconds,
		metrics:            metrics,
	}
}

// ListByCity serves a city listing from cache when possible
func (a *CachedBusinessAdapter) ListByCity(ctx context.Context, cityID int64, filter repositories.BusinessFilter) ([]*entities.Business, error) {
	logger := observability.LoggerFromContext(ctx)
	cacheKey := providers.ListingCacheKey(cityID, filter.PracticeArea, filter.Limit, filter.Offset)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var businesses []*entities.Business
		if err := json.Unmarshal(cached, &businesses); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "listing")
			return businesses, nil
		}
		logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to unmarshal cached listing")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "listing")

	businesses, err := a.BusinessRepository.ListByCity(ctx, cityID, filter)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(businesses); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, a.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache listing")
		}
	}
	return businesses, nil
}
