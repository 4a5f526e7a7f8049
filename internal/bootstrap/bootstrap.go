// Package bootstrap wires clients, adapters and services shared by the
// binaries under cmd/.
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/lawyerhours/backend/internal/adapters/cache"
	"github.com/lawyerhours/backend/internal/adapters/database"
	"github.com/lawyerhours/backend/internal/adapters/events"
	"github.com/lawyerhours/backend/internal/adapters/providers/places"
	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/catalog"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/postgres"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/redis"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
)

// Stack is the assembled application.
type Stack struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Metrics *observability.Metrics

	Postgres *postgres.Client
	// Redis, Cache and Events are nil when Redis is unreachable.
	Redis  *redis.Client
	Cache  providers.CacheProvider
	Events providers.EventBus

	Businesses repositories.BusinessRepository
	Cities     repositories.CityRepository

	Refresh   *services.RefreshService
	Directory *services.DirectoryService

	shutdownTracing func(context.Context) error
}

// Build connects to storage and assembles every service. Redis is optional:
// without it listings are uncached and refresh events are not broadcast.
func Build(ctx context.Context, cfg *config.Config) (*Stack, error) {
	logger := observability.LoggerFromContext(ctx)
	stack := &Stack{Config: cfg}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			stack.shutdownTracing = shutdown
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, err
	}
	stack.Metrics = metrics

	cat, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	stack.Catalog = cat

	stack.Postgres, err = postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, stack.Postgres); err != nil {
		stack.Close(ctx)
		return nil, err
	}

	if client, err := redis.NewClient(ctx, &cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, running without cache and event bus")
	} else {
		stack.Redis = client
		stack.Cache = cache.NewRedisAdapter(client)
		stack.Events = events.NewRedisEventBus(client)
	}

	baseBusinesses := database.NewBusinessAdapter(stack.Postgres, metrics)
	stack.Businesses = baseBusinesses
	if stack.Cache != nil {
		stack.Businesses = database.NewCachedBusinessAdapter(baseBusinesses, stack.Cache, cfg.Refresh.ListingCacheTTL, metrics)
	}
	stack.Cities = database.NewCityAdapter(stack.Postgres)

	provider := places.NewGooglePlacesProvider(cfg.Places, &http.Client{Timeout: cfg.Places.Timeout})
	classifier := services.NewPracticeAreaClassifier(cat.PracticeAreas())
	parser := services.NewPlaceParser(classifier)

	stack.Refresh = services.NewRefreshService(
		stack.Businesses,
		stack.Cities,
		provider,
		cat,
		parser,
		cfg.Places,
		cfg.Refresh,
	)
	stack.Refresh.SetMetrics(metrics)
	if stack.Cache != nil {
		stack.Refresh.SetCache(stack.Cache)
		stack.Refresh.SetEventBus(stack.Events)
	}

	stack.Directory = services.NewDirectoryService(
		stack.Businesses,
		stack.Cities,
		cat,
		services.NewAvailabilityService(time.Now),
		services.NewStatisticsService(cat),
	)

	return stack, nil
}

// Close releases every connection and flushes traces.
func (s *Stack) Close(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)

	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing event bus")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing Redis client")
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing PostgreSQL client")
		}
	}
	if s.shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("error shutting down OpenTelemetry")
		}
	}
}
