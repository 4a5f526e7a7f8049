package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	refreshLockTTLSeconds = 300
	refreshLockPrefix     = "refresh:lock:"
)

// CityCatalog is the static list of directory cities.
type CityCatalog interface {
	Cities() []entities.City
	CityBySlug(slug string) (entities.City, bool)
}

// RefreshRequest asks for one city refresh.
type RefreshRequest struct {
	CitySlug string
	Force    bool
	// Strategy overrides population based selection when set.
	Strategy entities.FetchStrategy
}

// BulkRequest selects the cities of a bulk refresh. CitySlugs wins over
// Offset/Limit; an empty selection means every catalog city.
type BulkRequest struct {
	CitySlugs []string
	Force     bool
	Offset    int
	Limit     int
	Strategy  entities.FetchStrategy
}

// CityRefreshResult reports one city refresh.
type CityRefreshResult struct {
	City          string                 `json:"city"`
	CitySlug      string                 `json:"city_slug"`
	Phase         entities.RefreshPhase  `json:"phase"`
	Strategy      entities.FetchStrategy `json:"strategy,omitempty"`
	APICalls      int                    `json:"api_calls"`
	TotalFromAPI  int                    `json:"total_from_api"`
	Created       int                    `json:"created"`
	Updated       int                    `json:"updated"`
	Skipped       int                    `json:"skipped"`
	Errors        []string               `json:"errors,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	ExistingCount int                    `json:"existing_count,omitempty"`
	LastRefresh   *time.Time             `json:"last_refresh,omitempty"`
	Error         string                 `json:"error,omitempty"`
	DurationMs    int64                  `json:"duration_ms"`
}

// BulkResult is the synchronous outcome of a bulk refresh.
type BulkResult struct {
	RunID   string               `json:"run_id"`
	Results []CityRefreshResult  `json:"results"`
	Summary entities.BulkSummary `json:"summary"`
}

// KeyCheck reports whether the provider credential works.
type KeyCheck struct {
	Configured bool   `json:"configured"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	KeyPrefix  string `json:"key_prefix,omitempty"`
}

// RefreshService pulls businesses from the place provider into storage.
// Work is sequential: one provider call and one upsert at a time, one city
// at a time.
type RefreshService struct {
	businesses repositories.BusinessRepository
	cities     repositories.CityRepository
	provider   providers.PlaceProvider
	catalog    CityCatalog
	parser     *PlaceParser
	places     config.PlacesConfig
	refresh    config.RefreshConfig

	cache   providers.CacheProvider
	events  providers.EventBus
	metrics *observability.Metrics
	clock   Clock
}

// NewRefreshService creates a refresh service.
func NewRefreshService(
	businesses repositories.BusinessRepository,
	cities repositories.CityRepository,
	provider providers.PlaceProvider,
	catalog CityCatalog,
	parser *PlaceParser,
	places config.PlacesConfig,
	refresh config.RefreshConfig,
) *RefreshService {
	return &RefreshService{
		businesses: businesses,
		cities:     cities,
		provider:   provider,
		catalog:    catalog,
		parser:     parser,
		places:     places,
		refresh:    refresh,
		clock:      time.Now,
	}
}

// SetCache enables the per-city refresh lock and listing cache invalidation.
func (s *RefreshService) SetCache(cache providers.CacheProvider) {
	s.cache = cache
}

// SetEventBus mirrors streamed bulk events onto the bus.
func (s *RefreshService) SetEventBus(bus providers.EventBus) {
	s.events = bus
}

// SetMetrics enables refresh metrics.
func (s *RefreshService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// SetClock overrides the wall clock used for staleness and timestamps.
func (s *RefreshService) SetClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

func (s *RefreshService) checkCredentials() error {
	if err := s.places.Validate(); err != nil {
		return apperrors.NewConfigurationError("place provider credentials are not usable", err)
	}
	return nil
}

// RefreshCity refreshes one catalog city. The error is reserved for requests
// that cannot start: bad credentials, unknown strategy or unknown city.
func (s *RefreshService) RefreshCity(ctx context.Context, req RefreshRequest) (*CityRefreshResult, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}
	if req.Strategy != "" && !req.Strategy.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown strategy %q", req.Strategy))
	}
	city, ok := s.catalog.CityBySlug(req.CitySlug)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("city not found: %s", req.CitySlug))
	}
	// Failures past this point are reported through the result's error phase.
	result, _ := s.refreshCity(ctx, city, req.Force, req.Strategy)
	return result, nil
}

func (s *RefreshService) refreshCity(ctx context.Context, catalogCity entities.City, force bool, strategy entities.FetchStrategy) (*CityRefreshResult, error) {
	ctx, span := observability.StartSpan(ctx, "refresh.city")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("city.slug", catalogCity.Slug))

	logger := observability.LoggerFromContext(ctx).With().Str("city", catalogCity.Slug).Logger()
	started := s.clock()

	result := &CityRefreshResult{
		City:     catalogCity.Label(),
		CitySlug: catalogCity.Slug,
		Phase:    entities.PhaseNotStarted,
	}
	setPhase := func(phase entities.RefreshPhase) {
		result.Phase = phase
		logger.Debug().Str("phase", string(phase)).Msg("refresh phase")
	}
	finish := func(err error) (*CityRefreshResult, error) {
		elapsed := s.clock().Sub(started)
		result.DurationMs = elapsed.Milliseconds()
		if err != nil {
			setPhase(entities.PhaseError)
			result.Error = err.Error()
			observability.RecordError(span, err)
			logger.Error().Err(err).Int64("duration_ms", result.DurationMs).Msg("city refresh failed")
		}
		observability.RecordRefreshMetric(ctx, s.metrics, catalogCity.Slug, string(result.Phase), string(result.Strategy), result.APICalls, elapsed)
		return result, err
	}

	city, err := s.ensureCity(ctx, catalogCity)
	if err != nil {
		return finish(err)
	}

	setPhase(entities.PhaseCheckingStaleness)
	if !force {
		skip, err := s.checkFreshness(ctx, city, result)
		if err != nil {
			return finish(err)
		}
		if skip {
			setPhase(entities.PhaseSkipped)
			logger.Info().Str("reason", result.Reason).Int("existing", result.ExistingCount).Msg("city refresh skipped")
			return finish(nil)
		}
	}

	if s.cache != nil {
		lockKey := refreshLockPrefix + city.Slug
		acquired, err := s.cache.SetIfAbsent(ctx, lockKey, []byte(started.UTC().Format(time.RFC3339)), refreshLockTTLSeconds)
		if err != nil {
			logger.Warn().Err(err).Msg("refresh lock unavailable, continuing without it")
		} else if !acquired {
			setPhase(entities.PhaseSkipped)
			result.Reason = "refresh already in progress"
			return finish(nil)
		} else {
			defer func() {
				if err := s.cache.Delete(context.WithoutCancel(ctx), lockKey); err != nil {
					logger.Warn().Err(err).Msg("failed to release refresh lock")
				}
			}()
		}
	}

	setPhase(entities.PhaseFetching)
	if strategy == "" {
		strategy = SelectStrategy(city.Population)
	}
	result.Strategy = strategy

	places, err := s.fetch(ctx, city, strategy, result)
	if err != nil {
		return finish(err)
	}
	result.TotalFromAPI = len(places)

	setPhase(entities.PhaseParsing)
	refreshedAt := s.clock()
	parsed := make([]*entities.Business, 0, len(places))
	for _, place := range places {
		business, err := s.parser.Parse(place, city.ID, refreshedAt, nil)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", placeLabel(place), err))
			observability.RecordUpsertMetric(ctx, s.metrics, "skipped")
			continue
		}
		parsed = append(parsed, business)
	}

	setPhase(entities.PhaseUpserting)
	for _, business := range parsed {
		created, err := s.upsert(ctx, business)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", business.DisplayName, err))
			logger.Warn().Err(err).Str("source_id", business.SourceID).Msg("failed to upsert business")
			observability.RecordUpsertMetric(ctx, s.metrics, "skipped")
			continue
		}
		if created {
			result.Created++
			observability.RecordUpsertMetric(ctx, s.metrics, "created")
		} else {
			result.Updated++
			observability.RecordUpsertMetric(ctx, s.metrics, "updated")
		}
	}

	s.invalidateListings(ctx, city)

	setPhase(entities.PhaseComplete)
	logger.Info().
		Str("strategy", string(strategy)).
		Int("api_calls", result.APICalls).
		Int("total_from_api", result.TotalFromAPI).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("city refresh complete")
	return finish(nil)
}

// ensureCity loads the stored city, creating it from the catalog on first use.
func (s *RefreshService) ensureCity(ctx context.Context, catalogCity entities.City) (*entities.City, error) {
	city, err := s.cities.GetBySlug(ctx, catalogCity.Slug)
	if err == nil {
		return city, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}
	created := catalogCity
	created.CreatedAt = s.clock()
	if err := s.cities.Create(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *RefreshService) checkFreshness(ctx context.Context, city *entities.City, result *CityRefreshResult) (bool, error) {
	latest, err := s.businesses.LatestRefresh(ctx, city.ID)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	result.LastRefresh = latest
	age := s.clock().Sub(*latest)
	if age >= s.refresh.FreshnessWindow {
		return false, nil
	}
	count, err := s.businesses.CountByCity(ctx, city.ID)
	if err != nil {
		return false, err
	}
	result.ExistingCount = count
	result.Reason = fmt.Sprintf("Recently fetched %.1fh ago", age.Hours())
	return true, nil
}

func (s *RefreshService) fetch(ctx context.Context, city *entities.City, strategy entities.FetchStrategy, result *CityRefreshResult) ([]providers.Place, error) {
	var all []providers.Place
	for _, query := range PlanQueries(strategy, city.Location, s.places.MaxResults) {
		result.APICalls++
		places, err := s.provider.SearchNearby(ctx, query)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, err
			}
			return nil, apperrors.NewExternalError("place provider search failed", err)
		}
		all = append(all, places...)
	}
	return DedupePlaces(all), nil
}

// upsert reports whether the business was created.
func (s *RefreshService) upsert(ctx context.Context, business *entities.Business) (bool, error) {
	existing, err := s.businesses.GetBySourceID(ctx, business.SourceID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return false, err
		}
		business.CreatedAt = business.LastAPIRefresh
		business.UpdatedAt = business.LastAPIRefresh
		return true, s.businesses.Create(ctx, business)
	}
	business.ID = existing.ID
	business.CreatedAt = existing.CreatedAt
	business.UpdatedAt = business.LastAPIRefresh
	return false, s.businesses.Update(ctx, business)
}

func (s *RefreshService) invalidateListings(ctx context.Context, city *entities.City) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{providers.ListingCachePattern(city.ID), providers.ResponseCachePattern} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("city", city.Slug).Str("pattern", pattern).Msg("failed to invalidate cache")
		}
	}
}

func placeLabel(place providers.Place) string {
	if place.DisplayName != "" {
		return place.DisplayName
	}
	if place.ID != "" {
		return place.ID
	}
	return unknownOfficeName
}

// selectCities resolves a bulk request against the catalog. Explicit slugs
// keep request order; unknown ones come back with found unset.
func (s *RefreshService) selectCities(req BulkRequest) []bulkTarget {
	var selected []bulkTarget
	if len(req.CitySlugs) > 0 {
		for _, slug := range req.CitySlugs {
			city, ok := s.catalog.CityBySlug(slug)
			selected = append(selected, bulkTarget{slug: slug, city: city, found: ok})
		}
		return selected
	}

	all := s.catalog.Cities()
	start := req.Offset
	if start < 0 {
		start = 0
	}
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if req.Limit > 0 && start+req.Limit < end {
		end = start + req.Limit
	}
	for _, city := range all[start:end] {
		selected = append(selected, bulkTarget{slug: city.Slug, city: city, found: true})
	}
	return selected
}

type bulkTarget struct {
	slug  string
	city  entities.City
	found bool
}

func (t bulkTarget) label() string {
	if t.found {
		return t.city.Label()
	}
	return t.slug
}

// RefreshBatch refreshes the selected cities synchronously.
func (s *RefreshService) RefreshBatch(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}
	if req.Strategy != "" && !req.Strategy.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown strategy %q", req.Strategy))
	}

	started := s.clock()
	out := &BulkResult{RunID: uuid.NewString(), Results: []CityRefreshResult{}}
	targets := s.selectCities(req)
	// Cities run to completion once started; ctx is observed between cities.
	cityCtx := context.WithoutCancel(ctx)

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}

		var result *CityRefreshResult
		if !target.found {
			result = &CityRefreshResult{
				City:     target.slug,
				CitySlug: target.slug,
				Phase:    entities.PhaseError,
				Error:    fmt.Sprintf("City not found: %s", target.slug),
			}
		} else {
			result, _ = s.refreshCity(cityCtx, target.city, req.Force, req.Strategy)
		}
		out.Results = append(out.Results, *result)
		accumulate(&out.Summary, result)

		if i < len(targets)-1 && !s.pause(ctx) {
			break
		}
	}

	out.Summary.DurationMs = s.clock().Sub(started).Milliseconds()
	return out, nil
}

// StreamBulk runs a bulk refresh in a goroutine and streams ordered progress
// events. The channel is closed when the run ends. Cancelling ctx lets the
// city in progress finish, then stops the run at the city boundary.
func (s *RefreshService) StreamBulk(ctx context.Context, req BulkRequest) (<-chan entities.RefreshEvent, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}
	if req.Strategy != "" && !req.Strategy.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown strategy %q", req.Strategy))
	}

	targets := s.selectCities(req)
	events := make(chan entities.RefreshEvent)
	runID := uuid.NewString()

	go func() {
		defer close(events)

		cityCtx := context.WithoutCancel(ctx)
		logger := observability.LoggerFromContext(ctx).With().Str("run_id", runID).Logger()
		started := s.clock()

		emit := func(event entities.RefreshEvent) bool {
			event.RunID = runID
			event.Timestamp = s.clock()
			select {
			case events <- event:
			case <-ctx.Done():
				return false
			}
			s.publish(cityCtx, &event)
			return true
		}

		if !emit(entities.RefreshEvent{Type: entities.RefreshEventStart, TotalCities: len(targets)}) {
			return
		}

		var summary entities.BulkSummary
		for i, target := range targets {
			if ctx.Err() != nil {
				logger.Info().Int("index", i+1).Msg("bulk refresh cancelled")
				return
			}
			index := i + 1

			if !emit(entities.RefreshEvent{
				Type:     entities.RefreshEventCityStart,
				Index:    index,
				Total:    len(targets),
				City:     target.label(),
				CitySlug: target.slug,
			}) {
				return
			}

			var result *CityRefreshResult
			if !target.found {
				result = &CityRefreshResult{
					City:     target.slug,
					CitySlug: target.slug,
					Phase:    entities.PhaseError,
					Error:    fmt.Sprintf("City not found: %s", target.slug),
				}
			} else {
				result, _ = s.refreshCity(cityCtx, target.city, req.Force, req.Strategy)
			}
			accumulate(&summary, result)

			if !emit(cityEvent(index, result)) {
				return
			}

			if i < len(targets)-1 && !s.pause(ctx) {
				return
			}
		}

		summary.DurationMs = s.clock().Sub(started).Milliseconds()
		emit(entities.RefreshEvent{Type: entities.RefreshEventComplete, TotalCities: len(targets), Summary: &summary})
		logger.Info().
			Int("cities_complete", summary.CitiesComplete).
			Int("cities_error", summary.CitiesError).
			Int("total_created", summary.TotalCreated).
			Int("total_updated", summary.TotalUpdated).
			Msg("bulk refresh complete")
	}()

	return events, nil
}

func cityEvent(index int, result *CityRefreshResult) entities.RefreshEvent {
	event := entities.RefreshEvent{
		Index:    index,
		City:     result.City,
		CitySlug: result.CitySlug,
	}
	switch result.Phase {
	case entities.PhaseSkipped:
		event.Type = entities.RefreshEventCitySkip
		event.Reason = result.Reason
		event.ExistingCount = result.ExistingCount
	case entities.PhaseError:
		event.Type = entities.RefreshEventCityError
		event.Error = result.Error
		event.DurationMs = result.DurationMs
	default:
		event.Type = entities.RefreshEventCityComplete
		event.TotalFromAPI = result.TotalFromAPI
		event.Created = result.Created
		event.Updated = result.Updated
		event.Skipped = result.Skipped
		event.DurationMs = result.DurationMs
		event.Strategy = result.Strategy
		event.APICalls = result.APICalls
	}
	return event
}

// accumulate folds a city result into the run summary. Skipped cities count
// as complete and are also tallied separately.
func accumulate(summary *entities.BulkSummary, result *CityRefreshResult) {
	switch result.Phase {
	case entities.PhaseError:
		summary.CitiesError++
	case entities.PhaseSkipped:
		summary.CitiesComplete++
		summary.CitiesSkipped++
	default:
		summary.CitiesComplete++
	}
	summary.TotalCreated += result.Created
	summary.TotalUpdated += result.Updated
	summary.TotalSkipped += result.Skipped
	summary.TotalAPICalls += result.APICalls
}

// pause waits the inter-city delay; false means ctx was cancelled.
func (s *RefreshService) pause(ctx context.Context) bool {
	if s.refresh.InterCityDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.refresh.InterCityDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *RefreshService) publish(ctx context.Context, event *entities.RefreshEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, providers.EventChannelRefreshUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event", string(event.Type)).Msg("failed to publish refresh event")
	}
	if event.CitySlug != "" {
		if err := s.events.Publish(ctx, providers.GetCityChannel(event.CitySlug), event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("event", string(event.Type)).Msg("failed to publish city refresh event")
		}
	}
}
