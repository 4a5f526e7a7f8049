package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ListingFilter narrows a city listing by availability.
type ListingFilter string

const (
	ListingFilterNone      ListingFilter = ""
	ListingFilterWeekend   ListingFilter = "weekend"
	ListingFilterEmergency ListingFilter = "emergency"
)

// Valid reports whether f is a known filter.
func (f ListingFilter) Valid() bool {
	switch f {
	case ListingFilterNone, ListingFilterWeekend, ListingFilterEmergency:
		return true
	}
	return false
}

// DirectoryCatalog is the reference data the read path needs.
type DirectoryCatalog interface {
	CityCatalog
	CitiesByState(stateSlug string) []entities.City
	PracticeAreaBySlug(slug string) (entities.PracticeArea, bool)
}

// ListingQuery selects businesses of one city.
type ListingQuery struct {
	CitySlug     string
	PracticeArea string
	Filter       ListingFilter
}

// CityListing is a city's businesses annotated at a reference instant.
type CityListing struct {
	City         entities.City                       `json:"city"`
	PracticeArea *entities.PracticeArea              `json:"practice_area,omitempty"`
	Filter       ListingFilter                       `json:"filter,omitempty"`
	Businesses   []entities.BusinessWithAvailability `json:"businesses"`
	Stats        entities.Stats                      `json:"stats"`
	GeneratedAt  time.Time                           `json:"generated_at"`
}

// DirectoryService serves the read side: listings, statistics and state roll-ups.
type DirectoryService struct {
	businesses   repositories.BusinessRepository
	cities       repositories.CityRepository
	catalog      DirectoryCatalog
	availability *AvailabilityService
	statistics   *StatisticsService
}

// NewDirectoryService creates a directory service.
func NewDirectoryService(
	businesses repositories.BusinessRepository,
	cities repositories.CityRepository,
	catalog DirectoryCatalog,
	availability *AvailabilityService,
	statistics *StatisticsService,
) *DirectoryService {
	return &DirectoryService{
		businesses:   businesses,
		cities:       cities,
		catalog:      catalog,
		availability: availability,
		statistics:   statistics,
	}
}

// Now returns the reference instant used when callers do not supply one.
func (s *DirectoryService) Now() time.Time {
	return s.availability.Now()
}

// CityListing lists a city's businesses ordered by name. A practice area
// matches only businesses tagged with exactly that slug.
func (s *DirectoryService) CityListing(ctx context.Context, query ListingQuery, now time.Time) (*CityListing, error) {
	ctx, span := observability.StartSpan(ctx, "directory.city_listing")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("city.slug", query.CitySlug),
		attribute.String("practice_area", query.PracticeArea),
		attribute.String("filter", string(query.Filter)),
	)

	if !query.Filter.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown filter %q", query.Filter))
	}

	city, ok := s.catalog.CityBySlug(query.CitySlug)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("city not found: %s", query.CitySlug))
	}

	listing := &CityListing{
		City:        city,
		Filter:      query.Filter,
		Businesses:  []entities.BusinessWithAvailability{},
		GeneratedAt: now,
	}

	if query.PracticeArea != "" {
		area, ok := s.catalog.PracticeAreaBySlug(query.PracticeArea)
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("practice area not found: %s", query.PracticeArea))
		}
		if query.Filter == ListingFilterEmergency && !area.Emergency {
			return nil, apperrors.NewValidationError(fmt.Sprintf("practice area %s has no emergency listing", area.Slug))
		}
		listing.PracticeArea = &area
	}

	stored, err := s.cities.GetBySlug(ctx, city.Slug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			listing.Stats = ComputeStats(listing.Businesses)
			return listing, nil
		}
		observability.RecordError(span, err)
		return nil, err
	}
	listing.City = *stored

	businesses, err := s.businesses.ListByCity(ctx, stored.ID, repositories.BusinessFilter{PracticeArea: query.PracticeArea})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, item := range s.availability.Annotate(businesses, now) {
		switch query.Filter {
		case ListingFilterWeekend:
			if !item.Availability.HasWeekendHours {
				continue
			}
		case ListingFilterEmergency:
			if !item.Availability.HasEmergencyHours {
				continue
			}
		}
		listing.Businesses = append(listing.Businesses, item)
	}
	listing.Stats = ComputeStats(listing.Businesses)
	return listing, nil
}

// CityStats computes the detailed statistics of a city listing.
func (s *DirectoryService) CityStats(ctx context.Context, query ListingQuery, now time.Time) (*entities.DetailedStats, error) {
	listing, err := s.CityListing(ctx, query, now)
	if err != nil {
		return nil, err
	}
	stats := s.statistics.ComputeDetailedStats(listing.Businesses, listing.City)
	return &stats, nil
}

// StateSummary rolls up every stored city of a state.
func (s *DirectoryService) StateSummary(ctx context.Context, stateSlug string, now time.Time) (*entities.StateSummary, error) {
	ctx, span := observability.StartSpan(ctx, "directory.state_summary")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("state.slug", stateSlug))

	if len(s.catalog.CitiesByState(stateSlug)) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("state not found: %s", stateSlug))
	}

	cities, err := s.cities.ListByState(ctx, stateSlug)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	summary := &entities.StateSummary{
		StateSlug: stateSlug,
		Cities:    make([]entities.CitySummary, 0, len(cities)),
	}
	for _, city := range cities {
		businesses, err := s.businesses.ListByCity(ctx, city.ID, repositories.BusinessFilter{})
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		stats := ComputeStats(s.availability.Annotate(businesses, now))

		summary.Cities = append(summary.Cities, entities.CitySummary{
			City:            city,
			TotalBusinesses: stats.Total,
			EveningCount:    stats.EveningCount,
			WeekendCount:    stats.WeekendCount,
			EmergencyCount:  stats.EmergencyCount,
		})
		summary.TotalBusinesses += stats.Total
		summary.EveningCount += stats.EveningCount
		summary.WeekendCount += stats.WeekendCount
		summary.EmergencyCount += stats.EmergencyCount
	}
	return summary, nil
}
