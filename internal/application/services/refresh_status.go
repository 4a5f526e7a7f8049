package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
)

// Staleness bands for refresh status.
const (
	FreshWithin = 6 * time.Hour
	StaleWithin = 168 * time.Hour
)

// keyCheckLocation is downtown New York.
var keyCheckLocation = entities.Location{Latitude: 40.7128, Longitude: -74.0060}

// ClassifyStaleness maps the age of the newest refresh to a status.
func ClassifyStaleness(lastRefresh *time.Time, now time.Time) entities.CityRefreshStatus {
	if lastRefresh == nil {
		return entities.CityStatusNeverFetched
	}
	age := now.Sub(*lastRefresh)
	switch {
	case age < FreshWithin:
		return entities.CityStatusFresh
	case age < StaleWithin:
		return entities.CityStatusStale
	default:
		return entities.CityStatusVeryStale
	}
}

// CityStatus reports the stored data of one catalog city.
func (s *RefreshService) CityStatus(ctx context.Context, slug string) (*entities.CityStatus, error) {
	city, ok := s.catalog.CityBySlug(slug)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("city not found: %s", slug))
	}
	return s.cityStatus(ctx, city, s.clock())
}

func (s *RefreshService) cityStatus(ctx context.Context, catalogCity entities.City, now time.Time) (*entities.CityStatus, error) {
	status := &entities.CityStatus{
		Name:       catalogCity.Name,
		StateCode:  catalogCity.StateCode,
		Slug:       catalogCity.Slug,
		Population: catalogCity.Population,
		Status:     entities.CityStatusNeverFetched,
	}

	stored, err := s.cities.GetBySlug(ctx, catalogCity.Slug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return status, nil
		}
		return nil, err
	}

	if status.TotalBusinesses, err = s.businesses.CountByCity(ctx, stored.ID); err != nil {
		return nil, err
	}
	if status.BusinessesWithHours, err = s.businesses.CountWithHours(ctx, stored.ID); err != nil {
		return nil, err
	}
	if status.LastRefresh, err = s.businesses.LatestRefresh(ctx, stored.ID); err != nil {
		return nil, err
	}
	if status.LastRefresh != nil {
		hours := now.Sub(*status.LastRefresh).Hours()
		status.HoursSinceRefresh = &hours
	}
	status.Status = ClassifyStaleness(status.LastRefresh, now)
	return status, nil
}

// Status summarises refresh state across the catalog.
func (s *RefreshService) Status(ctx context.Context) (*entities.RefreshStatusSummary, error) {
	now := s.clock()
	cities := s.catalog.Cities()
	summary := &entities.RefreshStatusSummary{
		APIKeyConfigured: s.places.Validate() == nil,
		TotalCities:      len(cities),
		Cities:           make([]entities.CityStatus, 0, len(cities)),
	}

	for _, city := range cities {
		status, err := s.cityStatus(ctx, city, now)
		if err != nil {
			return nil, err
		}
		summary.Cities = append(summary.Cities, *status)
		summary.TotalBusinesses += status.TotalBusinesses

		switch status.Status {
		case entities.CityStatusNeverFetched:
			summary.CitiesNeverFetched++
			continue
		case entities.CityStatusFresh:
			summary.CitiesFresh++
		default:
			summary.CitiesStale++
		}
		summary.CitiesFetched++
	}

	var err error
	if summary.BusinessesWithHours, err = s.businesses.CountWithHours(ctx, 0); err != nil {
		return nil, err
	}
	if summary.TotalHourWindows, err = s.businesses.CountHourWindows(ctx); err != nil {
		return nil, err
	}
	return summary, nil
}

// TestKey issues a one-result provider query to prove the credential works.
func (s *RefreshService) TestKey(ctx context.Context) KeyCheck {
	check := KeyCheck{KeyPrefix: s.places.KeyPrefix()}
	if err := s.places.Validate(); err != nil {
		check.Error = err.Error()
		return check
	}
	check.Configured = true

	_, err := s.provider.SearchNearby(ctx, providers.NearbyQuery{
		Latitude:     keyCheckLocation.Latitude,
		Longitude:    keyCheckLocation.Longitude,
		RadiusMeters: 1000,
		MaxResults:   1,
	})
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.Valid = true
	return check
}
