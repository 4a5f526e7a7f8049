package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Now() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *MockDirectory) CityListing(ctx context.Context, query services.ListingQuery, now time.Time) (*services.CityListing, error) {
	args := m.Called(ctx, query, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CityListing), args.Error(1)
}

func (m *MockDirectory) CityStats(ctx context.Context, query services.ListingQuery, now time.Time) (*entities.DetailedStats, error) {
	args := m.Called(ctx, query, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DetailedStats), args.Error(1)
}

func (m *MockDirectory) StateSummary(ctx context.Context, stateSlug string, now time.Time) (*entities.StateSummary, error) {
	args := m.Called(ctx, stateSlug, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StateSummary), args.Error(1)
}

var mondayEvening = time.Date(2024, time.January, 15, 18, 0, 0, 0, time.UTC)

func TestDirectoryHandler_ListBusinesses(t *testing.T) {
	directory := new(MockDirectory)
	handler := handlers.NewDirectoryHandler(directory)

	query := services.ListingQuery{CitySlug: "austin-tx", PracticeArea: "criminal-defense", Filter: services.ListingFilterWeekend}
	directory.On("Now").Return(mondayEvening)
	directory.On("CityListing", mock.Anything, query, mondayEvening).Return(&services.CityListing{
		City:        entities.City{Slug: "austin-tx", Name: "Austin"},
		Filter:      services.ListingFilterWeekend,
		Businesses:  []entities.BusinessWithAvailability{},
		Stats:       entities.Stats{Total: 0, AvailableNow: []entities.BusinessWithAvailability{}},
		GeneratedAt: mondayEvening,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/businesses?practiceArea=criminal-defense&filter=weekend", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w := httptest.NewRecorder()

	handler.ListBusinesses(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var listing services.CityListing
	decodeBody(t, w, &listing)
	assert.Equal(t, "austin-tx", listing.City.Slug)
	assert.Equal(t, services.ListingFilterWeekend, listing.Filter)
	directory.AssertExpectations(t)
}

func TestDirectoryHandler_ListBusinesses_AtParameter(t *testing.T) {
	directory := new(MockDirectory)
	handler := handlers.NewDirectoryHandler(directory)

	at := time.Date(2024, time.January, 20, 10, 30, 0, 0, time.UTC)
	directory.On("CityListing", mock.Anything, services.ListingQuery{CitySlug: "austin-tx"}, at).
		Return(&services.CityListing{Businesses: []entities.BusinessWithAvailability{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/businesses?at=2024-01-20T10:30:00Z", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w := httptest.NewRecorder()
	handler.ListBusinesses(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	directory.AssertNotCalled(t, "Now")

	req = httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/businesses?at=yesterday", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w = httptest.NewRecorder()
	handler.ListBusinesses(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectoryHandler_ListBusinesses_Errors(t *testing.T) {
	directory := new(MockDirectory)
	handler := handlers.NewDirectoryHandler(directory)
	directory.On("Now").Return(mondayEvening)
	directory.On("CityListing", mock.Anything, services.ListingQuery{CitySlug: "atlantis"}, mondayEvening).
		Return(nil, apperrors.NewNotFoundError("city not found: atlantis"))
	directory.On("CityListing", mock.Anything, services.ListingQuery{CitySlug: "austin-tx", Filter: "late"}, mondayEvening).
		Return(nil, apperrors.NewValidationError(`unknown filter "late"`))

	req := httptest.NewRequest(http.MethodGet, "/api/cities/atlantis/businesses", nil)
	req.SetPathValue("citySlug", "atlantis")
	w := httptest.NewRecorder()
	handler.ListBusinesses(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/businesses?filter=late", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w = httptest.NewRecorder()
	handler.ListBusinesses(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectoryHandler_CityStats(t *testing.T) {
	directory := new(MockDirectory)
	handler := handlers.NewDirectoryHandler(directory)
	query := services.ListingQuery{CitySlug: "austin-tx"}
	directory.On("Now").Return(mondayEvening)
	directory.On("CityListing", mock.Anything, query, mondayEvening).Return(&services.CityListing{
		Stats: entities.Stats{Total: 3, EveningCount: 2, AvailableNow: []entities.BusinessWithAvailability{}},
	}, nil)
	directory.On("CityStats", mock.Anything, query, mondayEvening).Return(&entities.DetailedStats{Total: 3, EveningCount: 2, AcceptsCreditCards: 1}, nil)

	t.Run("summary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/stats", nil)
		req.SetPathValue("citySlug", "austin-tx")
		w := httptest.NewRecorder()
		handler.CityStats(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var stats entities.Stats
		decodeBody(t, w, &stats)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.EveningCount)
	})

	t.Run("detailed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cities/austin-tx/stats?detailed=true", nil)
		req.SetPathValue("citySlug", "austin-tx")
		w := httptest.NewRecorder()
		handler.CityStats(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var stats entities.DetailedStats
		decodeBody(t, w, &stats)
		assert.Equal(t, 1, stats.AcceptsCreditCards)
	})
}

func TestDirectoryHandler_StateSummary(t *testing.T) {
	directory := new(MockDirectory)
	handler := handlers.NewDirectoryHandler(directory)
	directory.On("Now").Return(mondayEvening)
	directory.On("StateSummary", mock.Anything, "texas", mondayEvening).Return(&entities.StateSummary{
		StateSlug:       "texas",
		TotalBusinesses: 90,
		Cities:          []entities.CitySummary{},
	}, nil)
	directory.On("StateSummary", mock.Anything, "atlantis", mondayEvening).
		Return(nil, apperrors.NewNotFoundError("state not found: atlantis"))

	req := httptest.NewRequest(http.MethodGet, "/api/states/texas/summary", nil)
	req.SetPathValue("stateSlug", "texas")
	w := httptest.NewRecorder()
	handler.StateSummary(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var summary entities.StateSummary
	decodeBody(t, w, &summary)
	assert.Equal(t, 90, summary.TotalBusinesses)

	req = httptest.NewRequest(http.MethodGet, "/api/states/atlantis/summary", nil)
	req.SetPathValue("stateSlug", "atlantis")
	w = httptest.NewRecorder()
	handler.StateSummary(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
