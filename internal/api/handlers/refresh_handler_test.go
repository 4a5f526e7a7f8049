package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRefreshRunner struct {
	mock.Mock
}

func (m *MockRefreshRunner) RefreshCity(ctx context.Context, req services.RefreshRequest) (*services.CityRefreshResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CityRefreshResult), args.Error(1)
}

func (m *MockRefreshRunner) RefreshBatch(ctx context.Context, req services.BulkRequest) (*services.BulkResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkResult), args.Error(1)
}

func (m *MockRefreshRunner) StreamBulk(ctx context.Context, req services.BulkRequest) (<-chan entities.RefreshEvent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan entities.RefreshEvent), args.Error(1)
}

func (m *MockRefreshRunner) CityStatus(ctx context.Context, slug string) (*entities.CityStatus, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CityStatus), args.Error(1)
}

func (m *MockRefreshRunner) Status(ctx context.Context) (*entities.RefreshStatusSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RefreshStatusSummary), args.Error(1)
}

func (m *MockRefreshRunner) TestKey(ctx context.Context) services.KeyCheck {
	args := m.Called(ctx)
	return args.Get(0).(services.KeyCheck)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out))
}

func TestRefreshHandler_RefreshCity(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)

	runner.On("RefreshCity", mock.Anything, services.RefreshRequest{
		CitySlug: "austin-tx",
		Force:    true,
		Strategy: entities.StrategyGrid,
	}).Return(&services.CityRefreshResult{
		City:     "Austin, TX",
		CitySlug: "austin-tx",
		Phase:    entities.PhaseComplete,
		Strategy: entities.StrategyGrid,
		APICalls: 5,
		Created:  12,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh/austin-tx?force=true&strategy=grid", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w := httptest.NewRecorder()

	handler.RefreshCity(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var result services.CityRefreshResult
	decodeBody(t, w, &result)
	assert.Equal(t, entities.PhaseComplete, result.Phase)
	assert.Equal(t, 12, result.Created)
	assert.Equal(t, 5, result.APICalls)
	runner.AssertExpectations(t)
}

func TestRefreshHandler_RefreshCity_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown city", apperrors.NewNotFoundError("city not found: atlantis"), http.StatusNotFound, ""},
		{"bad strategy", apperrors.NewValidationError(`unknown strategy "spiral"`), http.StatusBadRequest, ""},
		{"missing key", apperrors.NewConfigurationError("place provider credentials are not usable", errors.New("GOOGLE_PLACES_API_KEY is not set")), http.StatusServiceUnavailable, "INVALID_API_KEY"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockRefreshRunner)
			handler := handlers.NewRefreshHandler(runner)
			runner.On("RefreshCity", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/refresh/atlantis", nil)
			req.SetPathValue("citySlug", "atlantis")
			w := httptest.NewRecorder()

			handler.RefreshCity(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			decodeBody(t, w, &body)
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotContains(t, body["error"], "boom")
		})
	}
}

func TestRefreshHandler_RefreshCity_FailedRunIsBadGateway(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)
	runner.On("RefreshCity", mock.Anything, mock.Anything).Return(&services.CityRefreshResult{
		CitySlug: "austin-tx",
		Phase:    entities.PhaseError,
		Error:    "EXTERNAL: place provider search failed",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh/austin-tx", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w := httptest.NewRecorder()

	handler.RefreshCity(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var result services.CityRefreshResult
	decodeBody(t, w, &result)
	assert.Equal(t, entities.PhaseError, result.Phase)
}

func TestRefreshHandler_CityStatus(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)
	runner.On("CityStatus", mock.Anything, "austin-tx").Return(&entities.CityStatus{
		Slug:            "austin-tx",
		Status:          entities.CityStatusFresh,
		TotalBusinesses: 40,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/refresh/austin-tx", nil)
	req.SetPathValue("citySlug", "austin-tx")
	w := httptest.NewRecorder()

	handler.CityStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var status entities.CityStatus
	decodeBody(t, w, &status)
	assert.Equal(t, entities.CityStatusFresh, status.Status)
	assert.Equal(t, 40, status.TotalBusinesses)
}

func TestRefreshHandler_StatusAndTestKey(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)
	runner.On("Status", mock.Anything).Return(&entities.RefreshStatusSummary{TotalCities: 50, CitiesNeverFetched: 50}, nil)
	runner.On("TestKey", mock.Anything).Return(services.KeyCheck{Configured: true, Valid: false, Error: "403", KeyPrefix: "AIzaSyTe..."})

	w := httptest.NewRecorder()
	handler.Status(w, httptest.NewRequest(http.MethodGet, "/api/refresh/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var summary entities.RefreshStatusSummary
	decodeBody(t, w, &summary)
	assert.Equal(t, 50, summary.TotalCities)

	w = httptest.NewRecorder()
	handler.TestKey(w, httptest.NewRequest(http.MethodGet, "/api/refresh/test-key", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var check services.KeyCheck
	decodeBody(t, w, &check)
	assert.True(t, check.Configured)
	assert.False(t, check.Valid)
	assert.Equal(t, "AIzaSyTe...", check.KeyPrefix)
}

func TestRefreshHandler_RefreshBulk(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)
	runner.On("RefreshBatch", mock.Anything, services.BulkRequest{
		CitySlugs: []string{"austin-tx", "denver-co"},
		Force:     true,
	}).Return(&services.BulkResult{
		RunID:   "run-1",
		Summary: entities.BulkSummary{CitiesComplete: 2, TotalCreated: 7},
	}, nil)

	body := `{"cities":["austin-tx","denver-co"],"force":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/refresh/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.RefreshBulk(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var result services.BulkResult
	decodeBody(t, w, &result)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 7, result.Summary.TotalCreated)
	runner.AssertExpectations(t)
}

func TestRefreshHandler_RefreshBulk_InvalidBody(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh/bulk", strings.NewReader(`{"cities":`))
	w := httptest.NewRecorder()
	handler.RefreshBulk(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/refresh/bulk", strings.NewReader(`{"limit":-1}`))
	w = httptest.NewRecorder()
	handler.RefreshBulk(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runner.AssertNotCalled(t, "RefreshBatch", mock.Anything, mock.Anything)
}

func TestRefreshHandler_StreamBulk(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)

	events := make(chan entities.RefreshEvent, 4)
	events <- entities.RefreshEvent{Type: entities.RefreshEventStart, TotalCities: 1}
	events <- entities.RefreshEvent{Type: entities.RefreshEventCityStart, Index: 1, Total: 1, City: "Austin, TX", CitySlug: "austin-tx"}
	events <- entities.RefreshEvent{Type: entities.RefreshEventCitySkip, Index: 1, City: "Austin, TX", Reason: "Recently fetched 1.0h ago", ExistingCount: 40}
	events <- entities.RefreshEvent{Type: entities.RefreshEventComplete, TotalCities: 1, Summary: &entities.BulkSummary{CitiesComplete: 1, CitiesSkipped: 1}}
	close(events)

	runner.On("StreamBulk", mock.Anything, services.BulkRequest{
		Offset:    2,
		Limit:     1,
		CitySlugs: []string{"austin-tx"},
	}).Return((<-chan entities.RefreshEvent)(events), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/refresh/bulk/stream?offset=2&limit=1&cities=austin-tx", nil)
	w := httptest.NewRecorder()

	handler.StreamBulk(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	order := []string{"event: start\n", "event: city_start\n", "event: city_skip\n", "event: complete\n"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
	assert.Contains(t, body, `"reason":"Recently fetched 1.0h ago"`)
	assert.Contains(t, body, `"cities_skipped":1`)
}

func TestRefreshHandler_StreamBulk_RejectsBeforeStreaming(t *testing.T) {
	runner := new(MockRefreshRunner)
	handler := handlers.NewRefreshHandler(runner)

	w := httptest.NewRecorder()
	handler.StreamBulk(w, httptest.NewRequest(http.MethodGet, "/api/refresh/bulk/stream?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runner.On("StreamBulk", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConfigurationError("place provider credentials are not usable", nil))
	w = httptest.NewRecorder()
	handler.StreamBulk(w, httptest.NewRequest(http.MethodGet, "/api/refresh/bulk/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}
