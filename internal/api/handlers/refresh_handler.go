package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
)

// RefreshRunner is the refresh pipeline as seen by HTTP.
type RefreshRunner interface {
	RefreshCity(ctx context.Context, req services.RefreshRequest) (*services.CityRefreshResult, error)
	RefreshBatch(ctx context.Context, req services.BulkRequest) (*services.BulkResult, error)
	StreamBulk(ctx context.Context, req services.BulkRequest) (<-chan entities.RefreshEvent, error)
	CityStatus(ctx context.Context, slug string) (*entities.CityStatus, error)
	Status(ctx context.Context) (*entities.RefreshStatusSummary, error)
	TestKey(ctx context.Context) services.KeyCheck
}

// RefreshHandler exposes city and bulk refreshes.
type RefreshHandler struct {
	runner RefreshRunner
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(runner RefreshRunner) *RefreshHandler {
	return &RefreshHandler{runner: runner}
}

// RefreshCity handles POST /api/refresh/{citySlug}
func (h *RefreshHandler) RefreshCity(w http.ResponseWriter, r *http.Request) {
	citySlug := r.PathValue("citySlug")
	if citySlug == "" {
		respondWithError(w, http.StatusBadRequest, "city slug is required")
		return
	}

	result, err := h.runner.RefreshCity(r.Context(), services.RefreshRequest{
		CitySlug: citySlug,
		Force:    queryBool(r, "force"),
		Strategy: entities.FetchStrategy(r.URL.Query().Get("strategy")),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if result.Phase == entities.PhaseError {
		respondWithJSON(w, http.StatusBadGateway, result)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// CityStatus handles GET /api/refresh/{citySlug}
func (h *RefreshHandler) CityStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.runner.CityStatus(r.Context(), r.PathValue("citySlug"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// Status handles GET /api/refresh/status
func (h *RefreshHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Status(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// TestKey handles GET /api/refresh/test-key
func (h *RefreshHandler) TestKey(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.runner.TestKey(r.Context()))
}

// bulkBody is the JSON form of a bulk refresh.
type bulkBody struct {
	Cities   []string `json:"cities"`
	Force    bool     `json:"force"`
	Offset   int      `json:"offset"`
	Limit    int      `json:"limit"`
	Strategy string   `json:"strategy"`
}

// RefreshBulk handles POST /api/refresh/bulk and waits for the whole run.
func (h *RefreshHandler) RefreshBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.Offset < 0 || body.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "offset and limit must not be negative")
		return
	}

	result, err := h.runner.RefreshBatch(r.Context(), services.BulkRequest{
		CitySlugs: body.Cities,
		Force:     body.Force,
		Offset:    body.Offset,
		Limit:     body.Limit,
		Strategy:  entities.FetchStrategy(body.Strategy),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// StreamBulk handles GET /api/refresh/bulk/stream and relays progress as SSE.
// Disconnecting the client cancels the run.
func (h *RefreshHandler) StreamBulk(w http.ResponseWriter, r *http.Request) {
	req, err := bulkRequestFromQuery(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, err := h.runner.StreamBulk(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := observability.LoggerFromContext(r.Context())
	for event := range events {
		if err := sendEvent(w, string(event.Type), event); err != nil {
			logger.Warn().Err(err).Msg("failed to write refresh event")
			continue
		}
		flusher.Flush()
	}
}

func bulkRequestFromQuery(r *http.Request) (services.BulkRequest, error) {
	query := r.URL.Query()
	req := services.BulkRequest{
		Force:    queryBool(r, "force"),
		Strategy: entities.FetchStrategy(query.Get("strategy")),
	}

	var err error
	if req.Offset, err = queryInt(r, "offset", 0); err != nil {
		return req, err
	}
	if req.Limit, err = queryInt(r, "limit", 0); err != nil {
		return req, err
	}
	if raw := query.Get("cities"); raw != "" {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				req.CitySlugs = append(req.CitySlugs, slug)
			}
		}
	}
	return req, nil
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// sendEvent writes one SSE frame.
func sendEvent(w http.ResponseWriter, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData)
	return err
}
