package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
)

// Directory is the read side as seen by HTTP.
type Directory interface {
	Now() time.Time
	CityListing(ctx context.Context, query services.ListingQuery, now time.Time) (*services.CityListing, error)
	CityStats(ctx context.Context, query services.ListingQuery, now time.Time) (*entities.DetailedStats, error)
	StateSummary(ctx context.Context, stateSlug string, now time.Time) (*entities.StateSummary, error)
}

// DirectoryHandler serves city listings, statistics and state summaries.
type DirectoryHandler struct {
	directory Directory
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(directory Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListBusinesses handles GET /api/cities/{citySlug}/businesses
func (h *DirectoryHandler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	now, err := h.referenceTime(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listing, err := h.directory.CityListing(r.Context(), listingQuery(r), now)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// CityStats handles GET /api/cities/{citySlug}/stats
// The listing roll-up is returned unless detailed=true.
func (h *DirectoryHandler) CityStats(w http.ResponseWriter, r *http.Request) {
	now, err := h.referenceTime(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	query := listingQuery(r)
	if queryBool(r, "detailed") {
		stats, err := h.directory.CityStats(r.Context(), query, now)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, stats)
		return
	}

	listing, err := h.directory.CityListing(r.Context(), query, now)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing.Stats)
}

// StateSummary handles GET /api/states/{stateSlug}/summary
func (h *DirectoryHandler) StateSummary(w http.ResponseWriter, r *http.Request) {
	now, err := h.referenceTime(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	summary, err := h.directory.StateSummary(r.Context(), r.PathValue("stateSlug"), now)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func listingQuery(r *http.Request) services.ListingQuery {
	return services.ListingQuery{
		CitySlug:     r.PathValue("citySlug"),
		PracticeArea: r.URL.Query().Get("practiceArea"),
		Filter:       services.ListingFilter(r.URL.Query().Get("filter")),
	}
}

// referenceTime honours an RFC 3339 "at" parameter so clients can ask
// "who is open at" a given instant.
func (h *DirectoryHandler) referenceTime(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return h.directory.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid at parameter, expected RFC 3339")
	}
	return at, nil
}
