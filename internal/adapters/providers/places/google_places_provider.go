package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"github.com/lawyerhours/backend/pkg/retry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBaseURL     = "https://places.googleapis.com/v1"
	defaultHTTPTimeout = 15 * time.Second
	includedType       = "lawyer"
	maxErrorBody       = 2048
)

var fieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.formattedAddress",
	"places.shortFormattedAddress",
	"places.primaryType",
	"places.primaryTypeDisplayName",
	"places.types",
	"places.location",
	"places.regularOpeningHours",
	"places.regularSecondaryOpeningHours",
	"places.paymentOptions",
	"places.parkingOptions",
	"places.accessibilityOptions",
	"places.googleMapsUri",
	"places.websiteUri",
}, ",")

// GooglePlacesProvider implements PlaceProvider with the Places API (New) nearby search.
type GooglePlacesProvider struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
}

// NewGooglePlacesProvider creates a provider; httpClient may be nil.
func NewGooglePlacesProvider(cfg config.PlacesConfig, httpClient *http.Client) *GooglePlacesProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &GooglePlacesProvider{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		httpClient:  httpClient,
		retryConfig: retry.ProviderConfig(),
	}
}

// WithRetryConfig overrides the retry budget (used by tests).
func (p *GooglePlacesProvider) WithRetryConfig(cfg retry.Config) *GooglePlacesProvider {
	p.retryConfig = cfg
	return p
}

// SearchNearby issues one nearby search, retrying transient failures.
func (p *GooglePlacesProvider) SearchNearby(ctx context.Context, query providers.NearbyQuery) ([]providers.Place, error) {
	ctx, span := observability.StartSpan(ctx, "places.search_nearby")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Float64("query.latitude", query.Latitude),
		attribute.Float64("query.longitude", query.Longitude),
		attribute.Float64("query.radius_m", query.RadiusMeters),
	)

	if strings.TrimSpace(p.apiKey) == "" {
		return nil, apperrors.NewConfigurationError("places api key is required", nil)
	}

	body, err := json.Marshal(searchNearbyRequest{
		IncludedTypes: []string{includedType},
		LocationRestriction: locationRestriction{Circle: circle{
			Center: latLng{Latitude: query.Latitude, Longitude: query.Longitude},
			Radius: query.RadiusMeters,
		}},
		MaxResultCount: query.MaxResults,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode nearby search request", err)
	}

	logger := observability.LoggerFromContext(ctx)
	var payload searchNearbyResponse
	err = retry.DoWithLog(ctx, p.retryConfig, "Places", func() error {
		payload = searchNearbyResponse{}
		return p.do(ctx, body, &payload)
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("places search failed, retrying")
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("places nearby search failed", err)
	}

	places := make([]providers.Place, 0, len(payload.Places))
	for _, raw := range payload.Places {
		places = append(places, raw.toPlace())
	}
	observability.SetSpanAttributes(span, attribute.Int("result.count", len(places)))
	return places, nil
}

func (p *GooglePlacesProvider) do(ctx context.Context, body []byte, out *searchNearbyResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/places:searchNearby", bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to build nearby search request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", p.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nearby search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("places api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(statusErr)
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("failed to decode nearby search response: %w", err))
	}
	return nil
}
