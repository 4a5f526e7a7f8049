package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
)

const (
	heartbeatInterval = 30 * time.Second
	clientBuffer      = 50
)

// SSEHandler relays refresh events from the event bus to browsers, so a
// dashboard can watch runs started elsewhere (the scheduler or another request).
type SSEHandler struct {
	eventBus  providers.EventBus
	clients   map[string]int
	mu        sync.RWMutex
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		clients:   make(map[string]int),
		heartbeat: heartbeatInterval,
	}
}

// SetHeartbeat overrides the keep-alive interval.
func (h *SSEHandler) SetHeartbeat(interval time.Duration) {
	if interval > 0 {
		h.heartbeat = interval
	}
}

// StreamRefreshEvents handles GET /api/refresh/events?city=
// Without a city every run event is relayed.
func (h *SSEHandler) StreamRefreshEvents(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	citySlug := r.URL.Query().Get("city")
	channel := providers.EventChannelRefreshUpdates
	if citySlug != "" {
		channel = providers.GetCityChannel(citySlug)
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to refresh events")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.registerClient(channel)
	defer h.unregisterClient(channel)

	setSSEHeaders(w)
	sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"city":      citySlug,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	clientChan := make(chan *entities.RefreshEvent, clientBuffer)
	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("refresh event client disconnected")
			return
		case <-ticker.C:
			sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			if err := sendEvent(w, string(event.Type), event); err != nil {
				logger.Warn().Err(err).Msg("failed to write refresh event")
				continue
			}
			flusher.Flush()
		}
	}
}

// forwardEvents copies bus events to the client, dropping them when the
// client falls behind. clientChan is closed when the subscription ends.
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.RefreshEvent, clientChan chan<- *entities.RefreshEvent) {
	defer close(clientChan)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
}

func (h *SSEHandler) unregisterClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]--
	if h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
