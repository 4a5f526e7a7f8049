package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
)

// MockEventBus for testing
type MockEventBus struct {
	mu           sync.RWMutex
	subscribers  map[string][]chan *entities.RefreshEvent
	published    []*entities.RefreshEvent
	subscribeErr error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.RefreshEvent),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.RefreshEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.RefreshEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.RefreshEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	ch := make(chan *entities.RefreshEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.RefreshEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[channel])
}

// syncRecorder guards the recorder body, which the handler writes while the test reads.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *syncRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *syncRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func startStream(t *testing.T, handler *handlers.SSEHandler, target string) (*syncRecorder, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	w := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		handler.StreamRefreshEvents(w, req)
		close(done)
	}()
	return w, cancel, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}
}

func TestSSEHandler_StreamRefreshEvents(t *testing.T) {
	t.Run("should establish SSE connection", func(t *testing.T) {
		eventBus := NewMockEventBus()
		handler := handlers.NewSSEHandler(eventBus)

		w, cancel, done := startStream(t, handler, "/api/refresh/events")
		assert.Eventually(t, func() bool {
			return eventBus.SubscriberCount(providers.EventChannelRefreshUpdates) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return handler.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

		cancel()
		waitDone(t, done)

		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.String(), "event: connected\n")
		assert.Equal(t, 0, handler.GetClientCount())
	})

	t.Run("should relay city events", func(t *testing.T) {
		eventBus := NewMockEventBus()
		handler := handlers.NewSSEHandler(eventBus)
		channel := providers.GetCityChannel("austin-tx")

		w, cancel, done := startStream(t, handler, "/api/refresh/events?city=austin-tx")
		assert.Eventually(t, func() bool { return eventBus.SubscriberCount(channel) == 1 }, time.Second, 10*time.Millisecond)

		eventBus.Publish(context.Background(), channel, &entities.RefreshEvent{
			Type:     entities.RefreshEventCityComplete,
			CitySlug: "austin-tx",
			Created:  4,
		})

		assert.Eventually(t, func() bool {
			return strings.Contains(w.String(), "event: city_complete\n")
		}, time.Second, 10*time.Millisecond)
		assert.Contains(t, w.String(), `"created":4`)

		cancel()
		waitDone(t, done)
	})

	t.Run("should send heartbeats", func(t *testing.T) {
		eventBus := NewMockEventBus()
		handler := handlers.NewSSEHandler(eventBus)
		handler.SetHeartbeat(20 * time.Millisecond)

		w, cancel, done := startStream(t, handler, "/api/refresh/events")
		assert.Eventually(t, func() bool {
			return strings.Contains(w.String(), "event: heartbeat\n")
		}, time.Second, 10*time.Millisecond)

		cancel()
		waitDone(t, done)
	})

	t.Run("should end when the bus closes", func(t *testing.T) {
		eventBus := NewMockEventBus()
		handler := handlers.NewSSEHandler(eventBus)

		_, cancel, done := startStream(t, handler, "/api/refresh/events")
		defer cancel()
		assert.Eventually(t, func() bool {
			return eventBus.SubscriberCount(providers.EventChannelRefreshUpdates) == 1
		}, time.Second, 10*time.Millisecond)

		eventBus.Close()
		waitDone(t, done)
	})

	t.Run("should fail when subscription fails", func(t *testing.T) {
		eventBus := NewMockEventBus()
		eventBus.subscribeErr = errors.New("redis down")
		handler := handlers.NewSSEHandler(eventBus)

		w := httptest.NewRecorder()
		handler.StreamRefreshEvents(w, httptest.NewRequest(http.MethodGet, "/api/refresh/events", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
