package providers

import (
	"context"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to refresh progress
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.RefreshEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.RefreshEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for refresh progress
const (
	// EventChannelRefreshUpdates carries every bulk refresh event
	EventChannelRefreshUpdates = "refresh:updates"

	// EventChannelCityPrefix is the prefix for city-specific channels
	EventChannelCityPrefix = "refresh:city:"
)

// GetCityChannel returns the channel name for a specific city
func GetCityChannel(citySlug string) string {
	return EventChannelCityPrefix + citySlug
}
