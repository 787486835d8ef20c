package providers

import (
	"context"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to discovery events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DiscoveryEvent) error

	// Subscribe subscribes to events on a channel until ctx ends
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DiscoveryEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelDiscovery carries completion notices for discovery runs
const EventChannelDiscovery = "events:discovered"
