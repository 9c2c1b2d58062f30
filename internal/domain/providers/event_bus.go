package providers

import (
	"context"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PageEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PageEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelPagePrefix is the prefix for per-page channels
const EventChannelPagePrefix = "landing:events:"

// GetPageChannel returns the channel name for one landing page
func GetPageChannel(doctorID, quizType string) string {
	return EventChannelPagePrefix + doctorID + ":" + quizType
}
