package providers

import (
	"context"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel. The returned channel is
	// closed when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event scopes
const (
	// EventChannelQueueUpdates is the channel for all queue updates
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelUserPrefix is the prefix for user-specific channels
	EventChannelUserPrefix = "user:"

	// EventChannelHospitalPrefix is the prefix for hospital-specific channels
	EventChannelHospitalPrefix = "hospital:"
)

// GetUserChannel returns the channel name for a specific user
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}

// GetHospitalChannel returns the channel name for a specific hospital
func GetHospitalChannel(hospitalID string) string {
	return EventChannelHospitalPrefix + hospitalID
}
