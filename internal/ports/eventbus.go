// Package ports define the EventBus interface for event-driven communication.
// The event bus is the notification channel between services and render adapters.
package ports

import (
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The event bus decouples event producers (services) from event consumers (render sinks, logging).
// Multiple subscribers can listen to the same event, and subscribers don't know about publishers.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In service: Publish an event
//	bus.Publish(domain.NewVolumeChangedEvent(0.5))
//
//	// In presenter: Subscribe to events
//	subID := bus.Subscribe(domain.EventVolumeChanged, func(event domain.Event) {
//	    e := event.(domain.VolumeChangedEvent)
//	    sink.OnVolumeChanged(e.Volume)
//	})
//
//	// Later: Unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers run synchronously in subscription order for synchronous implementations.
	//
	// Services never call Publish while holding their own locks, so handlers
	// may call back into services.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	// This is useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	// After calling Close, published events are dropped.
	Close() error
}

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler with a filter function.
	// The handler will only be called for events that pass the filter.
	//
	// Example: only handle progress once the duration is known
	//	bus.SubscribeFiltered(domain.EventTrackProgress, func(e domain.Event) bool {
	//	    return e.(domain.TrackProgressEvent).Duration > 0
	//	}, handleProgress)
	SubscribeFiltered(eventType domain.EventType, filter domain.EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
