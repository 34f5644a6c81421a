package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Each subscriber receives events on its own goroutine, in publish order.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(RecordingStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case CaptureErrorEvent:
		event.Publish(b.dispatcher, e)
	case CameraSwitchEvent:
		event.Publish(b.dispatcher, e)
	case StillImageEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStartedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingProgressEvent:
		event.Publish(b.dispatcher, e)
	case RecordingFinishedEvent:
		event.Publish(b.dispatcher, e)
	case OrientationChangedEvent:
		event.Publish(b.dispatcher, e)
	case SessionStateChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RecordingStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CaptureErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CameraSwitchEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StillImageEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OrientationChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// SubscribeAll delivers every event type to handler. Returns one function
// that removes all subscriptions.
func (b *Bus) SubscribeAll(handler func(Event)) func() {
	unsubs := []func(){
		event.Subscribe(b.dispatcher, func(e CaptureErrorEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e CameraSwitchEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e StillImageEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e RecordingStartedEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e RecordingProgressEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e RecordingFinishedEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e OrientationChangedEvent) { handler(e) }),
		event.Subscribe(b.dispatcher, func(e SessionStateChangedEvent) { handler(e) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
