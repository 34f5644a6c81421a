package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels
// This is needed for SSE integration where Huma expects a channel-based select loop.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if channel is full (non-blocking)
		}
	})
}

// SubscribeAllToChannel subscribes ch to every capture event type.
func SubscribeAllToChannel(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[CaptureErrorEvent](bus, ch),
		SubscribeToChannel[CameraSwitchEvent](bus, ch),
		SubscribeToChannel[StillImageEvent](bus, ch),
		SubscribeToChannel[RecordingStartedEvent](bus, ch),
		SubscribeToChannel[RecordingProgressEvent](bus, ch),
		SubscribeToChannel[RecordingFinishedEvent](bus, ch),
		SubscribeToChannel[OrientationChangedEvent](bus, ch),
		SubscribeToChannel[SessionStateChangedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
