package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/camnode/internal/events"
)

// registerSSERoutes registers the event stream. Each client gets the current
// session state first, then every capture event as it is published.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time capture results: errors, camera switches, still images, recording lifecycle, orientation and state changes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		events.Name(events.CaptureErrorEvent{}):        events.CaptureErrorEvent{},
		events.Name(events.CameraSwitchEvent{}):        events.CameraSwitchEvent{},
		events.Name(events.StillImageEvent{}):          events.StillImageEvent{},
		events.Name(events.RecordingStartedEvent{}):    events.RecordingStartedEvent{},
		events.Name(events.RecordingProgressEvent{}):   events.RecordingProgressEvent{},
		events.Name(events.RecordingFinishedEvent{}):   events.RecordingFinishedEvent{},
		events.Name(events.OrientationChangedEvent{}):  events.OrientationChangedEvent{},
		events.Name(events.SessionStateChangedEvent{}): events.SessionStateChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeAllToChannel(s.eventBus, eventCh)
		defer unsubscribe()

		if err := send.Data(events.SessionStateChangedEvent{
			State:     s.capture.State(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
