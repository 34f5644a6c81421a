package events

import "github.com/smazurov/camnode/internal/capture"

// Event type constants for kelindar/event.
const (
	TypeCaptureError uint32 = iota + 1
	TypeCameraSwitch
	TypeStillImage
	TypeRecordingStarted
	TypeRecordingProgress
	TypeRecordingFinished
	TypeOrientationChanged
	TypeSessionStateChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CaptureErrorEvent is a failed capture operation.
type CaptureErrorEvent struct {
	Kind      string `json:"kind" example:"UNSUPPORTED_MODE" doc:"Error kind"`
	Operation string `json:"operation" example:"set_focus_mode" doc:"Operation that failed"`
	Message   string `json:"message" example:"focus mode auto not supported by Front Camera" doc:"Error message"`
	Error     string `json:"error,omitempty" doc:"Underlying cause"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Error timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// CameraSwitchEvent brackets a camera switch. Phase "will" carries the
// position being left, phase "did" the position switched to.
type CameraSwitchEvent struct {
	Phase     string `json:"phase" example:"did" enum:"will,did" doc:"Switch phase"`
	Position  string `json:"position" example:"front" doc:"Camera position"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CameraSwitchEvent.
func (e CameraSwitchEvent) Type() uint32 { return TypeCameraSwitch }

// StillImageEvent carries a captured still image.
type StillImageEvent struct {
	Format      string `json:"format" example:"jpeg" doc:"Image encoding"`
	Width       int    `json:"width" example:"1920" doc:"Width in pixels"`
	Height      int    `json:"height" example:"1080" doc:"Height in pixels"`
	Orientation string `json:"orientation" example:"landscape-right" doc:"Video orientation at capture"`
	ImageData   string `json:"image_data" doc:"Base64-encoded image"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Capture timestamp"`
}

// Type returns the event type identifier for StillImageEvent.
func (e StillImageEvent) Type() uint32 { return TypeStillImage }

// RecordingStartedEvent is published once the movie output confirms it is
// writing.
type RecordingStartedEvent struct {
	Path      string `json:"path" example:"/var/lib/camnode/recordings/20250127-103000.000.mov" doc:"Recording file"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStartedEvent.
func (e RecordingStartedEvent) Type() uint32 { return TypeRecordingStarted }

// RecordingProgressEvent reports elapsed recording time.
type RecordingProgressEvent struct {
	Path            string  `json:"path" doc:"Recording file"`
	DurationSeconds float64 `json:"duration_seconds" example:"12.5" doc:"Seconds recorded so far"`
	Elapsed         string  `json:"elapsed" example:"00:00:12" doc:"Elapsed time as hh:mm:ss"`
	Timestamp       string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingProgressEvent.
func (e RecordingProgressEvent) Type() uint32 { return TypeRecordingProgress }

// RecordingFinishedEvent is published when a recording has been finalized.
// The file is kept even when Error is set.
type RecordingFinishedEvent struct {
	Path            string  `json:"path" doc:"Recording file"`
	DurationSeconds float64 `json:"duration_seconds" example:"31.2" doc:"Recorded duration"`
	Error           string  `json:"error,omitempty" doc:"Why the recording ended early"`
	Timestamp       string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingFinishedEvent.
func (e RecordingFinishedEvent) Type() uint32 { return TypeRecordingFinished }

// OrientationChangedEvent reports a new video orientation.
type OrientationChangedEvent struct {
	Previous  string `json:"previous" example:"landscape-right" doc:"Previous orientation"`
	Current   string `json:"current" example:"portrait" doc:"Current orientation"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for OrientationChangedEvent.
func (e OrientationChangedEvent) Type() uint32 { return TypeOrientationChanged }

// SessionStateChangedEvent carries a new session snapshot.
type SessionStateChangedEvent struct {
	State     capture.State `json:"state" doc:"Session snapshot"`
	Timestamp string        `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// Name returns the wire name of an event, used for SSE event names and NATS
// subjects.
func Name(ev Event) string {
	switch ev.(type) {
	case CaptureErrorEvent:
		return "capture-error"
	case CameraSwitchEvent:
		return "camera-switch"
	case StillImageEvent:
		return "still-image"
	case RecordingStartedEvent:
		return "recording-started"
	case RecordingProgressEvent:
		return "recording-progress"
	case RecordingFinishedEvent:
		return "recording-finished"
	case OrientationChangedEvent:
		return "orientation-changed"
	case SessionStateChangedEvent:
		return "session-state-changed"
	}
	return "unknown"
}
