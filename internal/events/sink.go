package events

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

// Sink publishes coordinator results on the bus. Publishing only enqueues,
// so the coordinator's worker never waits on a subscriber.
type Sink struct {
	bus *Bus
	now func() time.Time
}

var _ capture.EventSink = (*Sink)(nil)

// NewSink creates a sink that publishes to bus.
func NewSink(bus *Bus) *Sink {
	return &Sink{bus: bus, now: time.Now}
}

func (s *Sink) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Sink) OnError(err *capture.Error) {
	ev := CaptureErrorEvent{
		Kind:      string(err.Kind),
		Operation: err.Operation,
		Message:   err.Message,
		Timestamp: s.timestamp(),
	}
	if err.Cause != nil {
		ev.Error = err.Cause.Error()
	}
	s.bus.Publish(ev)
}

func (s *Sink) OnCameraWillSwitch(from capture.Position) {
	s.bus.Publish(CameraSwitchEvent{Phase: "will", Position: string(from), Timestamp: s.timestamp()})
}

func (s *Sink) OnCameraDidSwitch(to capture.Position) {
	s.bus.Publish(CameraSwitchEvent{Phase: "did", Position: string(to), Timestamp: s.timestamp()})
}

func (s *Sink) OnStillImage(img capture.Image) {
	s.bus.Publish(StillImageEvent{
		Format:      img.Format,
		Width:       img.Width,
		Height:      img.Height,
		Orientation: string(img.Orientation),
		ImageData:   base64.StdEncoding.EncodeToString(img.Data),
		Timestamp:   img.CapturedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Sink) OnRecordingStarted(path string) {
	s.bus.Publish(RecordingStartedEvent{Path: path, Timestamp: s.timestamp()})
}

func (s *Sink) OnRecordingProgress(path string, d time.Duration) {
	s.bus.Publish(RecordingProgressEvent{
		Path:            path,
		DurationSeconds: d.Seconds(),
		Elapsed:         FormatElapsed(d),
		Timestamp:       s.timestamp(),
	})
}

func (s *Sink) OnRecordingFinished(path string, d time.Duration, err error) {
	ev := RecordingFinishedEvent{
		Path:            path,
		DurationSeconds: d.Seconds(),
		Timestamp:       s.timestamp(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.bus.Publish(ev)
}

func (s *Sink) OnOrientationChanged(previous, current capture.Orientation) {
	s.bus.Publish(OrientationChangedEvent{
		Previous:  string(previous),
		Current:   string(current),
		Timestamp: s.timestamp(),
	})
}

func (s *Sink) OnStateChanged(state capture.State) {
	s.bus.Publish(SessionStateChangedEvent{State: state, Timestamp: s.timestamp()})
}

// FormatElapsed renders d as hh:mm:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
