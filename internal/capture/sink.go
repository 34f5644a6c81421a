package capture

import "time"

// EventSink receives the coordinator's results. Methods are called on the
// coordinator's worker, in worker order; implementations hand events off to
// their own goroutine and must not block or call back into the coordinator
// synchronously.
type EventSink interface {
	OnError(err *Error)
	OnCameraWillSwitch(from Position)
	OnCameraDidSwitch(to Position)
	OnStillImage(img Image)
	OnRecordingStarted(path string)
	OnRecordingProgress(path string, duration time.Duration)
	OnRecordingFinished(path string, duration time.Duration, err error)
	OnOrientationChanged(previous, current Orientation)
	OnStateChanged(state State)
}

// NopSink ignores every event. Embed it to implement a subset of EventSink.
type NopSink struct{}

func (NopSink) OnError(*Error)                                   {}
func (NopSink) OnCameraWillSwitch(Position)                      {}
func (NopSink) OnCameraDidSwitch(Position)                       {}
func (NopSink) OnStillImage(Image)                               {}
func (NopSink) OnRecordingStarted(string)                        {}
func (NopSink) OnRecordingProgress(string, time.Duration)        {}
func (NopSink) OnRecordingFinished(string, time.Duration, error) {}
func (NopSink) OnOrientationChanged(Orientation, Orientation)    {}
func (NopSink) OnStateChanged(State)                             {}

var _ EventSink = NopSink{}
