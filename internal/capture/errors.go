package capture

import (
	"errors"
	"fmt"
)

// Kind classifies a failure reported through the event sink.
type Kind string

// Error kinds.
const (
	KindUnsupportedMode           Kind = "UNSUPPORTED_MODE"
	KindConfigurationLockFailed   Kind = "CONFIGURATION_LOCK_FAILED"
	KindDeviceSwitchFailed        Kind = "DEVICE_SWITCH_FAILED"
	KindStillImageCaptureFailed   Kind = "STILL_IMAGE_CAPTURE_FAILED"
	KindRecordingStartFailed      Kind = "RECORDING_START_FAILED"
	KindRecordingStopFailed       Kind = "RECORDING_STOP_FAILED"
	KindDirectoryResolutionFailed Kind = "DIRECTORY_RESOLUTION_FAILED"
	KindSessionError              Kind = "SESSION_ERROR"
)

// Sentinel causes.
var (
	ErrNoActiveDevice      = errors.New("no active video device")
	ErrSessionNotRunning   = errors.New("session not running")
	ErrCoordinatorClosed   = errors.New("coordinator closed")
	ErrInvalidPoint        = errors.New("point of interest outside the unit square")
	ErrPointNotSupported   = errors.New("point of interest not supported")
	ErrSingleVideoDevice   = errors.New("no other video device to switch to")
	ErrInputRejected       = errors.New("session rejected input")
	ErrNotRecording        = errors.New("not recording")
	ErrRecordingInProgress = errors.New("recording already in progress")
)

// Error is a failure delivered as data through the event sink.
type Error struct {
	Kind      Kind
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &capture.Error{Kind: capture.KindUnsupportedMode}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Operation: op,
		Message:   message,
		Cause:     cause,
	}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func unsupported(op, format string, args ...any) *Error {
	return newError(KindUnsupportedMode, op, fmt.Sprintf(format, args...), nil)
}
