package capture

import "time"

// Platform is the boundary to the host's capture services.
type Platform interface {
	DeviceSource

	// Control returns the live handle of a device.
	Control(deviceID string) (DeviceControl, error)

	// NewInput wraps a device as a session input. It fails when the device
	// cannot be opened.
	NewInput(device Device) (Input, error)

	Session() Session
	PhotoOutput() PhotoOutput
	MovieOutput() MovieOutput
}

// Input is a device attached, or attachable, to a session.
type Input interface {
	Device() Device
}

// Session is the platform capture session that inputs and outputs hang off.
// Calls are only made from the coordinator's worker.
type Session interface {
	BeginConfiguration()
	CommitConfiguration()
	CanAddInput(in Input) bool
	AddInput(in Input) error
	RemoveInput(in Input)
	SetPreset(preset Preset) error
	StartRunning() error
	StopRunning()
}

// DeviceControl mutates a live device. Setters must only be called between
// LockForConfiguration and UnlockForConfiguration.
type DeviceControl interface {
	LockForConfiguration() error
	UnlockForConfiguration()

	SetFocusMode(mode FocusMode) error
	SetFocusPoint(p Point) error
	SetExposureMode(mode ExposureMode) error
	SetExposurePoint(p Point) error
	SetFlashMode(mode FlashMode) error
	SetTorchMode(mode TorchMode) error
	SetSmoothAutoFocus(enabled bool) error

	// Modes returns the current settings of the device.
	Modes() Modes

	IsAdjustingExposure() bool

	// ObserveAdjustingExposure registers fn for changes of the
	// adjusting-exposure flag. fn may be called on any goroutine. The
	// returned cancel func removes the observation and is safe to call once.
	ObserveAdjustingExposure(fn func(adjusting bool)) (cancel func())
}

// Image is one still image produced by the photo output.
type Image struct {
	Data        []byte      `json:"-"`
	Format      string      `json:"format"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Orientation Orientation `json:"orientation"`
	CapturedAt  time.Time   `json:"captured_at"`
}

// PhotoOutput captures still images.
type PhotoOutput interface {
	// CaptureStillImage requests one image. done is called exactly once, on
	// any goroutine, unless an error is returned.
	CaptureStillImage(orientation Orientation, done func(Image, error)) error
}

// RecordingDelegate receives movie output confirmations on any goroutine.
type RecordingDelegate interface {
	DidStartRecording(path string)
	DidFinishRecording(path string, duration time.Duration, err error)
}

// MovieOutput writes movies to files.
type MovieOutput interface {
	StartRecording(path string, orientation Orientation, delegate RecordingDelegate) error
	StopRecording() error
}
