package capture

import "time"

// RecordingPhase is a step of the recording state machine:
// idle -> starting -> recording -> stopping -> idle.
type RecordingPhase string

// Recording phases.
const (
	RecordingIdle     RecordingPhase = "idle"
	RecordingStarting RecordingPhase = "starting"
	RecordingActive   RecordingPhase = "recording"
	RecordingStopping RecordingPhase = "stopping"
)

// validRecordingTransition enforces the recording state machine edges.
func validRecordingTransition(from, to RecordingPhase) bool {
	switch from {
	case RecordingIdle:
		return to == RecordingStarting
	case RecordingStarting:
		// idle: the output failed before confirming
		return to == RecordingActive || to == RecordingIdle
	case RecordingActive:
		// idle: the output finished on its own (disk full, session stopped)
		return to == RecordingStopping || to == RecordingIdle
	case RecordingStopping:
		// recording: the stop request was rejected
		return to == RecordingIdle || to == RecordingActive
	}
	return false
}

// State is a published, read-only snapshot of the session. The worker builds
// a fresh State after each task; readers never see a half-applied mutation.
type State struct {
	ActiveVideoDevice *Device        `json:"active_video_device,omitempty"`
	ActiveAudioDevice *Device        `json:"active_audio_device,omitempty"`
	Preset            Preset         `json:"preset"`
	Orientation       Orientation    `json:"orientation"`
	Running           bool           `json:"running"`
	Recording         RecordingPhase `json:"recording"`
	RecordingPath     string         `json:"recording_path,omitempty"`
	RecordingStarted  time.Time      `json:"recording_started,omitzero"`

	// Current modes of the active video device; zero when none is active.
	Modes Modes `json:"modes"`

	// PendingExposureLock is true while a momentary exposure lock waits for
	// the device to settle.
	PendingExposureLock bool `json:"pending_exposure_lock"`
}

// IsRecording reports whether the movie output has confirmed it is writing.
func (s State) IsRecording() bool {
	return s.Recording == RecordingActive
}

// VideoPosition returns the position of the active video device.
func (s State) VideoPosition() Position {
	if s.ActiveVideoDevice == nil {
		return PositionUnspecified
	}
	return s.ActiveVideoDevice.Position
}

// changedFrom reports whether fields a UI renders from have changed.
func (s State) changedFrom(prev State) bool {
	return s.Running != prev.Running ||
		s.Recording != prev.Recording ||
		s.Preset != prev.Preset ||
		s.Modes != prev.Modes ||
		s.PendingExposureLock != prev.PendingExposureLock ||
		deviceID(s.ActiveVideoDevice) != deviceID(prev.ActiveVideoDevice) ||
		deviceID(s.ActiveAudioDevice) != deviceID(prev.ActiveAudioDevice)
}

func deviceID(d *Device) string {
	if d == nil {
		return ""
	}
	return d.ID
}
