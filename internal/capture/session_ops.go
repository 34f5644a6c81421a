package capture

import (
	"errors"
	"fmt"
)

// prepareSession attaches the default inputs and applies the preset.
func (c *Coordinator) prepareSession() error {
	const op = "prepare_session"

	c.session = c.platform.Session()
	c.photo = c.platform.PhotoOutput()
	c.movie = c.platform.MovieOutput()

	c.session.BeginConfiguration()
	defer c.session.CommitConfiguration()

	var errs []error

	if video, ok := c.registry.Default(MediaVideo); ok {
		input, ctl, err := c.attach(video)
		if err != nil {
			errs = append(errs, fmt.Errorf("video input %s: %w", video.ID, err))
		} else {
			c.videoInput = input
			c.videoControl = ctl
			c.modes = ctl.Modes()
		}
	} else {
		c.logger.Warn("No video device available")
	}

	if audio, ok := c.registry.Default(MediaAudio); ok {
		input, _, err := c.attach(audio)
		if err != nil {
			errs = append(errs, fmt.Errorf("audio input %s: %w", audio.ID, err))
		} else {
			c.audioInput = input
		}
	}

	if err := c.session.SetPreset(c.preset); err != nil {
		errs = append(errs, fmt.Errorf("preset %s: %w", c.preset, err))
	}

	if len(errs) > 0 {
		return newError(KindSessionError, op, "session preparation incomplete", errors.Join(errs...))
	}

	c.logger.Info("Capture session prepared",
		"video", deviceID(inputDevice(c.videoInput)),
		"audio", deviceID(inputDevice(c.audioInput)),
		"preset", c.preset)
	return nil
}

// attach opens device and adds it to the session. Must run inside a
// configuration block.
func (c *Coordinator) attach(device Device) (Input, DeviceControl, error) {
	input, err := c.platform.NewInput(device)
	if err != nil {
		return nil, nil, err
	}
	var ctl DeviceControl
	if device.Kind == MediaVideo {
		if ctl, err = c.platform.Control(device.ID); err != nil {
			return nil, nil, err
		}
	}
	if !c.session.CanAddInput(input) {
		return nil, nil, ErrInputRejected
	}
	if err := c.session.AddInput(input); err != nil {
		return nil, nil, err
	}
	return input, ctl, nil
}

func inputDevice(in Input) *Device {
	if in == nil {
		return nil
	}
	d := in.Device()
	return &d
}

// StartSession starts the session. Does nothing when it is already running.
func (c *Coordinator) StartSession() {
	c.submit("start_session", func() error {
		if c.running {
			return nil
		}
		if err := c.session.StartRunning(); err != nil {
			return newError(KindSessionError, "", "failed to start session", err)
		}
		c.running = true
		c.logger.Info("Capture session started")
		return nil
	})
}

// StopSession stops the session. Does nothing when it is not running. An
// active recording moves to stopping; the movie output's finish confirmation
// completes it.
func (c *Coordinator) StopSession() {
	c.submit("stop_session", func() error {
		if !c.running {
			return nil
		}
		c.session.StopRunning()
		c.running = false
		if c.recording.phase == RecordingActive {
			c.recording.transition(RecordingStopping)
		}
		c.logger.Info("Capture session stopped")
		return nil
	})
}

// SwitchCamera swaps the active video input for the device at the opposite
// position. The swap happens inside one configuration block; if the new
// input cannot be attached the previous one is restored. Does nothing when
// fewer than two video devices exist.
func (c *Coordinator) SwitchCamera() {
	const op = "switch_camera"
	c.submit(op, func() error {
		if c.videoInput == nil {
			return newError(KindDeviceSwitchFailed, op, "no active camera", ErrNoActiveDevice)
		}
		current := c.videoInput.Device()
		other, ok := c.registry.OtherDevice(current)
		if !ok {
			c.logger.Debug("Camera switch skipped", "reason", ErrSingleVideoDevice)
			return nil
		}

		c.sink.OnCameraWillSwitch(current.Position)

		input, err := c.platform.NewInput(other)
		if err != nil {
			return newError(KindDeviceSwitchFailed, op, fmt.Sprintf("cannot open %s camera", other.Position), err)
		}
		ctl, err := c.platform.Control(other.ID)
		if err != nil {
			return newError(KindDeviceSwitchFailed, op, fmt.Sprintf("cannot control %s camera", other.Position), err)
		}

		c.cancelPendingExposure("camera switch")

		c.session.BeginConfiguration()
		c.session.RemoveInput(c.videoInput)

		var attachErr error
		if c.session.CanAddInput(input) {
			attachErr = c.session.AddInput(input)
		} else {
			attachErr = ErrInputRejected
		}
		if attachErr != nil {
			if err := c.session.AddInput(c.videoInput); err != nil {
				c.logger.Error("Failed to restore previous camera", "device", current.ID, "error", err)
			}
			c.session.CommitConfiguration()
			return newError(KindDeviceSwitchFailed, op, fmt.Sprintf("cannot attach %s camera", other.Position), attachErr)
		}
		c.session.CommitConfiguration()

		c.videoInput = input
		c.videoControl = ctl
		c.modes = ctl.Modes()

		c.logger.Info("Camera switched", "from", current.ID, "to", other.ID)
		c.sink.OnCameraDidSwitch(other.Position)
		return nil
	})
}

// SetPreset changes the session preset.
func (c *Coordinator) SetPreset(p Preset) {
	const op = "set_preset"
	c.submit(op, func() error {
		if _, err := ParsePreset(string(p)); err != nil {
			return unsupported(op, "unknown preset %q", p)
		}
		if c.preset == p {
			return nil
		}
		if c.session == nil {
			return newError(KindSessionError, op, "session not prepared", nil)
		}

		c.session.BeginConfiguration()
		err := c.session.SetPreset(p)
		c.session.CommitConfiguration()
		if err != nil {
			return newError(KindUnsupportedMode, op, fmt.Sprintf("session rejected preset %s", p), err)
		}

		c.preset = p
		return nil
	})
}

// SetOrientation records the orientation applied to new stills and
// recordings.
func (c *Coordinator) SetOrientation(o Orientation) {
	const op = "set_orientation"
	c.submit(op, func() error {
		if _, err := ParseOrientation(string(o)); err != nil {
			return unsupported(op, "unknown orientation %q", o)
		}
		if c.orientation == o {
			return nil
		}
		prev := c.orientation
		c.orientation = o
		c.sink.OnOrientationChanged(prev, o)
		return nil
	})
}
