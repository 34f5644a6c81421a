package capture

import (
	"fmt"
	"time"
)

// CaptureStillImage requests one still image in the current orientation.
// The image arrives through OnStillImage.
func (c *Coordinator) CaptureStillImage() {
	const op = "capture_still_image"
	c.submit(op, func() error {
		if c.videoInput == nil {
			return newError(KindStillImageCaptureFailed, op, "no active camera", ErrNoActiveDevice)
		}

		err := c.photo.CaptureStillImage(c.orientation, func(img Image, err error) {
			c.enqueue("still_image_delivered", func() error {
				if err != nil {
					return newError(KindStillImageCaptureFailed, op, "photo output failed", err)
				}
				c.logger.Debug("Still image captured", "format", img.Format, "bytes", len(img.Data))
				c.sink.OnStillImage(img)
				return nil
			})
		})
		if err != nil {
			return newError(KindStillImageCaptureFailed, op, "photo output refused request", err)
		}
		return nil
	})
}

// StartRecording begins writing a movie to a fresh path. Recording is only
// reported once the movie output confirms it. Does nothing while another
// recording is starting, active or stopping.
func (c *Coordinator) StartRecording() {
	const op = "start_recording"
	c.submit(op, func() error {
		if c.recording.phase != RecordingIdle {
			c.logger.Debug("Start recording ignored", "phase", c.recording.phase, "reason", ErrRecordingInProgress)
			return nil
		}
		if !c.running {
			return newError(KindRecordingStartFailed, op, "cannot record", ErrSessionNotRunning)
		}
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			return newError(KindRecordingStartFailed, op, "cannot record", ErrNoActiveDevice)
		}

		path, err := c.resolver.Resolve(time.Now())
		if err != nil {
			return newError(KindDirectoryResolutionFailed, op, "cannot resolve recording path", err)
		}

		if dev.Capabilities.SmoothAutoFocus {
			err := withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
				return applyError(op, "smooth autofocus", ctl.SetSmoothAutoFocus(true))
			})
			if err != nil {
				// Recording proceeds without smooth autofocus.
				c.report(op, err)
			}
		}

		c.recording.transition(RecordingStarting)
		c.recording.path = path
		c.recordingGen++

		delegate := &recordingDelegate{c: c, gen: c.recordingGen}
		if err := c.movie.StartRecording(path, c.orientation, delegate); err != nil {
			c.recording.reset()
			return newError(KindRecordingStartFailed, op, "movie output refused to start", err)
		}

		c.logger.Info("Recording requested", "path", path)
		return nil
	})
}

// StopRecording asks the movie output to finish the active recording.
// Completion arrives through OnRecordingFinished. Does nothing unless a
// recording is active.
func (c *Coordinator) StopRecording() {
	const op = "stop_recording"
	c.submit(op, func() error {
		if c.recording.phase != RecordingActive {
			c.logger.Debug("Stop recording ignored", "phase", c.recording.phase, "reason", ErrNotRecording)
			return nil
		}

		c.recording.transition(RecordingStopping)
		if err := c.movie.StopRecording(); err != nil {
			c.recording.transition(RecordingActive)
			return newError(KindRecordingStopFailed, op, "movie output refused to stop", err)
		}
		return nil
	})
}

// recordingDelegate forwards movie output confirmations onto the worker.
// gen ties them to the recording that asked for them.
type recordingDelegate struct {
	c   *Coordinator
	gen uint64
}

func (d *recordingDelegate) DidStartRecording(path string) {
	d.c.enqueue("recording_started", func() error {
		return d.c.confirmRecordingStarted(d.gen, path)
	})
}

func (d *recordingDelegate) DidFinishRecording(path string, duration time.Duration, err error) {
	d.c.enqueue("recording_finished", func() error {
		return d.c.confirmRecordingFinished(d.gen, path, duration, err)
	})
}

func (c *Coordinator) confirmRecordingStarted(gen uint64, path string) error {
	if gen != c.recordingGen || c.recording.phase != RecordingStarting {
		c.logger.Debug("Stale recording start ignored", "path", path)
		return nil
	}
	if !c.running {
		// The session stopped first; the finish confirmation follows.
		c.logger.Debug("Recording start confirmed after session stopped", "path", path)
		return nil
	}

	c.recording.transition(RecordingActive)
	c.recording.path = path
	c.recording.startedAt = time.Now()
	c.startProgress(gen)

	c.logger.Info("Recording started", "path", path)
	c.sink.OnRecordingStarted(path)
	return nil
}

func (c *Coordinator) confirmRecordingFinished(gen uint64, path string, duration time.Duration, err error) error {
	const op = "recording_finished"
	if gen != c.recordingGen {
		c.logger.Debug("Stale recording finish ignored", "path", path)
		return nil
	}

	switch c.recording.phase {
	case RecordingStarting:
		c.recording.reset()
		if err == nil {
			err = fmt.Errorf("movie output finished without starting")
		}
		return newError(KindRecordingStartFailed, op, "recording did not start", err)
	case RecordingActive, RecordingStopping:
		if measured := c.recording.duration(); duration <= 0 {
			duration = measured
		}
		c.recording.reset()
		if err != nil {
			c.logger.Warn("Recording finished with error", "path", path, "duration", duration, "error", err)
		} else {
			c.logger.Info("Recording finished", "path", path, "duration", duration)
		}
		c.sink.OnRecordingFinished(path, duration, err)
	default:
		c.logger.Debug("Recording finish while idle ignored", "path", path)
	}
	return nil
}

// startProgress schedules OnRecordingProgress reports for recording gen.
func (c *Coordinator) startProgress(gen uint64) {
	if c.progressInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	ticker := time.NewTicker(c.progressInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.enqueue("recording_progress", func() error {
					c.reportProgress(gen)
					return nil
				})
			}
		}
	}()

	var stopped bool
	c.recording.stopProgress = func() {
		if !stopped {
			stopped = true
			close(stop)
		}
	}
}

func (c *Coordinator) reportProgress(gen uint64) {
	if gen != c.recordingGen || c.recording.phase != RecordingActive {
		return
	}
	c.sink.OnRecordingProgress(c.recording.path, c.recording.duration())
}
