// Package sim is a software capture platform. It behaves like camera
// hardware as far as the coordinator can tell: devices need a configuration
// lock, exposure takes time to settle, stills are real JPEGs and recordings
// are real files.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

// Errors returned by simulated hardware.
var (
	ErrUnknownDevice  = errors.New("unknown device")
	ErrNotLocked      = errors.New("device not locked for configuration")
	ErrUnsupported    = errors.New("mode not supported by device")
	ErrDeviceBusy     = errors.New("device busy")
	ErrSessionStopped = errors.New("session stopped")
	ErrNotRunning     = errors.New("session not running")
	ErrAlreadyWriting = errors.New("movie output already recording")
	ErrNotWriting     = errors.New("movie output not recording")
	ErrSensorTimeout  = errors.New("sensor timeout")
)

// Platform implements capture.Platform in memory.
type Platform struct {
	profile  Profile
	devices  []capture.Device
	controls map[string]*Control
	session  *Session
	photo    *PhotoOutput
	movie    *MovieOutput
	logger   *slog.Logger
}

var _ capture.Platform = (*Platform)(nil)

// New builds a platform from profile. If logger is nil, slog.Default() is used.
func New(profile Profile, logger *slog.Logger) (*Platform, error) {
	if logger == nil {
		logger = slog.Default()
	}

	devices, err := profile.devices()
	if err != nil {
		return nil, fmt.Errorf("invalid device profile: %w", err)
	}
	delay, err := profile.adjustDelay()
	if err != nil {
		return nil, err
	}
	fps := profile.FrameRate
	if fps <= 0 {
		fps = defaultFrameRate
	}

	p := &Platform{
		profile:  profile,
		devices:  devices,
		controls: make(map[string]*Control),
		logger:   logger,
	}
	for _, d := range devices {
		if d.Kind != capture.MediaVideo {
			continue
		}
		p.controls[d.ID] = newControl(d, delay, slices.Contains(profile.Fail.LockFailures, d.ID), logger)
	}

	p.session = newSession(profile.Fail.RejectInputs, logger)
	p.photo = &PhotoOutput{session: p.session, fail: profile.Fail.StillFailure, logger: logger}
	p.movie = &MovieOutput{
		session:       p.session,
		frameInterval: time.Second / time.Duration(fps),
		failStart:     profile.Fail.RecordFailure,
		logger:        logger,
	}
	p.session.movie = p.movie

	logger.Info("Simulated capture platform ready", "devices", len(devices), "adjust_delay", delay)
	return p, nil
}

// Devices returns the devices of kind in profile order.
func (p *Platform) Devices(kind capture.MediaKind) []capture.Device {
	var out []capture.Device
	for _, d := range p.devices {
		if d.Kind == kind {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Control returns the live handle of a video device.
func (p *Platform) Control(deviceID string) (capture.DeviceControl, error) {
	c, ok := p.controls[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return c, nil
}

// NewInput opens device as a session input.
func (p *Platform) NewInput(device capture.Device) (capture.Input, error) {
	if !slices.ContainsFunc(p.devices, func(d capture.Device) bool { return d.ID == device.ID }) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, device.ID)
	}
	if slices.Contains(p.profile.Fail.OpenFailures, device.ID) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, device.ID)
	}
	return &input{device: device.Clone()}, nil
}

func (p *Platform) Session() capture.Session         { return p.session }
func (p *Platform) PhotoOutput() capture.PhotoOutput { return p.photo }
func (p *Platform) MovieOutput() capture.MovieOutput { return p.movie }

// SimControl returns the concrete control of a device, for driving the
// simulation directly.
func (p *Platform) SimControl(deviceID string) (*Control, bool) {
	c, ok := p.controls[deviceID]
	return c, ok
}

type input struct {
	device capture.Device
}

func (i *input) Device() capture.Device { return i.device }
