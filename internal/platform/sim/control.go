package sim

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

// Control is a simulated camera. Setters fail unless the device is locked
// for configuration. Changing the exposure mode or point starts an
// adjustment that settles after the profile's adjust delay.
type Control struct {
	device      capture.Device
	adjustDelay time.Duration
	failLock    bool
	logger      *slog.Logger

	mu          sync.Mutex
	locked      bool
	modes       capture.Modes
	focusPoint  capture.Point
	exposePoint capture.Point
	smoothAF    bool
	adjusting   bool
	settle      *time.Timer
	observers   map[int]func(bool)
	nextID      int
}

func newControl(d capture.Device, adjustDelay time.Duration, failLock bool, logger *slog.Logger) *Control {
	c := &Control{
		device:      d,
		adjustDelay: adjustDelay,
		failLock:    failLock,
		logger:      logger.With("device", d.ID),
		focusPoint:  capture.CenterPoint,
		exposePoint: capture.CenterPoint,
		observers:   make(map[int]func(bool)),
	}
	caps := d.Capabilities
	c.modes.Focus = firstOf(caps.FocusModes, capture.FocusContinuousAutoFocus, capture.FocusAuto, capture.FocusLocked)
	c.modes.Exposure = firstOf(caps.ExposureModes, capture.ExposureContinuousAutoExposure, capture.ExposureAuto, capture.ExposureLocked)
	c.modes.Flash = firstOf(caps.FlashModes, capture.FlashOff)
	c.modes.Torch = firstOf(caps.TorchModes, capture.TorchOff)
	return c
}

// firstOf returns the first preferred mode the device supports, or "".
func firstOf[T comparable](supported []T, preferred ...T) T {
	for _, p := range preferred {
		for _, s := range supported {
			if s == p {
				return p
			}
		}
	}
	var zero T
	return zero
}

func (c *Control) LockForConfiguration() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failLock {
		return fmt.Errorf("%w: %s", ErrDeviceBusy, c.device.ID)
	}
	if c.locked {
		return fmt.Errorf("%w: %s already locked", ErrDeviceBusy, c.device.ID)
	}
	c.locked = true
	return nil
}

func (c *Control) UnlockForConfiguration() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// checkLocked must be called with mu held.
func (c *Control) checkLocked() error {
	if !c.locked {
		return fmt.Errorf("%w: %s", ErrNotLocked, c.device.ID)
	}
	return nil
}

func (c *Control) SetFocusMode(mode capture.FocusMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.SupportsFocus(mode) {
		return fmt.Errorf("%w: focus %s", ErrUnsupported, mode)
	}
	c.modes.Focus = mode
	return nil
}

func (c *Control) SetFocusPoint(p capture.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.FocusPointOfInterest {
		return fmt.Errorf("%w: focus point of interest", ErrUnsupported)
	}
	c.focusPoint = p
	return nil
}

func (c *Control) SetExposureMode(mode capture.ExposureMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.SupportsExposure(mode) {
		return fmt.Errorf("%w: exposure %s", ErrUnsupported, mode)
	}
	c.modes.Exposure = mode
	if mode == capture.ExposureLocked {
		c.stopAdjustingLocked()
	} else {
		c.startAdjustingLocked()
	}
	return nil
}

func (c *Control) SetExposurePoint(p capture.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.ExposurePointOfInterest {
		return fmt.Errorf("%w: exposure point of interest", ErrUnsupported)
	}
	c.exposePoint = p
	if c.modes.Exposure != capture.ExposureLocked {
		c.startAdjustingLocked()
	}
	return nil
}

func (c *Control) SetFlashMode(mode capture.FlashMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.SupportsFlash(mode) {
		return fmt.Errorf("%w: flash %s", ErrUnsupported, mode)
	}
	c.modes.Flash = mode
	return nil
}

func (c *Control) SetTorchMode(mode capture.TorchMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.SupportsTorch(mode) {
		return fmt.Errorf("%w: torch %s", ErrUnsupported, mode)
	}
	c.modes.Torch = mode
	return nil
}

func (c *Control) SetSmoothAutoFocus(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(); err != nil {
		return err
	}
	if !c.device.Capabilities.SmoothAutoFocus {
		return fmt.Errorf("%w: smooth autofocus", ErrUnsupported)
	}
	c.smoothAF = enabled
	return nil
}

func (c *Control) Modes() capture.Modes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modes
}

func (c *Control) IsAdjustingExposure() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adjusting
}

// Points returns the current focus and exposure points of interest.
func (c *Control) Points() (focus, exposure capture.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusPoint, c.exposePoint
}

// SmoothAutoFocus reports whether smooth autofocus is enabled.
func (c *Control) SmoothAutoFocus() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.smoothAF
}

// ObserveAdjustingExposure registers fn for adjusting-exposure changes.
// fn runs on its own goroutine.
func (c *Control) ObserveAdjustingExposure(fn func(bool)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Observers returns the number of registered observations.
func (c *Control) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// startAdjustingLocked must be called with mu held.
func (c *Control) startAdjustingLocked() {
	if c.settle != nil {
		c.settle.Stop()
	}
	if !c.adjusting {
		c.adjusting = true
		c.notifyLocked(true)
	}
	c.settle = time.AfterFunc(c.adjustDelay, c.settled)
}

// stopAdjustingLocked must be called with mu held.
func (c *Control) stopAdjustingLocked() {
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	if c.adjusting {
		c.adjusting = false
		c.notifyLocked(false)
	}
}

func (c *Control) settled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle = nil
	if !c.adjusting {
		return
	}
	c.adjusting = false
	c.logger.Debug("Exposure settled", "point", c.exposePoint)
	c.notifyLocked(false)
}

// notifyLocked must be called with mu held. Observers are called on a new
// goroutine so they never run under the device lock.
func (c *Control) notifyLocked(adjusting bool) {
	for _, fn := range c.observers {
		go fn(adjusting)
	}
}
