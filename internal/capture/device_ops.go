package capture

import "errors"

// activeControl returns the active video device and its control.
func (c *Coordinator) activeControl(op string) (Device, DeviceControl, error) {
	if c.videoInput == nil || c.videoControl == nil {
		return Device{}, nil, newError(KindUnsupportedMode, op, "no active video device", ErrNoActiveDevice)
	}
	return c.videoInput.Device(), c.videoControl, nil
}

// checkPoint validates an optional point of interest.
func checkPoint(op string, p *Point, supported bool) error {
	if p == nil {
		return nil
	}
	if !p.Valid() {
		return newError(KindUnsupportedMode, op, "point "+p.String()+" is outside the unit square", ErrInvalidPoint)
	}
	if !supported {
		return newError(KindUnsupportedMode, op, "device has no point of interest", ErrPointNotSupported)
	}
	return nil
}

// SetFocusMode applies mode and, when p is non-nil, the focus point of
// interest. Nothing is touched if the device does not support both.
func (c *Coordinator) SetFocusMode(mode FocusMode, p *Point) {
	const op = "set_focus_mode"
	c.submit(op, func() error {
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			return err
		}
		if !dev.Capabilities.SupportsFocus(mode) {
			return unsupported(op, "focus mode %s not supported by %s", mode, dev.Name)
		}
		if err := checkPoint(op, p, dev.Capabilities.FocusPointOfInterest); err != nil {
			return err
		}

		err = withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
			if p != nil {
				if err := ctl.SetFocusPoint(*p); err != nil {
					return applyError(op, "focus point", err)
				}
			}
			return applyError(op, "focus mode", ctl.SetFocusMode(mode))
		})
		c.modes = ctl.Modes()
		return err
	})
}

// FocusAtPoint focuses once at p.
func (c *Coordinator) FocusAtPoint(p Point) {
	c.SetFocusMode(FocusAuto, &p)
}

// SetExposureMode applies mode and, when p is non-nil, the exposure point of
// interest. Locked with a point is a momentary lock: exposure runs
// continuously at p and locks once the device reports it has settled.
func (c *Coordinator) SetExposureMode(mode ExposureMode, p *Point) {
	const op = "set_exposure_mode"
	c.submit(op, func() error {
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			return err
		}
		if mode == ExposureLocked && p != nil {
			return c.exposeMomentarily(op, dev, ctl, *p)
		}
		if !dev.Capabilities.SupportsExposure(mode) {
			return unsupported(op, "exposure mode %s not supported by %s", mode, dev.Name)
		}
		if err := checkPoint(op, p, dev.Capabilities.ExposurePointOfInterest); err != nil {
			return err
		}

		c.cancelPendingExposure("exposure mode set")
		err = withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
			if p != nil {
				if err := ctl.SetExposurePoint(*p); err != nil {
					return applyError(op, "exposure point", err)
				}
			}
			return applyError(op, "exposure mode", ctl.SetExposureMode(mode))
		})
		c.modes = ctl.Modes()
		return err
	})
}

// ExposeAtPoint meters at p and locks exposure once it settles.
func (c *Coordinator) ExposeAtPoint(p Point) {
	c.SetExposureMode(ExposureLocked, &p)
}

func (c *Coordinator) exposeMomentarily(op string, dev Device, ctl DeviceControl, p Point) error {
	caps := dev.Capabilities
	if !caps.SupportsExposure(ExposureContinuousAutoExposure) {
		return unsupported(op, "continuous exposure not supported by %s", dev.Name)
	}
	if err := checkPoint(op, &p, caps.ExposurePointOfInterest); err != nil {
		return err
	}

	err := withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
		if err := ctl.SetExposurePoint(p); err != nil {
			return applyError(op, "exposure point", err)
		}
		return applyError(op, "exposure mode", ctl.SetExposureMode(ExposureContinuousAutoExposure))
	})
	c.modes = ctl.Modes()
	if err != nil {
		c.cancelPendingExposure("exposure point failed")
		return err
	}

	if caps.SupportsExposure(ExposureLocked) {
		c.installPendingExposure(dev, ctl)
	} else {
		c.cancelPendingExposure("lock not supported")
	}
	return nil
}

// SetFlashMode applies a flash mode.
func (c *Coordinator) SetFlashMode(mode FlashMode) {
	const op = "set_flash_mode"
	c.submit(op, func() error {
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			return err
		}
		if !dev.Capabilities.SupportsFlash(mode) {
			return unsupported(op, "flash mode %s not supported by %s", mode, dev.Name)
		}
		err = withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
			return applyError(op, "flash mode", ctl.SetFlashMode(mode))
		})
		c.modes = ctl.Modes()
		return err
	})
}

// SetTorchMode applies a torch mode.
func (c *Coordinator) SetTorchMode(mode TorchMode) {
	const op = "set_torch_mode"
	c.submit(op, func() error {
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			return err
		}
		if !dev.Capabilities.SupportsTorch(mode) {
			return unsupported(op, "torch mode %s not supported by %s", mode, dev.Name)
		}
		err = withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
			return applyError(op, "torch mode", ctl.SetTorchMode(mode))
		})
		c.modes = ctl.Modes()
		return err
	})
}

// ResetFocusAndExposure returns focus and exposure to continuous at the
// center of the frame. Each half is applied only where supported, and a
// failure of one half does not prevent the other.
func (c *Coordinator) ResetFocusAndExposure() {
	const op = "reset_focus_exposure"
	c.submit(op, func() error {
		dev, ctl, err := c.activeControl(op)
		if err != nil {
			c.logger.Debug("Reset skipped", "reason", err)
			return nil
		}

		caps := dev.Capabilities
		canFocus := caps.FocusPointOfInterest && caps.SupportsFocus(FocusContinuousAutoFocus)
		canExpose := caps.ExposurePointOfInterest && caps.SupportsExposure(ExposureContinuousAutoExposure)
		if !canFocus && !canExpose {
			return nil
		}
		if canExpose {
			c.cancelPendingExposure("reset")
		}

		err = withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
			var errs []error
			if canFocus {
				if err := ctl.SetFocusPoint(CenterPoint); err != nil {
					errs = append(errs, applyError(op, "focus point", err))
				} else if err := ctl.SetFocusMode(FocusContinuousAutoFocus); err != nil {
					errs = append(errs, applyError(op, "focus mode", err))
				}
			}
			if canExpose {
				if err := ctl.SetExposurePoint(CenterPoint); err != nil {
					errs = append(errs, applyError(op, "exposure point", err))
				} else if err := ctl.SetExposureMode(ExposureContinuousAutoExposure); err != nil {
					errs = append(errs, applyError(op, "exposure mode", err))
				}
			}
			if len(errs) == 0 {
				return nil
			}
			return newError(KindSessionError, op, "reset partially applied", errors.Join(errs...))
		})
		c.modes = ctl.Modes()
		return err
	})
}
