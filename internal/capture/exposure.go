package capture

// pendingExposureLock is a one-shot request to lock exposure once the device
// stops adjusting. At most one exists; a new request replaces the old one.
type pendingExposureLock struct {
	id       uint64
	deviceID string
	cancel   func()
	done     bool
}

// teardown removes the observation. Safe to call more than once.
func (p *pendingExposureLock) teardown() {
	if p.done {
		return
	}
	p.done = true
	if p.cancel != nil {
		p.cancel()
	}
}

// installPendingExposure observes ctl and locks exposure on the first
// notification that the device has settled.
func (c *Coordinator) installPendingExposure(device Device, ctl DeviceControl) {
	c.cancelPendingExposure("replaced")

	c.pendingSeq++
	id := c.pendingSeq
	p := &pendingExposureLock{id: id, deviceID: device.ID}

	// The observer only schedules work; the lock is applied on the worker.
	p.cancel = ctl.ObserveAdjustingExposure(func(adjusting bool) {
		if adjusting {
			return
		}
		c.enqueue("exposure_settled", func() error {
			return c.resolvePendingExposure(id)
		})
	})
	c.pending = p

	// Settled before the observation was in place; no change will follow.
	if !ctl.IsAdjustingExposure() {
		c.enqueue("exposure_settled", func() error {
			return c.resolvePendingExposure(id)
		})
		return
	}

	c.logger.Debug("Waiting for exposure to settle", "device", device.ID, "pending_id", id)
}

// resolvePendingExposure locks exposure if id still names the current
// pending request. Stale and repeated notifications are ignored.
func (c *Coordinator) resolvePendingExposure(id uint64) error {
	p := c.pending
	if p == nil || p.id != id {
		return nil
	}
	c.pending = nil
	p.teardown()

	if c.videoInput == nil || c.videoControl == nil || c.videoInput.Device().ID != p.deviceID {
		return nil
	}

	const op = "lock_exposure"
	ctl := c.videoControl
	err := withConfigurationLock(ctl, op, c.instr, func(ctl DeviceControl) error {
		return applyError(op, "exposure mode", ctl.SetExposureMode(ExposureLocked))
	})
	c.modes = ctl.Modes()
	if err != nil {
		return err
	}

	c.logger.Debug("Exposure locked after settling", "device", p.deviceID, "pending_id", id)
	return nil
}

// cancelPendingExposure drops an unconsumed pending lock.
func (c *Coordinator) cancelPendingExposure(reason string) {
	if c.pending == nil {
		return
	}
	c.logger.Debug("Cancelling pending exposure lock", "pending_id", c.pending.id, "reason", reason)
	c.pending.teardown()
	c.pending = nil
}
