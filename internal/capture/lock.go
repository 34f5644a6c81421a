package capture

// LockEvent is a configuration lock transition reported to instrumentation.
type LockEvent string

// Lock events.
const (
	LockAcquired LockEvent = "acquired"
	LockReleased LockEvent = "released"
	LockFailed   LockEvent = "failed"
)

// withConfigurationLock runs fn between LockForConfiguration and
// UnlockForConfiguration. The unlock always fires once the lock was taken,
// including when fn returns an error or panics. When the lock cannot be
// taken, fn is not called and a ConfigurationLockFailed error is returned.
func withConfigurationLock(ctl DeviceControl, op string, instr Instrumentation, fn func(DeviceControl) error) error {
	if err := ctl.LockForConfiguration(); err != nil {
		instr.ConfigurationLock(LockFailed)
		return newError(KindConfigurationLockFailed, op, "cannot lock device for configuration", err)
	}
	instr.ConfigurationLock(LockAcquired)

	defer func() {
		ctl.UnlockForConfiguration()
		instr.ConfigurationLock(LockReleased)
	}()

	return fn(ctl)
}
