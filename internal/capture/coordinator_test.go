package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, p *fakePlatform, opts ...Option) (*Coordinator, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPathResolver(DirResolver{Dir: t.TempDir()}),
		WithProgressInterval(0),
	}, opts...)

	c, err := New(p, sink, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	flush(t, c)
	return c, sink
}

func flush(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Flush(ctx))
}

func TestNewRequiresPlatform(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestPrepareAttachesDefaultInputs(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p, WithPreset(Preset1280x720))

	assert.Equal(t, []string{"begin", "add:back", "add:mic", "preset:1280x720", "commit"}, p.log.all())

	s := c.State()
	require.NotNil(t, s.ActiveVideoDevice)
	require.NotNil(t, s.ActiveAudioDevice)
	assert.Equal(t, "back", s.ActiveVideoDevice.ID)
	assert.Equal(t, "mic", s.ActiveAudioDevice.ID)
	assert.Equal(t, Preset1280x720, s.Preset)
	assert.False(t, s.Running)
	assert.Equal(t, RecordingIdle, s.Recording)
	assert.Equal(t, FocusContinuousAutoFocus, s.Modes.Focus)
	assert.NotEmpty(t, c.ID())
}

func TestPrepareReportsInputFailure(t *testing.T) {
	p := newFakePlatform()
	p.inputErr["mic"] = errors.New("microphone busy")
	c, sink := newTestCoordinator(t, p)

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindSessionError, errs[0].Kind)
	assert.Equal(t, "prepare_session", errs[0].Operation)
	assert.Nil(t, c.State().ActiveAudioDevice)
	assert.NotNil(t, c.State().ActiveVideoDevice)
}

func TestStartSessionIsIdempotent(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartSession()
	flush(t, c)

	assert.Equal(t, 1, p.session.starts)
	assert.True(t, c.IsRunning())

	c.StopSession()
	c.StopSession()
	flush(t, c)

	assert.Equal(t, 1, p.session.stops)
	assert.False(t, c.IsRunning())
	assert.Empty(t, sink.errors())
}

func TestStartSessionFailure(t *testing.T) {
	p := newFakePlatform()
	p.session.startErr = errors.New("camera in use")
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	flush(t, c)

	assert.False(t, c.IsRunning())
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindSessionError, errs[0].Kind)
}

func TestOperationsApplyInSubmissionOrder(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p)
	p.log.reset()

	c.SetFlashMode(FlashOn)
	c.SetTorchMode(TorchOn)
	c.SetFocusMode(FocusLocked, nil)
	c.SetExposureMode(ExposureAuto, nil)
	flush(t, c)

	assert.Equal(t, []string{
		"lock:back", "flash_mode:back:on", "unlock:back",
		"lock:back", "torch_mode:back:on", "unlock:back",
		"lock:back", "focus_mode:back:locked", "unlock:back",
		"lock:back", "exposure_mode:back:auto", "unlock:back",
	}, p.log.all())

	modes := c.State().Modes
	assert.Equal(t, Modes{Focus: FocusLocked, Exposure: ExposureAuto, Flash: FlashOn, Torch: TorchOn}, modes)
}

func TestConcurrentCallersAreSerialized(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.SetTorchMode(TorchOn)
			} else {
				c.SetTorchMode(TorchOff)
			}
		}(i)
	}
	wg.Wait()
	flush(t, c)

	// The fake panics if a setter runs outside a lock, so balanced
	// lock/unlock pairs with no errors means no interleaving.
	locks, unlocks := p.controls["back"].lockBalance()
	assert.Equal(t, 20, locks)
	assert.Equal(t, 20, unlocks)
	assert.Empty(t, sink.errors())

	entries := p.log.all()
	for i := 0; i+2 < len(entries); i += 3 {
		assert.Equal(t, "lock:back", entries[i])
		assert.Equal(t, "unlock:back", entries[i+2])
	}
}

func TestUnsupportedModeLeavesDeviceUntouched(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.SwitchCamera()
	flush(t, c)
	require.Equal(t, "front", c.State().ActiveVideoDevice.ID)
	p.log.reset()
	sink.reset()

	c.SetFocusMode(FocusAuto, nil)
	c.SetFlashMode(FlashOn)
	c.SetTorchMode(TorchAuto)
	c.SetExposureMode(ExposureLocked, nil)
	flush(t, c)

	assert.Empty(t, p.log.all())
	errs := sink.errors()
	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.Equal(t, KindUnsupportedMode, err.Kind)
		assert.True(t, errors.Is(err, &Error{Kind: KindUnsupportedMode}))
	}
	assert.Equal(t, FocusContinuousAutoFocus, c.State().Modes.Focus)
}

func TestPointOfInterestValidation(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SetFocusMode(FocusAuto, &Point{X: 1.5, Y: 0.5})
	flush(t, c)

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindUnsupportedMode, errs[0].Kind)
	assert.ErrorIs(t, errs[0], ErrInvalidPoint)
	assert.Empty(t, p.log.all())

	c.FocusAtPoint(Point{X: 0.25, Y: 0.75})
	flush(t, c)
	assert.Equal(t, []string{
		"lock:back", "focus_point:back:(0.250,0.750)", "focus_mode:back:auto", "unlock:back",
	}, p.log.all())
}

func TestConfigurationLockReleasedOnFailure(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	ctl := p.controls["back"]
	ctl.failSet["torch_mode"] = errors.New("torch overheated")

	c.SetTorchMode(TorchOn)
	flush(t, c)

	locks, unlocks := ctl.lockBalance()
	assert.Equal(t, 1, locks)
	assert.Equal(t, 1, unlocks)

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindSessionError, errs[0].Kind)
	assert.Equal(t, TorchOff, c.State().Modes.Torch)
}

func TestConfigurationLockReleasedOnPanic(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	ctl := p.controls["back"]
	ctl.panicOn = "flash_mode"

	c.SetFlashMode(FlashOn)
	c.SetTorchMode(TorchOn)
	flush(t, c)

	locks, unlocks := ctl.lockBalance()
	assert.Equal(t, 2, locks)
	assert.Equal(t, 2, unlocks)

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindSessionError, errs[0].Kind)
	assert.Equal(t, TorchOn, c.State().Modes.Torch)
}

func TestConfigurationLockFailure(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	ctl := p.controls["back"]
	ctl.lockErr = errors.New("device busy")
	p.log.reset()

	c.SetFocusMode(FocusLocked, nil)
	flush(t, c)

	assert.Equal(t, []string{"lock_failed:back"}, p.log.all())
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindConfigurationLockFailed, errs[0].Kind)
	_, unlocks := ctl.lockBalance()
	assert.Zero(t, unlocks)
}

func TestSwitchCamera(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SwitchCamera()
	flush(t, c)

	assert.Equal(t, []string{"will_switch:back", "did_switch:front"}, sink.eventList())
	assert.Equal(t, []string{"begin", "remove:back", "add:front", "commit"}, p.log.all())
	assert.Equal(t, PositionFront, c.State().VideoPosition())
	assert.ElementsMatch(t, []string{"front", "mic"}, p.session.attached())

	c.SwitchCamera()
	flush(t, c)
	assert.Equal(t, PositionBack, c.State().VideoPosition())
}

func TestSwitchCameraRestoresPreviousInput(t *testing.T) {
	p := newFakePlatform()
	p.session.reject["front"] = true
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SwitchCamera()
	flush(t, c)

	assert.Equal(t, []string{"begin", "remove:back", "add:back", "commit"}, p.log.all())
	assert.Equal(t, "back", c.State().ActiveVideoDevice.ID)
	assert.ElementsMatch(t, []string{"back", "mic"}, p.session.attached())

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindDeviceSwitchFailed, errs[0].Kind)
	assert.ErrorIs(t, errs[0], ErrInputRejected)
}

func TestSwitchCameraOpenFailure(t *testing.T) {
	p := newFakePlatform()
	p.inputErr["front"] = errors.New("front camera unavailable")
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SwitchCamera()
	flush(t, c)

	assert.Empty(t, p.log.all())
	assert.Equal(t, "back", c.State().ActiveVideoDevice.ID)
	require.Len(t, sink.errors(), 1)
	assert.Equal(t, KindDeviceSwitchFailed, sink.errors()[0].Kind)
}

func TestSwitchCameraWithSingleDevice(t *testing.T) {
	p := newFakePlatform(backCamera, microphone)
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SwitchCamera()
	flush(t, c)

	assert.Empty(t, p.log.all())
	assert.Empty(t, sink.eventList())
	assert.Equal(t, "back", c.State().ActiveVideoDevice.ID)
}

func TestRecordingLifecycle(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)

	s := c.State()
	assert.Equal(t, RecordingStarting, s.Recording)
	assert.False(t, c.IsRecording())
	assert.Zero(t, c.RecordedDuration())
	require.NotEmpty(t, s.RecordingPath)
	assert.Equal(t, ".mov", filepath.Ext(s.RecordingPath))
	assert.Contains(t, p.log.all(), "smooth_af:back:true")

	p.movie.confirmStart()
	flush(t, c)

	assert.True(t, c.IsRecording())
	assert.Equal(t, 1, sink.count("recording_started"))
	time.Sleep(5 * time.Millisecond)
	assert.Positive(t, c.RecordedDuration())

	c.StopRecording()
	flush(t, c)
	assert.Equal(t, RecordingStopping, c.State().Recording)
	assert.False(t, c.IsRecording())
	assert.Equal(t, 1, p.movie.stops)

	p.movie.finish(nil)
	flush(t, c)

	assert.Equal(t, RecordingIdle, c.State().Recording)
	assert.Empty(t, c.State().RecordingPath)
	assert.Equal(t, 1, sink.count("recording_finished"))
	assert.Equal(t, []error{nil}, sink.finished)
	assert.Empty(t, sink.errors())
}

func TestStartRecordingRequiresRunningSession(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartRecording()
	flush(t, c)

	assert.Zero(t, p.movie.starts)
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindRecordingStartFailed, errs[0].Kind)
	assert.ErrorIs(t, errs[0], ErrSessionNotRunning)
}

func TestStartRecordingWhileRecordingIsIgnored(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	c.StartRecording()
	flush(t, c)
	p.movie.confirmStart()
	c.StartRecording()
	flush(t, c)

	assert.Equal(t, 1, p.movie.starts)
	assert.True(t, c.IsRecording())
	assert.Empty(t, sink.errors())
}

func TestStopRecordingWhenIdleIsIgnored(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StopRecording()
	flush(t, c)

	assert.Zero(t, p.movie.stops)
	assert.Empty(t, sink.errors())
}

func TestRecordingStartRefused(t *testing.T) {
	p := newFakePlatform()
	p.movie.startErr = errors.New("encoder unavailable")
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)

	assert.Equal(t, RecordingIdle, c.State().Recording)
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindRecordingStartFailed, errs[0].Kind)
}

func TestRecordingFinishedBeforeStart(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)
	p.movie.finish(errors.New("disk full"))
	flush(t, c)

	assert.Equal(t, RecordingIdle, c.State().Recording)
	assert.Zero(t, sink.count("recording_finished"))
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindRecordingStartFailed, errs[0].Kind)

	// A late start confirmation for the failed recording is ignored.
	p.movie.confirmStart()
	flush(t, c)
	assert.False(t, c.IsRecording())
}

func TestRecordingStopRefused(t *testing.T) {
	p := newFakePlatform()
	p.movie.stopErr = errors.New("writer stuck")
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)
	p.movie.confirmStart()
	c.StopRecording()
	flush(t, c)

	assert.True(t, c.IsRecording())
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindRecordingStopFailed, errs[0].Kind)
}

func TestStopSessionWhileRecording(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)
	p.movie.confirmStart()
	c.StopSession()
	flush(t, c)

	s := c.State()
	assert.False(t, s.Running)
	assert.False(t, s.IsRecording())
	assert.Equal(t, RecordingStopping, s.Recording)

	p.movie.finish(errors.New("session stopped"))
	flush(t, c)

	assert.Equal(t, RecordingIdle, c.State().Recording)
	require.Len(t, sink.finished, 1)
	assert.EqualError(t, sink.finished[0], "session stopped")
}

func TestRecordingNeverOutlivesSession(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.StartSession()
	c.StartRecording()
	flush(t, c)
	p.movie.confirmStart()
	c.StopSession()
	flush(t, c)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, s := range sink.states {
		if s.IsRecording() {
			assert.True(t, s.Running, "recording state published without a running session")
		}
	}
}

func TestDirectoryResolutionFailure(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p, WithPathResolver(failingResolver{}))

	c.StartSession()
	c.StartRecording()
	flush(t, c)

	assert.Zero(t, p.movie.starts)
	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindDirectoryResolutionFailed, errs[0].Kind)
}

type failingResolver struct{}

func (failingResolver) Resolve(time.Time) (string, error) {
	return "", errors.New("no documents directory")
}

func TestRecordingProgress(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p, WithProgressInterval(5*time.Millisecond))

	c.StartSession()
	c.StartRecording()
	flush(t, c)
	p.movie.confirmStart()

	assert.Eventually(t, func() bool {
		return sink.count("recording_progress") >= 2
	}, time.Second, 5*time.Millisecond)

	c.StopRecording()
	flush(t, c)
	p.movie.finish(nil)
	flush(t, c)

	n := sink.count("recording_progress")
	time.Sleep(30 * time.Millisecond)
	flush(t, c)
	assert.Equal(t, n, sink.count("recording_progress"))
}

func TestMomentaryExposureLockFiresOnce(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	ctl := p.controls["back"]
	p.log.reset()

	c.ExposeAtPoint(Point{X: 0.2, Y: 0.3})
	flush(t, c)

	assert.Equal(t, []string{
		"lock:back", "exposure_point:back:(0.200,0.300)", "exposure_mode:back:continuous", "unlock:back",
	}, p.log.all())
	assert.True(t, c.State().PendingExposureLock)
	assert.Equal(t, 1, ctl.observerCount())

	ctl.emitAdjusting(true)
	flush(t, c)
	assert.Empty(t, p.log.withPrefix("exposure_mode:back:locked"))

	ctl.emitAdjusting(false)
	ctl.emitAdjusting(false)
	flush(t, c)

	assert.Len(t, p.log.withPrefix("exposure_mode:back:locked"), 1)
	assert.Zero(t, ctl.observerCount())
	assert.False(t, c.State().PendingExposureLock)
	assert.Equal(t, ExposureLocked, c.State().Modes.Exposure)
	assert.Empty(t, sink.errors())
}

func TestMomentaryExposureLockAlreadySettled(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p)
	ctl := p.controls["back"]
	ctl.mu.Lock()
	ctl.settled = true
	ctl.mu.Unlock()

	c.ExposeAtPoint(Point{X: 0.4, Y: 0.6})
	flush(t, c)
	flush(t, c)

	assert.Len(t, p.log.withPrefix("exposure_mode:back:locked"), 1)
	assert.Zero(t, ctl.observerCount())
	assert.False(t, c.State().PendingExposureLock)
}

func TestMomentaryExposureLockReplaced(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p)
	ctl := p.controls["back"]

	c.ExposeAtPoint(Point{X: 0.1, Y: 0.1})
	c.ExposeAtPoint(Point{X: 0.9, Y: 0.9})
	flush(t, c)

	assert.Equal(t, 1, ctl.observerCount())

	ctl.emitAdjusting(false)
	flush(t, c)
	assert.Len(t, p.log.withPrefix("exposure_mode:back:locked"), 1)
}

func TestMomentaryExposureLockCancelledBySwitch(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p)
	ctl := p.controls["back"]

	c.ExposeAtPoint(Point{X: 0.5, Y: 0.5})
	c.SwitchCamera()
	flush(t, c)

	assert.Zero(t, ctl.observerCount())
	assert.False(t, c.State().PendingExposureLock)
}

func TestCloseCancelsPendingExposureLock(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	ctl := p.controls["back"]

	c.ExposeAtPoint(Point{X: 0.5, Y: 0.5})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Close(ctx))

	assert.Zero(t, ctl.observerCount())

	// Operations after close are dropped without panicking.
	c.SetTorchMode(TorchOn)
	ctl.emitAdjusting(false)
	assert.Empty(t, p.log.withPrefix("torch_mode"))
	assert.Empty(t, sink.errors())
	require.NoError(t, c.Close(ctx))
}

func TestResetFocusAndExposure(t *testing.T) {
	p := newFakePlatform()
	c, _ := newTestCoordinator(t, p)
	c.SetFocusMode(FocusLocked, nil)
	flush(t, c)
	p.log.reset()

	c.ResetFocusAndExposure()
	flush(t, c)

	assert.Equal(t, []string{
		"lock:back",
		"focus_point:back:(0.500,0.500)", "focus_mode:back:continuous",
		"exposure_point:back:(0.500,0.500)", "exposure_mode:back:continuous",
		"unlock:back",
	}, p.log.all())
	assert.Equal(t, FocusContinuousAutoFocus, c.State().Modes.Focus)
}

func TestResetFocusAndExposureWithoutPointSupport(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	c.SwitchCamera()
	flush(t, c)
	p.log.reset()

	c.ResetFocusAndExposure()
	flush(t, c)

	assert.Empty(t, p.log.all())
	assert.Empty(t, sink.errors())
}

func TestCaptureStillImage(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p, WithOrientation(OrientationPortrait))

	c.CaptureStillImage()
	assert.Eventually(t, func() bool {
		return sink.count("still_image") == 1
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	img := sink.images[0]
	sink.mu.Unlock()
	assert.Equal(t, OrientationPortrait, img.Orientation)
	assert.Equal(t, "jpeg", img.Format)
}

func TestCaptureStillImageFailure(t *testing.T) {
	p := newFakePlatform()
	p.photo.deliverErr = errors.New("sensor timeout")
	c, sink := newTestCoordinator(t, p)

	c.CaptureStillImage()
	assert.Eventually(t, func() bool {
		return len(sink.errors()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, KindStillImageCaptureFailed, sink.errors()[0].Kind)
	assert.Zero(t, sink.count("still_image"))
}

func TestCaptureStillImageWithoutCamera(t *testing.T) {
	p := newFakePlatform(microphone)
	c, sink := newTestCoordinator(t, p)

	c.CaptureStillImage()
	flush(t, c)

	errs := sink.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, KindStillImageCaptureFailed, errs[0].Kind)
	assert.ErrorIs(t, errs[0], ErrNoActiveDevice)
}

func TestSetOrientation(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)

	c.SetOrientation(OrientationPortrait)
	c.SetOrientation(OrientationPortrait)
	c.SetOrientation("sideways")
	flush(t, c)

	assert.Equal(t, []string{"orientation:landscape-right->portrait", "error:UNSUPPORTED_MODE"}, sink.eventList())
	assert.Equal(t, OrientationPortrait, c.State().Orientation)
}

func TestSetPreset(t *testing.T) {
	p := newFakePlatform()
	c, sink := newTestCoordinator(t, p)
	p.log.reset()

	c.SetPreset(Preset640x480)
	c.SetPreset("enormous")
	flush(t, c)

	assert.Equal(t, []string{"begin", "preset:640x480", "commit"}, p.log.all())
	assert.Equal(t, Preset640x480, c.State().Preset)
	require.Len(t, sink.errors(), 1)
	assert.Equal(t, KindUnsupportedMode, sink.errors()[0].Kind)
}

type countingInstrumentation struct {
	mu     sync.Mutex
	ops    map[string]int
	failed map[Kind]int
	locks  map[LockEvent]int
	states int
}

func newCountingInstrumentation() *countingInstrumentation {
	return &countingInstrumentation{ops: map[string]int{}, failed: map[Kind]int{}, locks: map[LockEvent]int{}}
}

func (i *countingInstrumentation) OperationCompleted(op string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ops[op]++
	if err != nil {
		i.failed[KindOf(err)]++
	}
}

func (i *countingInstrumentation) ConfigurationLock(e LockEvent) {
	i.mu.Lock()
	i.locks[e]++
	i.mu.Unlock()
}

func (i *countingInstrumentation) StateChanged(State) {
	i.mu.Lock()
	i.states++
	i.mu.Unlock()
}

func TestInstrumentation(t *testing.T) {
	p := newFakePlatform()
	instr := newCountingInstrumentation()
	c, _ := newTestCoordinator(t, p, WithInstrumentation(instr))

	c.StartSession()
	c.SetTorchMode(TorchOn)
	c.SwitchCamera()
	c.SetTorchMode(TorchOn)
	flush(t, c)

	instr.mu.Lock()
	defer instr.mu.Unlock()
	assert.Equal(t, 1, instr.ops["prepare_session"])
	assert.Equal(t, 2, instr.ops["set_torch_mode"])
	assert.Equal(t, 1, instr.failed[KindUnsupportedMode])
	assert.Equal(t, 1, instr.locks[LockAcquired])
	assert.Equal(t, 1, instr.locks[LockReleased])
	assert.Positive(t, instr.states)
}
