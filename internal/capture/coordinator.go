package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/camnode/internal/queue"
)

// Instrumentation receives coordinator telemetry. Calls happen on the worker.
type Instrumentation interface {
	OperationCompleted(operation string, err error)
	ConfigurationLock(event LockEvent)
	StateChanged(state State)
}

type nopInstrumentation struct{}

func (nopInstrumentation) OperationCompleted(string, error) {}
func (nopInstrumentation) ConfigurationLock(LockEvent)      {}
func (nopInstrumentation) StateChanged(State)               {}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPreset sets the preset applied when the session is prepared.
func WithPreset(p Preset) Option {
	return func(c *Coordinator) {
		c.preset = p
	}
}

// WithOrientation sets the initial video orientation.
func WithOrientation(o Orientation) Option {
	return func(c *Coordinator) {
		c.orientation = o
	}
}

// WithPathResolver sets where recordings are written.
func WithPathResolver(r PathResolver) Option {
	return func(c *Coordinator) {
		c.resolver = r
	}
}

// WithProgressInterval sets how often OnRecordingProgress fires while
// recording. Zero disables progress reports.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		c.progressInterval = d
	}
}

// WithInstrumentation attaches telemetry hooks.
func WithInstrumentation(i Instrumentation) Option {
	return func(c *Coordinator) {
		if i != nil {
			c.instr = i
		}
	}
}

// WithQueueObserver attaches instrumentation to the worker queue.
func WithQueueObserver(o queue.Observer) Option {
	return func(c *Coordinator) {
		c.queueObserver = o
	}
}

// Coordinator owns a capture session and serializes every mutation of it
// onto one worker. Public operations return immediately; results arrive
// through the EventSink.
//
// Fields below the worker marker are only touched from tasks running on the
// worker queue. Readers use State, which returns the last published snapshot.
type Coordinator struct {
	id               string
	platform         Platform
	registry         *Registry
	sink             EventSink
	logger           *slog.Logger
	instr            Instrumentation
	queueObserver    queue.Observer
	resolver         PathResolver
	progressInterval time.Duration

	queue     *queue.Serial
	published atomic.Pointer[State]
	closed    atomic.Bool

	// worker-owned
	session      Session
	photo        PhotoOutput
	movie        MovieOutput
	videoInput   Input
	videoControl DeviceControl
	audioInput   Input
	preset       Preset
	orientation  Orientation
	running      bool
	modes        Modes
	recording    recordingOutput
	recordingGen uint64
	pending      *pendingExposureLock
	pendingSeq   uint64
}

// New creates a coordinator for platform and prepares the session on the
// worker: default video and audio inputs are attached and the preset is
// applied. Preparation failures are reported through sink.
func New(platform Platform, sink EventSink, opts ...Option) (*Coordinator, error) {
	if platform == nil {
		return nil, fmt.Errorf("platform is required")
	}
	if sink == nil {
		sink = NopSink{}
	}

	c := &Coordinator{
		id:               uuid.NewString(),
		platform:         platform,
		sink:             sink,
		logger:           slog.Default(),
		instr:            nopInstrumentation{},
		preset:           PresetHigh,
		orientation:      OrientationLandscapeRight,
		resolver:         DirResolver{Dir: ".", Extension: ".mov"},
		progressInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("coordinator_id", c.id)
	c.recording.phase = RecordingIdle
	c.registry = NewRegistry(platform)

	c.published.Store(&State{
		Preset:      c.preset,
		Orientation: c.orientation,
		Recording:   RecordingIdle,
	})

	c.queue = queue.New(
		queue.WithName("capture"),
		queue.WithLogger(c.logger),
		queue.WithObserver(c.queueObserver),
	)

	c.submit("prepare_session", c.prepareSession)
	return c, nil
}

// ID returns the coordinator's identity, stable for its lifetime.
func (c *Coordinator) ID() string {
	return c.id
}

// Registry returns the device registry enumerated at construction.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// State returns the last published snapshot.
func (c *Coordinator) State() State {
	return *c.published.Load()
}

// IsRunning reports whether the session is running, as last published.
func (c *Coordinator) IsRunning() bool {
	return c.published.Load().Running
}

// IsRecording reports whether the movie output has confirmed it is writing.
func (c *Coordinator) IsRecording() bool {
	return c.published.Load().IsRecording()
}

// RecordedDuration returns how long the current recording has been writing,
// or zero when not recording.
func (c *Coordinator) RecordedDuration() time.Duration {
	s := c.published.Load()
	if !s.IsRecording() || s.RecordingStarted.IsZero() {
		return 0
	}
	return time.Since(s.RecordingStarted)
}

// Flush waits until every operation submitted so far has been applied.
// Confirmations that arrive later from the platform are not waited for.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.queue.Flush(ctx)
}

// Close tears down any pending exposure observation and recording progress
// reporting, drains the queue and stops the worker. The session itself is
// left as is; stop it first if needed.
func (c *Coordinator) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.queue.Submit(c.teardown); err != nil {
		c.logger.Warn("Failed to schedule teardown", "error", err)
	}

	done := make(chan struct{})
	go func() {
		c.queue.Close()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Coordinator closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) teardown() {
	c.cancelPendingExposure("coordinator closed")
	if c.recording.stopProgress != nil {
		c.recording.stopProgress()
		c.recording.stopProgress = nil
	}
	c.publish()
}

// submit enqueues a public operation.
func (c *Coordinator) submit(op string, task func() error) {
	if c.closed.Load() {
		c.logger.Warn("Operation dropped", "operation", op, "error", ErrCoordinatorClosed)
		return
	}
	c.enqueue(op, task)
}

// enqueue schedules task on the worker. Used for public operations and for
// platform confirmations that resume earlier operations.
func (c *Coordinator) enqueue(op string, task func() error) {
	err := c.queue.Submit(func() {
		c.run(op, task)
	})
	if err != nil {
		c.logger.Debug("Task dropped", "operation", op, "error", err)
	}
}

// run executes one task on the worker, turning errors and panics into sink
// events and publishing the resulting state.
func (c *Coordinator) run(op string, task func() error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindSessionError, op, "operation panicked", fmt.Errorf("%v", r))
			c.logger.Error("Operation panicked", "operation", op, "panic", r)
		}
		if err != nil {
			c.report(op, err)
		}
		c.instr.OperationCompleted(op, err)
		c.publish()
	}()

	c.logger.Debug("Running operation", "operation", op)
	err = task()
}

// report delivers err to the sink as an *Error.
func (c *Coordinator) report(op string, err error) {
	var ce *Error
	if !errors.As(err, &ce) {
		ce = newError(KindSessionError, op, "operation failed", err)
	}
	if ce.Operation == "" {
		ce.Operation = op
	}
	c.logger.Warn("Operation failed", "operation", op, "kind", ce.Kind, "error", ce)
	c.sink.OnError(ce)
}

// publish stores a fresh snapshot and notifies the sink when it differs from
// the previous one in a way a UI cares about.
func (c *Coordinator) publish() {
	next := &State{
		Preset:              c.preset,
		Orientation:         c.orientation,
		Running:             c.running,
		Recording:           c.recording.phase,
		RecordingPath:       c.recording.path,
		RecordingStarted:    c.recording.startedAt,
		PendingExposureLock: c.pending != nil,
	}
	if c.videoInput != nil {
		d := c.videoInput.Device().Clone()
		next.ActiveVideoDevice = &d
		next.Modes = c.modes
	}
	if c.audioInput != nil {
		d := c.audioInput.Device().Clone()
		next.ActiveAudioDevice = &d
	}

	prev := c.published.Swap(next)
	if prev == nil || next.changedFrom(*prev) {
		c.instr.StateChanged(*next)
		c.sink.OnStateChanged(*next)
	}
}

// applyError wraps a failure of a device setter.
func applyError(op, what string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return newError(KindSessionError, op, "device rejected "+what, err)
}
