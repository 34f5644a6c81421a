// Package queue provides a single-worker FIFO task queue.
//
// Every task submitted to a Serial runs on the same goroutine, one at a time,
// in submission order. Submission never blocks the caller; the backlog is
// unbounded. A task that panics is recovered and logged, and the worker moves
// on to the next task.
//
//	q := queue.New(queue.WithName("capture"))
//	defer q.Close()
//	_ = q.Submit(func() { ... })
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// ErrClosed is returned by Submit and Flush once the queue has been closed.
var ErrClosed = errors.New("queue closed")

// Observer receives queue instrumentation. Calls happen on the worker
// goroutine, except QueueDepth which is also reported from Submit.
type Observer interface {
	QueueDepth(depth int)
	TaskDone(duration time.Duration)
	TaskPanicked(recovered any)
}

// Option configures a Serial.
type Option func(*Serial)

// WithName sets the queue name used in log messages.
func WithName(name string) Option {
	return func(s *Serial) {
		s.name = name
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serial) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver attaches instrumentation hooks.
func WithObserver(o Observer) Option {
	return func(s *Serial) {
		s.observer = o
	}
}

// Serial is an unbounded FIFO executed by exactly one worker goroutine.
type Serial struct {
	name     string
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex
	tasks  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// New creates a queue and starts its worker.
func New(opts ...Option) *Serial {
	s := &Serial{
		name:   "serial",
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("queue", s.name)

	go s.run()
	return s
}

// Submit appends task to the queue and returns immediately.
func (s *Serial) Submit(task func()) error {
	if task == nil {
		return fmt.Errorf("nil task")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.tasks = append(s.tasks, task)
	depth := len(s.tasks)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.QueueDepth(depth)
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of tasks waiting to run, excluding the one in flight.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Flush blocks until every task submitted before the call has completed,
// or ctx is done. It must not be called from inside a task.
func (s *Serial) Flush(ctx context.Context) error {
	reached := make(chan struct{})
	if err := s.Submit(func() { close(reached) }); err != nil {
		return err
	}

	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new tasks, lets the backlog drain and waits for the
// worker to exit. Calling Close more than once is safe; calling it from
// inside a task deadlocks.
func (s *Serial) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.logger.Debug("Closing queue", "pending", len(s.tasks))
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

// Closed reports whether Close has been called.
func (s *Serial) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// run is the worker loop.
func (s *Serial) run() {
	defer close(s.done)

	for {
		task, ok := s.next()
		if !ok {
			return
		}
		s.execute(task)
	}
}

// next pops the oldest task, waiting for one if the queue is empty.
// Returns false once the queue is closed and drained.
func (s *Serial) next() (func(), bool) {
	for {
		s.mu.Lock()
		if len(s.tasks) > 0 {
			task := s.tasks[0]
			s.tasks[0] = nil
			s.tasks = s.tasks[1:]
			depth := len(s.tasks)
			s.mu.Unlock()

			if s.observer != nil {
				s.observer.QueueDepth(depth)
			}
			return task, true
		}
		if s.closed {
			s.mu.Unlock()
			return nil, false
		}
		s.mu.Unlock()

		<-s.wake
	}
}

// execute runs one task, recovering from panics so the worker survives.
func (s *Serial) execute(task func()) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Task panicked", "panic", r, "stack", string(debug.Stack()))
			if s.observer != nil {
				s.observer.TaskPanicked(r)
			}
		}
		if s.observer != nil {
			s.observer.TaskDone(time.Since(start))
		}
	}()

	task()
}
