package sim

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

// MovieOutput writes a frame log to the recording path. Each line is one
// simulated frame, so the file grows while recording like a real movie.
type MovieOutput struct {
	session       *Session
	frameInterval time.Duration
	failStart     bool
	logger        *slog.Logger

	mu     sync.Mutex
	active *recording
}

type recording struct {
	path     string
	delegate capture.RecordingDelegate
	stop     chan error
	done     chan struct{}
}

// StartRecording creates path and starts writing frames. The delegate is
// notified on the writer goroutine.
func (o *MovieOutput) StartRecording(path string, orientation capture.Orientation, delegate capture.RecordingDelegate) error {
	if !o.session.Running() {
		return ErrNotRunning
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return ErrAlreadyWriting
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	rec := &recording{
		path:     path,
		delegate: delegate,
		stop:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	o.active = rec
	go o.write(rec, f, orientation)
	return nil
}

// StopRecording finishes the active recording.
func (o *MovieOutput) StopRecording() error {
	o.mu.Lock()
	rec := o.active
	o.mu.Unlock()
	if rec == nil {
		return ErrNotWriting
	}
	rec.finish(nil)
	return nil
}

// abort finishes the active recording, if any, with err.
func (o *MovieOutput) abort(err error) {
	o.mu.Lock()
	rec := o.active
	o.mu.Unlock()
	if rec != nil {
		rec.finish(err)
	}
}

// Wait blocks until no recording is being written.
func (o *MovieOutput) Wait() {
	o.mu.Lock()
	rec := o.active
	o.mu.Unlock()
	if rec != nil {
		<-rec.done
	}
}

func (r *recording) finish(err error) {
	select {
	case r.stop <- err:
	default:
	}
}

func (o *MovieOutput) write(rec *recording, f *os.File, orientation capture.Orientation) {
	defer close(rec.done)

	start := time.Now()
	w := bufio.NewWriter(f)
	var frames int

	finish := func(cause error) {
		flushErr := w.Flush()
		closeErr := f.Close()

		o.mu.Lock()
		o.active = nil
		o.mu.Unlock()

		err := cause
		if err == nil {
			err = errors.Join(flushErr, closeErr)
		}
		duration := time.Since(start)
		o.logger.Debug("Recording written", "path", rec.path, "frames", frames, "duration", duration, "error", err)
		rec.delegate.DidFinishRecording(rec.path, duration, err)
	}

	if _, err := fmt.Fprintf(w, "# camnode simulated recording\n# started %s orientation %s\n", start.Format(time.RFC3339Nano), orientation); err != nil {
		finish(fmt.Errorf("failed to write header: %w", err))
		return
	}
	if o.failStart {
		finish(fmt.Errorf("encoder failed to start"))
		return
	}

	rec.delegate.DidStartRecording(rec.path)

	ticker := time.NewTicker(o.frameInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-rec.stop:
			finish(err)
			return
		case now := <-ticker.C:
			frames++
			if _, err := fmt.Fprintf(w, "frame %d %s\n", frames, now.Sub(start)); err != nil {
				finish(fmt.Errorf("failed to write frame: %w", err))
				return
			}
		}
	}
}
