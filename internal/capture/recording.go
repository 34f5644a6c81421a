package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PathResolver produces a unique destination for a new recording.
type PathResolver interface {
	Resolve(now time.Time) (string, error)
}

// DirResolver places recordings in Dir, named after the start time.
type DirResolver struct {
	Dir       string
	Extension string
}

const recordingTimeLayout = "20060102-150405.000"

// Resolve creates Dir if needed and returns a path that does not exist yet.
func (r DirResolver) Resolve(now time.Time) (string, error) {
	dir := r.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recording directory %s: %w", dir, err)
	}

	ext := r.Extension
	if ext == "" {
		ext = ".mov"
	}

	base := now.Format(recordingTimeLayout)
	for i := 0; i < 1000; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free recording name for %s in %s", base, dir)
}

// recordingOutput tracks one recording from request to finish.
type recordingOutput struct {
	phase     RecordingPhase
	path      string
	startedAt time.Time // set on start confirmation

	// progress ticker for the current recording
	stopProgress func()
}

// transition moves to phase, reporting false for an edge the state machine
// does not allow.
func (r *recordingOutput) transition(to RecordingPhase) bool {
	if !validRecordingTransition(r.phase, to) {
		return false
	}
	r.phase = to
	return true
}

// reset returns to idle and forgets the path; the file stays on disk.
func (r *recordingOutput) reset() {
	if r.stopProgress != nil {
		r.stopProgress()
		r.stopProgress = nil
	}
	r.phase = RecordingIdle
	r.path = ""
	r.startedAt = time.Time{}
}

// duration returns the time recorded so far using the monotonic clock.
func (r *recordingOutput) duration() time.Duration {
	if r.phase != RecordingActive || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}
