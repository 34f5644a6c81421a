package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/smazurov/camnode/internal/capture"
)

// Session is a simulated capture session.
type Session struct {
	reject []string
	logger *slog.Logger
	movie  *MovieOutput

	mu          sync.Mutex
	inputs      []capture.Input
	preset      capture.Preset
	running     bool
	configuring int
}

func newSession(reject []string, logger *slog.Logger) *Session {
	return &Session{
		reject: reject,
		logger: logger,
		preset: capture.PresetHigh,
	}
}

func (s *Session) BeginConfiguration() {
	s.mu.Lock()
	s.configuring++
	s.mu.Unlock()
}

func (s *Session) CommitConfiguration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configuring > 0 {
		s.configuring--
	}
	if s.configuring == 0 {
		s.logger.Debug("Session configuration committed", "inputs", len(s.inputs), "preset", s.preset)
	}
}

func (s *Session) CanAddInput(in capture.Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := in.Device()
	if slices.Contains(s.reject, d.ID) {
		return false
	}
	for _, existing := range s.inputs {
		if existing.Device().Kind == d.Kind {
			return false
		}
	}
	return true
}

func (s *Session) AddInput(in capture.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := in.Device()
	if slices.Contains(s.reject, d.ID) {
		return fmt.Errorf("session refused input %s", d.ID)
	}
	for _, existing := range s.inputs {
		if existing.Device().Kind == d.Kind {
			return fmt.Errorf("session already has a %s input", d.Kind)
		}
	}
	s.inputs = append(s.inputs, in)
	return nil
}

func (s *Session) RemoveInput(in capture.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := in.Device().ID
	s.inputs = slices.DeleteFunc(s.inputs, func(existing capture.Input) bool {
		return existing.Device().ID == id
	})
}

func (s *Session) SetPreset(p capture.Preset) error {
	if _, err := capture.ParsePreset(string(p)); err != nil {
		return err
	}
	s.mu.Lock()
	s.preset = p
	s.mu.Unlock()
	return nil
}

func (s *Session) StartRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.ContainsFunc(s.inputs, func(in capture.Input) bool { return in.Device().Kind == capture.MediaVideo }) {
		return fmt.Errorf("session has no video input")
	}
	s.running = true
	return nil
}

// StopRunning stops the session. A recording in progress finishes with
// ErrSessionStopped.
func (s *Session) StopRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if s.movie != nil {
		s.movie.abort(ErrSessionStopped)
	}
}

// Running reports whether the session is running.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Preset returns the active preset.
func (s *Session) Preset() capture.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// Inputs returns the ids of attached devices.
func (s *Session) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.inputs))
	for _, in := range s.inputs {
		ids = append(ids, in.Device().ID)
	}
	return ids
}

// videoDevice returns the attached video device.
func (s *Session) videoDevice() (capture.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.inputs {
		if d := in.Device(); d.Kind == capture.MediaVideo {
			return d, true
		}
	}
	return capture.Device{}, false
}
