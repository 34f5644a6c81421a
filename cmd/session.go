package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/config"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/platform/sim"
)

// SessionOptions are the capture settings shared by the one-shot commands.
// They read the same config file keys as the server.
type SessionOptions struct {
	Config    string
	Profile   string `toml:"capture.profile" env:"CAPTURE_PROFILE"`
	OutputDir string `toml:"capture.output_dir" env:"CAPTURE_OUTPUT_DIR"`
	Preset    string `toml:"capture.preset" env:"CAPTURE_PRESET"`
	Camera    string
	Timeout   time.Duration
	LogLevel  string
}

func addSessionFlags(cmd *cobra.Command, opts *SessionOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.Config, "config", "config.toml", "Path to configuration file")
	f.StringVar(&opts.Profile, "profile", "", "Simulated device profile (TOML); empty uses the built-in profile")
	f.StringVar(&opts.OutputDir, "output-dir", ".", "Directory for recordings")
	f.StringVar(&opts.Preset, "preset", string(capture.PresetHigh), "Session preset")
	f.StringVar(&opts.Camera, "camera", "", "Camera position to use (front, back)")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "How long to wait for the device")
	f.StringVar(&opts.LogLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
}

func (o *SessionOptions) load(cmd *cobra.Command) error {
	if err := config.LoadConfig(o, cmd); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Initialize(logging.Config{Level: o.LogLevel, Format: "text"})
	return nil
}

// loadPlatform builds the simulated platform described by the options.
func (o *SessionOptions) loadPlatform() (*sim.Platform, error) {
	profile, err := sim.LoadProfile(o.Profile)
	if err != nil {
		return nil, err
	}
	return sim.New(profile, logging.GetLogger("sim"))
}

type finishedRecording struct {
	path     string
	duration time.Duration
	err      error
}

// waitSink turns coordinator callbacks into channels a command can select on.
// Sends never block the worker; a full channel drops the event.
type waitSink struct {
	capture.NopSink

	errs     chan *capture.Error
	stills   chan capture.Image
	started  chan string
	finished chan finishedRecording
}

func newWaitSink() *waitSink {
	return &waitSink{
		errs:     make(chan *capture.Error, 16),
		stills:   make(chan capture.Image, 1),
		started:  make(chan string, 1),
		finished: make(chan finishedRecording, 1),
	}
}

func (s *waitSink) OnError(err *capture.Error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *waitSink) OnStillImage(img capture.Image) {
	select {
	case s.stills <- img:
	default:
	}
}

func (s *waitSink) OnRecordingStarted(path string) {
	select {
	case s.started <- path:
	default:
	}
}

func (s *waitSink) OnRecordingFinished(path string, d time.Duration, err error) {
	select {
	case s.finished <- finishedRecording{path: path, duration: d, err: err}:
	default:
	}
}

// firstError returns a reported error, if any is waiting.
func (s *waitSink) firstError() error {
	select {
	case err := <-s.errs:
		return err
	default:
		return nil
	}
}

// drainErrors discards errors reported before the next operation.
func (s *waitSink) drainErrors() {
	for {
		select {
		case <-s.errs:
		default:
			return
		}
	}
}

// localSession is a coordinator running against the simulated platform for
// the lifetime of one command.
type localSession struct {
	coord  *capture.Coordinator
	sink   *waitSink
	logger *slog.Logger
}

// openSession creates the coordinator, starts the session and switches to
// the requested camera.
func openSession(ctx context.Context, opts *SessionOptions) (*localSession, error) {
	preset, err := capture.ParsePreset(opts.Preset)
	if err != nil {
		return nil, err
	}

	platform, err := opts.loadPlatform()
	if err != nil {
		return nil, err
	}

	sink := newWaitSink()
	logger := logging.GetLogger("capture")
	coord, err := capture.New(platform, sink,
		capture.WithLogger(logger),
		capture.WithPreset(preset),
		capture.WithPathResolver(capture.DirResolver{Dir: opts.OutputDir, Extension: ".mov"}),
	)
	if err != nil {
		return nil, err
	}
	s := &localSession{coord: coord, sink: sink, logger: logger}

	coord.StartSession()
	if err := coord.Flush(ctx); err != nil {
		s.close()
		return nil, err
	}
	if !coord.IsRunning() {
		err := sink.firstError()
		s.close()
		if err == nil {
			err = capture.ErrSessionNotRunning
		}
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if opts.Camera != "" {
		if err := s.useCamera(ctx, opts.Camera); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *localSession) useCamera(ctx context.Context, name string) error {
	want, err := capture.ParsePosition(name)
	if err != nil {
		return err
	}
	if s.coord.State().VideoPosition() == want {
		return nil
	}

	s.coord.SwitchCamera()
	if err := s.coord.Flush(ctx); err != nil {
		return err
	}
	if got := s.coord.State().VideoPosition(); got != want {
		if err := s.sink.firstError(); err != nil {
			return err
		}
		return fmt.Errorf("no %s camera available (active: %s)", want, got)
	}
	return nil
}

// captureStill takes one picture and waits for it.
func (s *localSession) captureStill(ctx context.Context) (capture.Image, error) {
	s.sink.drainErrors()
	s.coord.CaptureStillImage()
	select {
	case img := <-s.sink.stills:
		return img, nil
	case err := <-s.sink.errs:
		return capture.Image{}, err
	case <-ctx.Done():
		return capture.Image{}, ctx.Err()
	}
}

// startRecording requests a recording and waits for the output to confirm.
func (s *localSession) startRecording(ctx context.Context) (string, error) {
	s.sink.drainErrors()
	s.coord.StartRecording()
	select {
	case path := <-s.sink.started:
		return path, nil
	case err := <-s.sink.errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// stopRecording stops the recording and waits for the file to be finalized.
func (s *localSession) stopRecording(ctx context.Context) (finishedRecording, error) {
	s.coord.StopRecording()
	select {
	case f := <-s.sink.finished:
		return f, nil
	case <-ctx.Done():
		return finishedRecording{}, ctx.Err()
	}
}

// close stops the session and the coordinator.
func (s *localSession) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.coord.StopSession()
	if err := s.coord.Flush(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("Failed to stop session", "error", err)
	}
	if err := s.coord.Close(ctx); err != nil {
		s.logger.Warn("Failed to close coordinator", "error", err)
	}
}
