package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/smazurov/camnode/cmd"
	"github.com/smazurov/camnode/internal/api"
	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/config"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/metrics"
	"github.com/smazurov/camnode/internal/nats"
	"github.com/smazurov/camnode/internal/platform/sim"
	"github.com/smazurov/camnode/internal/systemd"
	"github.com/smazurov/camnode/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings; empty disables auth
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Capture settings
	CaptureProfile          string `help:"Simulated device profile (TOML)" default:"" toml:"capture.profile" env:"CAPTURE_PROFILE"`
	CaptureOutputDir        string `help:"Directory for recordings" default:"recordings" toml:"capture.output_dir" env:"CAPTURE_OUTPUT_DIR"`
	CapturePreset           string `help:"Initial session preset" default:"high" toml:"capture.preset" env:"CAPTURE_PRESET"`
	CaptureProgressInterval string `help:"Recording progress interval" default:"1s" toml:"capture.progress_interval" env:"CAPTURE_PROGRESS_INTERVAL"`

	// NATS settings
	NatsEnabled       bool   `help:"Publish events and accept control over NATS" default:"false" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsURL           string `help:"NATS server URL when not embedded" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`
	NatsEmbedded      bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsPort          int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NatsSubjectPrefix string `help:"NATS subject prefix" default:"camnode" toml:"nats.subject_prefix" env:"NATS_SUBJECT_PREFIX"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCapture string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingNats    string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingQueue   string `help:"Capture worker logging level" default:"info" toml:"logging.queue" env:"LOGGING_QUEUE"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"capture": o.LoggingCapture,
			"api":     o.LoggingAPI,
			"http":    o.LoggingAPI,
			"nats":    o.LoggingNats,
			"queue":   o.LoggingQueue,
		},
	}
}

// natsLink is the NATS side of a running node.
type natsLink struct {
	server     *nats.Server
	conn       *natsgo.Conn
	publisher  *nats.Publisher
	controller *nats.Controller
}

func startNATS(opts *Options, bus *events.Bus, coord *capture.Coordinator, logger *slog.Logger) (*natsLink, error) {
	link := &natsLink{}
	url := opts.NatsURL

	if opts.NatsEmbedded {
		link.server = nats.NewServer(nats.ServerOptions{Port: opts.NatsPort, Logger: logger})
		if err := link.server.Start(); err != nil {
			return nil, err
		}
		url = link.server.ClientURL()
	}

	conn, err := nats.Connect(url, "camnode-"+coord.ID(), logger)
	if err != nil {
		link.stop()
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	link.conn = conn

	subjects := nats.Subjects{Prefix: opts.NatsSubjectPrefix}
	link.publisher = nats.NewPublisher(conn, bus, subjects, coord.ID(), logger)
	link.publisher.Start()

	link.controller = nats.NewController(conn, coord, subjects, logger)
	if err := link.controller.Start(); err != nil {
		link.stop()
		return nil, err
	}
	return link, nil
}

func (l *natsLink) stop() {
	if l.controller != nil {
		l.controller.Stop()
	}
	if l.publisher != nil {
		l.publisher.Stop()
	}
	if l.conn != nil {
		if err := l.conn.Drain(); err != nil {
			l.conn.Close()
		}
	}
	if l.server != nil {
		l.server.Stop()
	}
}

// watchLogging applies logging levels from the config file without restart.
func watchLogging(path string, logger *slog.Logger) *config.Watcher[logging.Config] {
	watcher := config.NewConfigWatcher(path, config.ReadLoggingConfig, logging.GetLogger("config"),
		config.WithDebounce[logging.Config](500*time.Millisecond),
	)
	watcher.OnReload(func(cfg logging.Config) {
		if err := logging.SetLevel("", cfg.Level); err != nil {
			logger.Warn("Ignoring global logging level", "error", err)
		}
		for module, level := range cfg.Modules {
			if err := logging.SetLevel(module, level); err != nil {
				logger.Warn("Ignoring module logging level", "module", module, "error", err)
			}
		}
		logger.Info("Logging levels reloaded", "level", cfg.Level, "modules", len(cfg.Modules))
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
		return nil
	}
	return watcher
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		var (
			coord   *capture.Coordinator
			server  *api.Server
			link    *natsLink
			watcher *config.Watcher[logging.Config]

			notifier     = systemd.NewNotifier(logger)
			stopWatchdog = func() {}
			stopStatus   = func() {}
		)

		hooks.OnStart(func() {
			logger.Info("Starting camnode", "version", version.String())

			preset, err := capture.ParsePreset(opts.CapturePreset)
			if err != nil {
				logger.Error("Invalid capture preset", "error", err)
				os.Exit(1)
			}
			progress, err := time.ParseDuration(opts.CaptureProgressInterval)
			if err != nil || progress <= 0 {
				logger.Warn("Invalid progress interval, using 1s", "value", opts.CaptureProgressInterval)
				progress = time.Second
			}

			profile, err := sim.LoadProfile(opts.CaptureProfile)
			if err != nil {
				logger.Error("Failed to load device profile", "error", err)
				os.Exit(1)
			}
			platform, err := sim.New(profile, logging.GetLogger("sim"))
			if err != nil {
				logger.Error("Failed to create capture platform", "error", err)
				os.Exit(1)
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			captureMetrics := metrics.New(registry)

			// Create event bus for in-process event handling
			eventBus := events.New()

			coord, err = capture.New(platform, events.NewSink(eventBus),
				capture.WithLogger(logging.GetLogger("capture")),
				capture.WithPreset(preset),
				capture.WithPathResolver(capture.DirResolver{Dir: opts.CaptureOutputDir, Extension: ".mov"}),
				capture.WithProgressInterval(progress),
				capture.WithInstrumentation(captureMetrics),
				capture.WithQueueObserver(captureMetrics),
			)
			if err != nil {
				logger.Error("Failed to create capture coordinator", "error", err)
				os.Exit(1)
			}

			if opts.NatsEnabled {
				link, err = startNATS(opts, eventBus, coord, logging.GetLogger("nats"))
				if err != nil {
					logger.Warn("NATS unavailable, continuing without it", "error", err)
				}
			}

			apiOpts := &api.Options{
				AuthUsername: opts.AuthUsername,
				AuthPassword: opts.AuthPassword,
				Capture:      coord,
				EventBus:     eventBus,
			}
			if opts.MetricsEnabled {
				apiOpts.MetricsHandler = captureMetrics.Handler()
			}
			server = api.NewServer(apiOpts)

			watcher = watchLogging(opts.Config, logger)

			stopStatus = notifier.FollowSession(eventBus)
			var watchdogCtx context.Context
			watchdogCtx, stopWatchdog = context.WithCancel(context.Background())
			go notifier.RunWatchdog(watchdogCtx)
			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			stopStatus()
			stopWatchdog()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if server != nil {
				if stopErr := server.Stop(ctx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}

			// Stop the recording and session after the API stops accepting requests
			if coord != nil {
				if coord.State().Recording != capture.RecordingIdle {
					coord.StopRecording()
				}
				coord.StopSession()
				if flushErr := coord.Flush(ctx); flushErr != nil {
					logger.Warn("Capture session did not stop cleanly", "error", flushErr)
				}
				if closeErr := coord.Close(ctx); closeErr != nil {
					logger.Error("Error closing capture coordinator", "error", closeErr)
				}
			}

			if link != nil {
				link.stop()
			}
		})
	})

	cli.Root().Use = "camnode"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateShootCmd())
	cli.Root().AddCommand(cmd.CreateRecordCmd())

	// Run the CLI
	cli.Run()
}
