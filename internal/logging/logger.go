package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 500

var (
	mutex        sync.RWMutex
	loggers      = make(map[string]*slog.Logger)
	levelVars    = make(map[string]*slog.LevelVar)
	globalConfig Config
	globalLevel  = &slog.LevelVar{}
	initialized  bool
	history      = NewHistory(historySize)
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets the global level, per-module overrides and output format.
// Loggers handed out earlier keep working and pick up the new levels.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = Config{
		Level:   config.Level,
		Format:  config.Format,
		Modules: make(map[string]string, len(config.Modules)),
	}
	for module, level := range config.Modules {
		globalConfig.Modules[module] = level
	}
	initialized = true

	level, ok := parseLevel(config.Level)
	if !ok {
		level = slog.LevelInfo
	}
	globalLevel.Set(level)

	// Handlers built before Initialize used the default format.
	for module, levelVar := range levelVars {
		levelVar.Set(moduleLevel(module))
		loggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevel)))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := loggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	if logger, exists := loggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	format := "text"
	if initialized {
		format = globalConfig.Format
	}

	logger := slog.New(createHandler(format, levelVar)).With("module", module)
	loggers[module] = logger
	levelVars[module] = levelVar
	return logger
}

// SetLevel changes the level of one module at runtime. An empty module
// changes the global level, which applies to every module without its own
// override.
func SetLevel(module, level string) error {
	parsed, ok := parseLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	mutex.Lock()
	defer mutex.Unlock()

	if module == "" {
		globalConfig.Level = level
		globalLevel.Set(parsed)
		for name, levelVar := range levelVars {
			if _, override := globalConfig.Modules[name]; !override {
				levelVar.Set(parsed)
			}
		}
		return nil
	}

	if globalConfig.Modules == nil {
		globalConfig.Modules = make(map[string]string)
	}
	globalConfig.Modules[module] = level
	if levelVar, exists := levelVars[module]; exists {
		levelVar.Set(parsed)
	}
	return nil
}

// Level reports the effective level of module.
func Level(module string) slog.Level {
	mutex.RLock()
	defer mutex.RUnlock()
	if levelVar, exists := levelVars[module]; exists {
		return levelVar.Level()
	}
	return moduleLevel(module)
}

// Recent returns the retained log history, oldest first.
func Recent() []Entry {
	return history.Entries()
}

// moduleLevel resolves the configured level of module. Callers hold mutex.
func moduleLevel(module string) slog.Level {
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if level, ok := parseLevel(levelStr); ok {
			return level
		}
	}
	return globalLevel.Level()
}

// createHandler builds the output chain for one logger: stdout when
// connected, the journal when available, and the in-memory history.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewHistoryHandler(history, level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// isStdoutAvailable reports whether stdout is a terminal, pipe, socket or
// regular file. /dev/null is a device and does not count.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
