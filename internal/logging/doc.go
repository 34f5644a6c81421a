// Package logging provides structured logging with per-module log levels.
//
// Every logger comes from [GetLogger] and carries a "module" attribute.
// Records go to stdout when it is connected, to the systemd journal when
// journald is running, and to an in-memory history served by the API.
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"capture": "debug",
//			"api":     "warn",
//		},
//	})
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Session started", "preset", "high")
//
// Levels can be changed while running; loggers already handed out follow:
//
//	_ = logging.SetLevel("nats", "debug")
//	_ = logging.SetLevel("", "warn") // global, modules without an override
//
// Journal entries use the identifier "camnode":
//
//	journalctl -t camnode MODULE=capture -f
package logging
