package nats

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials url with reconnect handling that logs state changes. It
// retries forever once connected; the initial dial fails fast so callers can
// run without NATS.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats-client")

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			} else {
				logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				logger.Warn("NATS subscription error", "subject", sub.Subject, "error", err)
				return
			}
			logger.Warn("NATS error", "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to NATS", "url", url, "name", name)
	return conn, nil
}
