// Package systemd reports service state to systemd through sd_notify.
// Outside a Type=notify unit every call is a no-op.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/events"
)

// Notifier sends readiness, status and watchdog messages to the service
// manager.
type Notifier struct {
	logger *slog.Logger
	notify func(state string) (bool, error)
}

// NewNotifier creates a notifier that writes to $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger.With("component", "systemd"),
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify", "state", state)
	}
}

// Ready tells systemd the service finished starting.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd the service is shutting down.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// FollowSession keeps the status line in sync with the capture session
// until the returned function is called.
func (n *Notifier) FollowSession(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.SessionStateChangedEvent) {
		n.Status(SessionStatus(e.State))
	})
}

// SessionStatus renders a one-line summary of a session state.
func SessionStatus(s capture.State) string {
	if !s.Running {
		return "session stopped"
	}
	camera := "no camera"
	if s.ActiveVideoDevice != nil {
		camera = s.ActiveVideoDevice.Name
	}
	switch s.Recording {
	case capture.RecordingActive:
		return fmt.Sprintf("recording %s (%s, %s)", s.RecordingPath, camera, s.Preset)
	case capture.RecordingIdle:
		return fmt.Sprintf("running (%s, %s)", camera, s.Preset)
	default:
		return fmt.Sprintf("running (%s, %s), recording %s", camera, s.Preset, s.Recording)
	}
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns immediately when the unit has no watchdog.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.logger.Info("Watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
