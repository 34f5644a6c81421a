package nats

import (
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/camnode/internal/capture"
)

// Controller applies control messages to a capture controller.
type Controller struct {
	conn     *nats.Conn
	ctl      capture.Controller
	subjects Subjects
	logger   *slog.Logger

	sub *nats.Subscription
}

// NewController creates a controller. Call Start to subscribe.
func NewController(conn *nats.Conn, ctl capture.Controller, subjects Subjects, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		conn:     conn,
		ctl:      ctl,
		subjects: subjects,
		logger:   logger.With("component", "nats-controller"),
	}
}

// Start subscribes to every control subject.
func (c *Controller) Start() error {
	if c.sub != nil {
		return errors.New("controller already started")
	}
	sub, err := c.conn.Subscribe(c.subjects.AllControls(), c.handle)
	if err != nil {
		return err
	}
	c.sub = sub
	c.logger.Info("Listening for control messages", "subject", c.subjects.AllControls())
	return nil
}

// Stop drains the subscription so in-flight messages are still applied.
func (c *Controller) Stop() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Drain(); err != nil {
		c.logger.Warn("Failed to drain control subscription", "error", err)
	}
	c.sub = nil
}

func (c *Controller) handle(msg *nats.Msg) {
	op := c.subjects.operation(msg.Subject)
	reply := ControlReply{Operation: op}

	req, err := UnmarshalControl(msg.Data)
	if err == nil {
		err = capture.Dispatch(c.ctl, capture.Command{
			Operation: op,
			Mode:      req.Mode,
			Value:     req.Value,
			Point:     req.Point,
		})
	}

	if err != nil {
		c.logger.Warn("Rejected control message", "operation", op, "error", err)
		reply.Error = err.Error()
	} else {
		c.logger.Debug("Accepted control message", "operation", op)
		reply.Accepted = true
	}

	if msg.Reply == "" {
		return
	}
	data, err := reply.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal control reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		c.logger.Warn("Failed to send control reply", "operation", op, "error", err)
	}
}
