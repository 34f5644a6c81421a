package nats

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/camnode/internal/events"
)

// Publisher forwards every capture event on the bus to NATS.
type Publisher struct {
	conn      *nats.Conn
	bus       *events.Bus
	subjects  Subjects
	sessionID string
	logger    *slog.Logger

	mu    sync.Mutex
	unsub func()
}

// NewPublisher creates a publisher. Call Start to begin forwarding.
func NewPublisher(conn *nats.Conn, bus *events.Bus, subjects Subjects, sessionID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:      conn,
		bus:       bus,
		subjects:  subjects,
		sessionID: sessionID,
		logger:    logger.With("component", "nats-publisher"),
	}
}

// Start subscribes to the bus.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsub != nil {
		return
	}
	p.unsub = p.bus.SubscribeAll(p.publish)
	p.logger.Info("Publishing capture events", "subject", p.subjects.AllEvents())
}

// Stop unsubscribes from the bus and flushes pending messages.
func (p *Publisher) Stop() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()

	if unsub == nil {
		return
	}
	unsub()
	if p.conn.IsConnected() {
		if err := p.conn.Flush(); err != nil {
			p.logger.Warn("Failed to flush NATS connection", "error", err)
		}
	}
}

// publish runs on the bus subscriber goroutine. Messages are dropped while
// the connection is closed.
func (p *Publisher) publish(ev events.Event) {
	if p.conn.IsClosed() {
		return
	}

	msg, err := newEventMessage(p.sessionID, ev)
	if err != nil {
		p.logger.Warn("Failed to marshal event", "event", events.Name(ev), "error", err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("Failed to marshal envelope", "event", msg.Event, "error", err)
		return
	}

	subject := p.subjects.Event(msg.Event)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", "subject", subject, "error", err)
		return
	}
	p.logger.Debug("Published event", "subject", subject)
}
