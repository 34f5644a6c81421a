package nats

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	// DefaultPort is the standard NATS client port.
	DefaultPort = 4222
	// RandomPort asks the embedded server to pick a free port.
	RandomPort = -1

	// still images travel base64 encoded inside events
	defaultMaxPayload = 8 * 1024 * 1024
	readyTimeout      = 5 * time.Second
)

// ServerOptions configures the embedded NATS server.
type ServerOptions struct {
	Host       string
	Port       int // zero means DefaultPort
	Name       string
	MaxPayload int32
	Logger     *slog.Logger
}

// Server is an in-process NATS server for single-binary deployments.
type Server struct {
	opts   ServerOptions
	logger *slog.Logger

	mu sync.Mutex
	ns *server.Server
}

// NewServer creates an embedded server. Call Start to listen.
func NewServer(opts ServerOptions) *Server {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Name == "" {
		opts.Name = "camnode"
	}
	if opts.MaxPayload <= 0 {
		opts.MaxPayload = defaultMaxPayload
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		opts:   opts,
		logger: opts.Logger.With("component", "nats-server"),
	}
}

// Start listens and blocks until clients can connect.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ns != nil {
		return fmt.Errorf("NATS server already running at %s", s.ns.ClientURL())
	}

	ns, err := server.NewServer(&server.Options{
		ServerName:     s.opts.Name,
		Host:           s.opts.Host,
		Port:           s.opts.Port,
		MaxPayload:     s.opts.MaxPayload,
		MaxControlLine: 4096,
		NoLog:          true,
		NoSigs:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return fmt.Errorf("NATS server not ready after %s", readyTimeout)
	}

	s.ns = ns
	s.logger.Info("Embedded NATS server listening", "url", ns.ClientURL(), "max_payload", s.opts.MaxPayload)
	return nil
}

// Stop shuts the server down and waits for client connections to close.
// Stopping a stopped server does nothing.
func (s *Server) Stop() {
	s.mu.Lock()
	ns := s.ns
	s.ns = nil
	s.mu.Unlock()

	if ns == nil {
		return
	}
	s.logger.Info("Stopping embedded NATS server", "clients", ns.NumClients())
	ns.Shutdown()
	ns.WaitForShutdown()
}

// ClientURL returns the URL clients connect to. Before Start it is derived
// from the configured host and port.
func (s *Server) ClientURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ns == nil {
		return fmt.Sprintf("nats://%s:%d", s.opts.Host, s.opts.Port)
	}
	return s.ns.ClientURL()
}

// IsRunning reports whether the server accepts connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ns != nil && s.ns.Running()
}

// NumClients returns the number of connected clients.
func (s *Server) NumClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ns == nil {
		return 0
	}
	return s.ns.NumClients()
}
