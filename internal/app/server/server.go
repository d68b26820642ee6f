package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"loglens/internal/app/errors"
	"loglens/internal/app/host"
	"loglens/internal/app/protocol"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// Server accepts panel connections on the unix socket and attaches each
// one to the host service as its own protocol channel.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
	SocketPath() string
}

// server implements the Server interface
type server struct {
	cfg      *config.Config
	svc      host.Service
	log      logger.Logger
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
	connID   atomic.Int64
	cancel   context.CancelFunc
	mu       sync.Mutex
	conns    map[int64]net.Conn
}

// NewServer creates a protocol server
func NewServer(cfg *config.Config, svc host.Service, log logger.Logger) Server {
	return &server{
		cfg:   cfg,
		svc:   svc,
		log:   log.WithComponent("SERVER"),
		conns: make(map[int64]net.Conn),
	}
}

// SocketPath returns the socket the server listens on
func (s *server) SocketPath() string {
	return s.cfg.Socket
}

// Start begins listening on the unix socket
func (s *server) Start(ctx context.Context) error {
	if err := s.cleanupStaleSocket(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrFailedToCleanupSocket, err)
	}

	listener, err := net.Listen("unix", s.cfg.Socket)
	if err != nil {
		return fmt.Errorf("%w %s: %w", errors.ErrFailedToListenSocket, s.cfg.Socket, err)
	}

	s.listener = listener
	s.running.Store(true)
	s.log.Info().Msgf("Server listening on %s", s.cfg.Socket)

	serverCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.acceptConnections(serverCtx)
	}()

	return nil
}

// Stop stops the server and cleans up the socket file
func (s *server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)

	if s.cancel != nil {
		s.cancel()
	}

	if s.listener != nil {
		s.listener.Close()
	}

	s.closeConnections()
	s.wg.Wait()

	if err := os.Remove(s.cfg.Socket); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Msgf("Failed to remove socket file: %s", s.cfg.Socket)
	}

	s.log.Info().Msg("Server stopped")

	return nil
}

// cleanupStaleSocket removes a leftover socket file if nothing answers
func (s *server) cleanupStaleSocket() error {
	if _, err := os.Stat(s.cfg.Socket); os.IsNotExist(err) {
		return nil
	}

	conn, err := net.DialTimeout("unix", s.cfg.Socket, config.SocketDialTimeout)
	if err == nil {
		conn.Close()

		return fmt.Errorf("%w: %s", errors.ErrSocketAlreadyInUse, s.cfg.Socket)
	}

	s.log.Info().Msgf("Removing stale socket: %s", s.cfg.Socket)

	return os.Remove(s.cfg.Socket)
}

// acceptConnections handles incoming panel connections
func (s *server) acceptConnections(ctx context.Context) {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.log.Error().Err(err).Msg("Failed to accept connection")
			}

			continue
		}

		s.wg.Add(1)

		go func(c net.Conn) {
			defer s.wg.Done()

			s.handleConnection(ctx, c)
		}(conn)
	}
}

// closeConnections closes every live panel connection so their channel
// loops unblock from pending reads during shutdown.
func (s *server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conn := range s.conns {
		conn.Close()
	}
}

// handleConnection runs one panel's channel until it disconnects
func (s *server) handleConnection(ctx context.Context, conn net.Conn) {
	connID := s.connID.Add(1)

	s.mu.Lock()
	s.conns[connID] = conn
	s.mu.Unlock()

	// A stop racing the accept may have swept the map before this
	// connection was registered.
	if !s.running.Load() {
		conn.Close()
	}

	s.log.Debug().Msgf("Panel connected: panel-%d", connID)

	ch := protocol.NewChannel(protocol.NewConnTransport(conn), s.log)
	detach := s.svc.Attach(ch)

	defer func() {
		detach()
		ch.Close()

		s.mu.Lock()
		delete(s.conns, connID)
		s.mu.Unlock()

		s.log.Debug().Msgf("Panel disconnected: panel-%d", connID)
	}()

	if err := ch.Run(ctx); err != nil {
		s.log.Debug().Err(err).Msgf("Channel for panel-%d ended", connID)
	}
}
