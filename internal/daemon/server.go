package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/api"
	"github.com/shyndman/whatsapp-mcp/internal/config"
)

// Server manages the HTTP server lifecycle for a session daemon.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer binds the API handlers to the configured loopback address. The
// listener opens here so a bad address fails startup instead of surfacing
// later from a background goroutine.
func NewServer(p Params, cfg *config.Config, handlers *api.Server, logger *zap.Logger) (*Server, error) {
	addr := p.ListenAddr
	if addr == "" {
		addr = cfg.Daemon.ListenAddr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &Server{
		httpServer: &http.Server{Handler: handlers.Handler()},
		listener:   listener,
		logger:     logger,
	}, nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins serving requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.Addr()))
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("http server stopping")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown error", zap.Error(err))
	}
}
