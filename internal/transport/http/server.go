package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"streak-service/internal/logger"
)

// Server represents the HTTP API server
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new HTTP server
func NewServer(handler http.Handler, port int, readHeaderTimeout time.Duration) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
