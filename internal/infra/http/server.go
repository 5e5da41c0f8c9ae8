// Package http hosts the HTTP server, router abstraction and the
// middleware chain the API runs behind.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/internal/infra/http/middleware"
	"github.com/covermapio/api/pkg/logger"
)

// Server represents the HTTP server.
type Server struct {
	httpServer   *http.Server
	router       Router
	config       *config.Config
	logger       *logger.Logger
	cleanupFuncs []func()
}

// ServerOption is a function that configures the server.
type ServerOption func(*Server)

// WithRouter sets a custom router implementation.
func WithRouter(r Router) ServerOption {
	return func(s *Server) {
		s.router = r
	}
}

// NewServer creates a new HTTP server with the global middleware chain
// applied. By default it uses the Chi router.
func NewServer(cfg *config.Config, log *logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		config: cfg,
		logger: log,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.router == nil {
		s.router = NewChiRouter()
	}

	rateLimitMw, rateLimitStop := middleware.RateLimitWithStop(&cfg.RateLimit, log)
	s.cleanupFuncs = append(s.cleanupFuncs, rateLimitStop)

	// Order matters: recovery outermost, logging after the request has
	// an ID and a deadline.
	s.router.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(&cfg.CORS),
		middleware.BodyLimit(cfg.Server.MaxBodySize),
		middleware.Decompress(nil),
		rateLimitMw,
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.Metrics(),
		middleware.Logger(log),
	)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	return s
}

// Router returns the router for registering handlers.
func (s *Server) Router() Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.config.Server.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	for _, cleanup := range s.cleanupFuncs {
		cleanup()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
