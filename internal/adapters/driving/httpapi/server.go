package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/hotelrag/internal/logger"
)

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:8000"
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:8000).
	Addr string

	// RequestTimeout bounds each request including model calls (default: 2m).
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

// Server serves the hotelrag HTTP API.
type Server struct {
	ports  *Ports
	cfg    Config
	engine *gin.Engine
}

// NewServer creates a new HTTP server with the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), requestTimeout(cfg.RequestTimeout))

	s := &Server{
		ports:  ports,
		cfg:    cfg,
		engine: engine,
	}
	s.registerRoutes()

	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Run listens on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("HTTP API listening on %s", s.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.POST("/ask", s.handleAsk)
	s.engine.POST("/analytics", s.handleAnalytics)
	s.engine.GET("/query-history", s.handleHistory)
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/index/rebuild", s.handleRebuild)
}
