// Package http serves the price form, the JSON API and the websocket
// prediction stream.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"houseprice/monitoring"
)

// Server wraps http.Server with the middleware chain.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig is the listener configuration.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// DefaultServerConfig matches the defaults of config.Default.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           3000,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer registers h on a fresh mux and wraps it in the middleware chain.
func NewServer(config ServerConfig, h *Handler, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           NewRouter(config, h, metrics, logger),
			ReadHeaderTimeout: config.Timeout,
			ReadTimeout:       config.Timeout,
			WriteTimeout:      config.Timeout,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          zap.NewStdLog(logger),
		},
		config: config,
		logger: logger,
	}
}

// NewRouter returns the fully wrapped handler. Tests use it directly.
func NewRouter(config ServerConfig, h *Handler, metrics *monitoring.MetricsCollector, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
	}
	if metrics != nil {
		middlewares = append(middlewares, MetricsMiddleware(metrics))
	}
	middlewares = append(middlewares,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(config.MaxBodyBytes),
	)

	return Chain(middlewares...)(mux)
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("websocket", fmt.Sprintf("ws://localhost%s/ws/predict", s.server.Addr)),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
