// Package statusserver exposes the live session report over a local HTTP
// endpoint while a dashabr session is playing.
package statusserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ReportProvider returns the current session report snapshot, serialized
// as it stands at the moment of the request.
type ReportProvider func() any

// Config configures a Server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DefaultShutdownTimeout bounds how long Shutdown waits for in-flight
// requests to drain.
const DefaultShutdownTimeout = 5 * time.Second

// Server serves GET /status with the live session report.
type Server struct {
	cfg        Config
	provider   ReportProvider
	logger     *slog.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// New creates a Server that answers GET /status with provider()'s
// current value, JSON-encoded.
func New(cfg Config, provider ReportProvider, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)

	s := &Server{cfg: cfg, provider: provider, logger: logger, router: router}
	router.Get("/status", s.handleStatus)
	return s
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(s.provider()); err != nil {
		s.logger.Error("encoding status response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Start begins serving and blocks until the server stops or errors.
// Run it in its own goroutine alongside the Scheduler.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	s.logger.Info("starting status server", slog.String("addr", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting status server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
