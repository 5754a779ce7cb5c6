// Package server exposes health and status endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"minigame-bot/internal/status"
)

// healthCheckTimeout bounds the storage ping.
const healthCheckTimeout = 5 * time.Second

// HealthChecker is implemented by the storage backends.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves /healthz and /status.
type Server struct {
	srv       *http.Server
	db        HealthChecker
	collector *status.Collector
}

// New creates a server on addr. db may be nil when no storage is configured.
func New(addr string, db HealthChecker, collector *status.Collector) *Server {
	s := &Server{db: db, collector: collector}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"bot": "ok"}
	body := map[string]any{"status": "healthy", "checks": checks}
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			body["status"] = "degraded"
			checks["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	writeJSON(w, code, body)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusOK, status.Report{Sessions: map[string]int{}})
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Report())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.srv.Addr).Msg("Status server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
