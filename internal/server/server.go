// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes harvest jobs over HTTP: submit, poll, stream the
// live log, download a zip of the results, and delete.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pdiddy/oa-harvest/internal/jobs"
	"github.com/pdiddy/oa-harvest/internal/progress"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

const (
	DefaultAddr            = ":5000"
	DefaultShutdownTimeout = 10 * time.Second
)

// JobService is the job lifecycle the handlers drive. *jobs.Runner
// implements it.
type JobService interface {
	Submit(ctx context.Context, sub jobs.Submission) (types.Job, error)
	Get(ctx context.Context, id string) (types.Job, error)
	List(ctx context.Context) ([]types.Job, error)
	Follow(id string) *progress.Log
	OutputDir(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// Server is the job service HTTP front end.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	jobs       JobService
	validate   *validator.Validate
	metrics    http.Handler
	logger     zerolog.Logger
	shutdown   time.Duration
}

// New builds a Server. metricsHandler is mounted at /metrics when non-nil.
func New(cfg types.ServerConfig, svc JobService, metricsHandler http.Handler, logger zerolog.Logger) *Server {
	s := &Server{
		jobs:     svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metricsHandler,
		logger:   logger.With().Str("component", "http-server").Logger(),
		shutdown: cfg.ShutdownTimeout,
	}
	if s.shutdown <= 0 {
		s.shutdown = DefaultShutdownTimeout
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	s.router = s.buildRouter()
	// No write timeout: event streams stay open for the life of a job.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.submitJob)
		r.Get("/", s.listJobs)
		r.Get("/{jobID}", s.getJob)
		r.Delete("/{jobID}", s.deleteJob)
		r.Get("/{jobID}/stream", s.streamJob)
		r.Get("/{jobID}/archive", s.downloadArchive)
	})

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request. Event streams are logged when
// they end.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
