// Package server exposes the detection loop, presets and the latent
// generator over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayusman/teamfinger/internal/app"
	"github.com/ayusman/teamfinger/internal/latent"
	"github.com/ayusman/teamfinger/internal/logging"
	"github.com/ayusman/teamfinger/internal/metrics"
	"github.com/ayusman/teamfinger/internal/server/api"
	"github.com/ayusman/teamfinger/internal/store"
)

// Loop is the running detection loop as seen by HTTP clients.
type Loop interface {
	api.SketchRunner
	State() app.State
	Snapshot() app.FrameState
	JPEG() ([]byte, uint64)
	Subscribe() (<-chan app.FrameState, func())
}

// Config holds the server configuration. Every field is optional; routes
// whose dependency is missing are not mounted.
type Config struct {
	StaticDir string
	Store     *store.Store
	Loop      Loop
	Walk      *latent.Walk
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
	logger *slog.Logger
}

// New creates a Server and mounts its routes.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		if s.config.Store != nil {
			var runner api.SketchRunner
			if s.config.Loop != nil {
				runner = s.config.Loop
			}
			api.NewPresetHandler(s.config.Store, runner, s.logger).Routes(r)
		}

		var generated prometheus.Counter
		if s.config.Metrics != nil {
			generated = s.config.Metrics.GeneratedImages
		}
		api.NewLatentHandler(s.config.Walk, s.config.Store, generated, s.logger).Routes(r)

		if s.config.Loop != nil {
			r.Handle("/stream", NewStreamHandler(s.config.Loop))
			r.Handle("/state", NewStateHandler(s.config.Loop, s.logger))
		}
	})

	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Loop   string `json:"loop,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Millisecond).String(),
	}
	if s.config.Loop != nil {
		resp.Loop = s.config.Loop.State().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		return nil
	}
}
