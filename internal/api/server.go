// Package api exposes the sheet build pipeline over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/dgriffen/mksheets/internal/config"
	"github.com/dgriffen/mksheets/internal/pipeline"
	"github.com/dgriffen/mksheets/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for the sheet service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *render.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, stats *render.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sheets", s.handleSubmit)
		r.Get("/api/sheets", s.handleListJobs)
		r.Get("/api/sheets/{jobID}/status", s.handleStatus)
		r.Get("/api/sheets/{jobID}/document", s.handleDocument)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
