package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsections/internal/config"
	"github.com/dgallion1/docsections/internal/parser"
	"github.com/dgallion1/docsections/internal/pipeline"
)

// Server is the HTTP API in front of the collection pipeline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	decoder      parser.Decoder
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. dec decodes uploads
// for the outline endpoint.
func NewServer(orch *pipeline.Orchestrator, dec parser.Decoder, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		decoder:      dec,
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

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/outline", s.handleOutline)

		r.Get("/api/collections", s.handleListCollections)
		r.Post("/api/collections/{name}/run", s.handleRunCollection)
		r.Get("/api/collections/{name}/output", s.handleCollectionOutput)
		r.Get("/api/collections/{name}/report", s.handleCollectionReport)

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
