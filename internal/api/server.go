package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/indexstore"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/qa"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docqa.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	synth        *qa.Synthesizer
	store        indexstore.Store
	gen          *generate.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. gen may be nil.
func NewServer(orch *pipeline.Orchestrator, synth *qa.Synthesizer, store indexstore.Store, gen *generate.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		synth:        synth,
		store:        store,
		gen:          gen,
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

		r.Post("/api/documents", s.handleUpload)
		r.Route("/api/documents/{documentID}", func(r chi.Router) {
			r.Post("/ask", s.handleAsk)
			r.Get("/summary", s.handleSummary)
			r.Get("/preview", s.handlePreview)
			r.Get("/pages", s.handlePages)
			r.Delete("/", s.handleDelete)
		})
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
