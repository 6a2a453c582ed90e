// Package server exposes the assessment engine, the question catalog and
// the professional directory over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/wellmind/assessment-api/internal/assessment"
	"github.com/wellmind/assessment-api/internal/store"
)

// Config holds the HTTP-facing knobs the server needs.
type Config struct {
	AllowedOrigins []string
	// RateLimit is submissions per second allowed on the assessment
	// endpoints; RateBurst is the burst size. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server wires the stores and the evaluator into an HTTP handler.
type Server struct {
	store store.Store
	eval  *assessment.Evaluator
	cfg   Config
}

// New creates a Server over the given store and evaluator.
func New(st store.Store, eval *assessment.Evaluator, cfg Config) *Server {
	return &Server{store: st, eval: eval, cfg: cfg}
}

// Router builds the chi router with the full middleware stack and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/assessment", func(r chi.Router) {
			r.Get("/questions", s.handleAssessmentQuestions)
			r.Group(func(r chi.Router) {
				r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
				r.Post("/submit", s.handleSubmit)
				r.Post("/preview", s.handlePreview)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", s.handleListQuestions)
			r.Post("/", s.handleCreateQuestion)
			r.Get("/{id}", s.handleGetQuestion)
			r.Put("/{id}", s.handleUpdateQuestion)
			r.Delete("/{id}", s.handleDeleteQuestion)
		})

		r.Route("/professionals", func(r chi.Router) {
			r.Get("/", s.handleListProfessionals)
			r.Post("/", s.handleCreateProfessional)
			r.Get("/nearby", s.handleNearbyProfessionals)
			r.Get("/specializations", s.handleSpecializations)
			r.Get("/{id}", s.handleGetProfessional)
			r.Put("/{id}", s.handleUpdateProfessional)
			r.Delete("/{id}", s.handleDeleteProfessional)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
