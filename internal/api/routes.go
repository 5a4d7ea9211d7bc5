package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 30 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(timeoutMiddleware(requestTimeout))
		r.Use(s.authMiddleware)

		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Get("/due", s.handleDueCards)
			r.Post("/review", s.handleReview)
			r.Get("/progress", s.handleProgress)
			r.Post("/capture", s.handleCapture)
			r.Post("/import", s.handleImportCards)
			r.Delete("/{id}", s.handleDeleteCard)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Delete("/{id}", s.handleDeleteBook)
		})

		r.Route("/activity", func(r chi.Router) {
			r.With(s.rateLimitMiddleware).Post("/", s.handleRecordActivity)
			r.With(s.rateLimitMiddleware).Post("/batch", s.handleRecordBatch)
			r.Get("/status", s.handleActivityStatus)
		})

		r.Get("/user/level", s.handleUserLevel)
	})

	return r
}
