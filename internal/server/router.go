package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyforge/tutorai/internal/api"
	"github.com/studyforge/tutorai/internal/api/handlers"
	"github.com/studyforge/tutorai/internal/api/middleware"
)

type RouterConfig struct {
	ChapterHandler *handlers.ChapterHandler
	AskHandler     *handlers.AskHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/chapters", func(r chi.Router) {
		r.Post("/", cfg.ChapterHandler.Ingest)
		r.Get("/", cfg.ChapterHandler.List)
		r.Get("/{id}", cfg.ChapterHandler.Get)
		r.Delete("/{id}", cfg.ChapterHandler.Delete)
	})

	r.Post("/ask", cfg.AskHandler.Ask)

	return r
}
