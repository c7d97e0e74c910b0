package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/coach-api/internal/api"
	apiMiddleware "github.com/phrazzld/coach-api/internal/api/middleware"
	"github.com/phrazzld/coach-api/internal/ratelimit"
)

// setupRouter mounts every endpoint. Generation submissions are rate
// limited per user and therefore sit behind authentication.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	h := app.handlers
	r.Route("/api", func(r chi.Router) {
		r.Use(app.auth.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(app.limiter, api.RateLimitKey))
			r.Post("/lessons/generate", h.generation.RequestLesson)
			r.Post("/lessons/{id}/regenerate", h.generation.RegenerateLesson)
			r.Post("/admin/books/generate", h.generation.RequestBook)
			r.Post("/admin/books/{id}/regenerate", h.generation.RegenerateBook)
			r.Post("/admin/books/{id}/fill", h.generation.FillBookContent)
			r.Post("/admin/chapters/{id}/regenerate", h.generation.RegenerateChapter)
		})
		r.Get("/generation/{id}", h.generation.Status)

		r.Post("/chat", h.chat.Chat)
		r.Post("/chat/voice", h.chat.VoiceChat)

		r.Get("/progress", h.progress.GetProgress)
		r.Post("/progress/time", h.progress.AddPracticeTime)

		r.Get("/lessons", h.library.ListLessons)
		r.Get("/lessons/{id}", h.library.GetLesson)
		r.Get("/library", h.library.Library)
		r.Get("/books/{id}", h.library.GetBook)

		r.Get("/admin/books", h.library.AdminBooks)
		r.Post("/admin/books/{id}/publish", h.library.Publish)
		r.Post("/admin/books/{id}/unpublish", h.library.Unpublish)
		r.Delete("/admin/books/{id}", h.library.DeleteBook)
		r.Get("/admin/settings/ai", h.settings.GetAISettings)
		r.Put("/admin/settings/ai", h.settings.UpdateAISettings)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
