package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studytube-backend/internal/handlers"
	"studytube-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	contentHandler *handlers.ContentHandler,
	jobHandler *handlers.JobHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Submission rate limiter (30 req/min per IP)
	submitLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/content", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(submitLimiter.Middleware)
				r.Post("/", contentHandler.Submit)
			})

			r.Get("/{id}", contentHandler.GetContent)
			r.Get("/{id}/status", jobHandler.GetStatus)
			r.Post("/{id}/reprocess", contentHandler.Reprocess)
		})
	})

	return r
}
