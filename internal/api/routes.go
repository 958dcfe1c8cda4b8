package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Owner-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleAttachSession)
			r.Get("/", h.HandleListSessions)
			r.Get("/{id}", h.HandleGetSession)
			r.Get("/{id}/directory", h.HandleDirectory)
			r.Delete("/{id}", h.HandleDeleteSession)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.HandleStartTask)
			r.Get("/{id}", h.HandleGetTask)
			r.Post("/{id}/stop", h.HandleStopTask)
		})
	})

	return r
}
