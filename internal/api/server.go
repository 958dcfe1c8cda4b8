package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/chat-gateway/internal/config"
	"github.com/ignite/chat-gateway/internal/dispatch"
	"github.com/ignite/chat-gateway/internal/session"
)

// Server represents the API server.
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	handlers *Handlers
	server   *http.Server
}

// NewServer creates the API server around the session controller and
// dispatch engine.
func NewServer(cfg config.ServerConfig, sessions *session.Controller, engine *dispatch.Engine) *Server {
	handlers := NewHandlers(sessions, engine)
	return &Server{
		config:   cfg,
		router:   SetupRoutes(handlers),
		handlers: handlers,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
		// The attach endpoint legitimately blocks for the pairing window,
		// so the write timeout sits comfortably above it.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}
