package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/chat-gateway/internal/dispatch"
	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/pkg/httputil"
	"github.com/ignite/chat-gateway/internal/session"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	sessions  *session.Controller
	engine    *dispatch.Engine
	startTime time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(sessions *session.Controller, engine *dispatch.Engine) *Handlers {
	return &Handlers{
		sessions:  sessions,
		engine:    engine,
		startTime: time.Now(),
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ownerID resolves the tenant identifier for a request: the X-Owner-ID
// header wins, then the owner_id query parameter, then the body-supplied
// fallback. Empty means the request cannot be scoped and must be rejected.
func ownerID(r *http.Request, bodyOwner string) string {
	if v := r.Header.Get("X-Owner-ID"); v != "" {
		return v
	}
	if v := r.URL.Query().Get("owner_id"); v != "" {
		return v
	}
	return bodyOwner
}

func requireOwner(w http.ResponseWriter, r *http.Request, bodyOwner string) (string, bool) {
	owner := ownerID(r, bodyOwner)
	if owner == "" {
		httputil.DomainError(w, fmt.Errorf("owner id is required: %w", domain.ErrInvalidRequest))
		return "", false
	}
	return owner, true
}
