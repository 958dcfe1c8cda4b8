package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/chat-gateway/internal/pkg/httputil"
)

// HandleAttachSession brings up (or re-pairs) a session for an account.
// The response carries the current lifecycle state and, while the account
// is unauthenticated, the pairing code to enter on the remote device.
func (h *Handlers) HandleAttachSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountAddress string `json:"account_address"`
		OwnerID        string `json:"owner_id"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	owner, ok := requireOwner(w, r, input.OwnerID)
	if !ok {
		return
	}

	info, err := h.sessions.Attach(r.Context(), input.AccountAddress, owner)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, info)
}

// HandleListSessions returns every session visible to the owner.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	httputil.OK(w, map[string]any{
		"sessions": h.sessions.Sessions(owner),
	})
}

// HandleGetSession returns one session's status snapshot.
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	info, err := h.sessions.SessionInfo(chi.URLParam(r, "id"), owner)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, info)
}

// HandleDirectory returns the session's group/channel listing.
// ?refresh=true bypasses the freshness window.
func (h *Handlers) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	force := r.URL.Query().Get("refresh") == "true"
	entries, cacheHit, err := h.sessions.Directory(r.Context(), chi.URLParam(r, "id"), owner, force)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"entries":   entries,
		"cache_hit": cacheHit,
	})
}

// HandleDeleteSession closes the client and erases persisted credentials.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(r.Context(), id, owner); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"id": id, "deleted": true})
}
