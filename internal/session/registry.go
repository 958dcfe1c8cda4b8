package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ignite/chat-gateway/internal/domain"
)

// Registry is the single source of truth for live session handles. It is a
// concurrency-safe map plus the ownership gate: a handle belonging to one
// owner is never returned to another. The lock is scoped to map mutation
// only, never held across I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handle
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Handle)}
}

// Get returns the handle for sessionID after the ownership check.
// An unknown ID yields ErrNotFound; a known ID under a different owner
// yields ErrAccessDenied so callers can distinguish the two.
func (r *Registry) Get(sessionID, ownerID string) (*Handle, error) {
	r.mu.RLock()
	h, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if h.OwnerID != ownerID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrAccessDenied)
	}
	return h, nil
}

// lookup returns the handle without the ownership gate. For controller
// internals only (reconnect timers, shutdown).
func (r *Registry) lookup(sessionID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[sessionID]
	return h, ok
}

// ensure returns the existing handle for sessionID or atomically creates a
// fresh one. created reports which happened, so concurrent attach calls for
// the same pair cannot both start a client.
func (r *Registry) ensure(sessionID, ownerID, accountAddress string) (h *Handle, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sessionID]; ok {
		return existing, false
	}
	h = newHandle(sessionID, ownerID, accountAddress)
	r.sessions[sessionID] = h
	return h, true
}

// remove deletes the handle and returns it, if present.
func (r *Registry) remove(sessionID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	return h, ok
}

// ListByOwner returns snapshots of every session belonging to ownerID,
// sorted by account address for stable presentation.
func (r *Registry) ListByOwner(ownerID string) []domain.SessionInfo {
	r.mu.RLock()
	var handles []*Handle
	for _, h := range r.sessions {
		if h.OwnerID == ownerID {
			handles = append(handles, h)
		}
	}
	r.mu.RUnlock()

	out := make([]domain.SessionInfo, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountAddress < out[j].AccountAddress })
	return out
}

// all returns every handle regardless of owner. For shutdown teardown.
func (r *Registry) all() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.sessions))
	for _, h := range r.sessions {
		out = append(out, h)
	}
	return out
}
