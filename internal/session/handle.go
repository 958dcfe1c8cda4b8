package session

import (
	"sync"
	"time"

	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/messenger"
)

// Handle is the live state of one account attachment. At most one
// underlying client exists per handle at any time; the controller is the
// only writer of the client reference and the state field. Other packages
// read snapshots via Info() and the client via Client().
type Handle struct {
	ID             string
	OwnerID        string
	AccountAddress string
	CreatedAt      time.Time

	mu                sync.Mutex
	state             domain.SessionState
	client            messenger.Client
	pairingCode       string
	reconnectAttempts int
	directory         domain.Directory
}

func newHandle(id, ownerID, accountAddress string) *Handle {
	return &Handle{
		ID:             id,
		OwnerID:        ownerID,
		AccountAddress: accountAddress,
		CreatedAt:      time.Now(),
		state:          domain.SessionInitiating,
	}
}

// State returns the current lifecycle state.
func (h *Handle) State() domain.SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Client returns the live client, or nil outside the connected/connecting
// states. Callers may invoke Send on it but never transition it.
func (h *Handle) Client() messenger.Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client
}

// Info returns the caller-visible snapshot of the handle.
func (h *Handle) Info() domain.SessionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return domain.SessionInfo{
		ID:                h.ID,
		OwnerID:           h.OwnerID,
		AccountAddress:    h.AccountAddress,
		State:             h.state,
		PairingCode:       h.pairingCode,
		ReconnectAttempts: h.reconnectAttempts,
		DirectorySize:     len(h.directory.Entries),
		DirectoryFetched:  h.directory.LastFetched,
		CreatedAt:         h.CreatedAt,
	}
}

// claimRestart resets a terminal handle back to initiating so an attach
// call can re-run setup. For non-terminal handles it reports false together
// with the observed state; the caller decides between "already connected"
// and "setup in progress".
func (h *Handle) claimRestart() (restarted bool, state domain.SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case domain.SessionAuthFailed, domain.SessionClosed:
		h.state = domain.SessionInitiating
		h.pairingCode = ""
		h.reconnectAttempts = 0
		h.client = nil
		return true, h.state
	default:
		return false, h.state
	}
}

// directorySnapshot returns the cached directory without copying entries;
// callers must not mutate the returned slice.
func (h *Handle) directorySnapshot() domain.Directory {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.directory
}

// setDirectory replaces the cache, but only while client is still the
// handle's current one: a fetch that raced a teardown or auth rejection
// must not write back.
func (h *Handle) setDirectory(client messenger.Client, entries []domain.DirectoryEntry, fetched time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != client {
		return
	}
	h.directory = domain.Directory{Entries: entries, LastFetched: fetched}
}
