package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ignite/chat-gateway/internal/config"
	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/messenger"
	"github.com/ignite/chat-gateway/internal/pkg/logger"
)

// Controller drives session handles through their lifecycle state machine.
// It is the only component that mutates a handle's client reference: the
// dispatch engine reads the client and calls Send, nothing more.
type Controller struct {
	reg    *Registry
	dialer messenger.Dialer
	creds  messenger.CredentialStore
	cfg    config.SessionConfig
}

// NewController creates a lifecycle controller. The registry is injected so
// tests can construct a fresh one per case.
func NewController(reg *Registry, dialer messenger.Dialer, creds messenger.CredentialStore, cfg config.SessionConfig) *Controller {
	return &Controller{reg: reg, dialer: dialer, creds: creds, cfg: cfg}
}

// Registry exposes the owner-gated session registry.
func (c *Controller) Registry() *Registry { return c.reg }

// Attach brings up a session for (accountAddress, ownerID). The call is
// idempotent per pair: an already-connected session returns its current
// state without reconnecting, a session mid-setup fails with ErrConflict,
// and a session in a terminal state is restarted.
//
// The call waits up to the configured pairing window for a terminal event
// (pairing code issued, connected, or auth rejected). On timeout it returns
// ErrTimeout but the background lifecycle continues; callers may poll.
func (c *Controller) Attach(ctx context.Context, accountAddress, ownerID string) (domain.SessionInfo, error) {
	if accountAddress == "" || ownerID == "" {
		return domain.SessionInfo{}, fmt.Errorf("account address and owner are required: %w", domain.ErrInvalidRequest)
	}

	id := domain.SessionID(accountAddress, ownerID)
	h, created := c.reg.ensure(id, ownerID, accountAddress)
	if !created {
		switch restarted, state := h.claimRestart(); {
		case state == domain.SessionConnected:
			return h.Info(), nil
		case !restarted:
			return h.Info(), fmt.Errorf("session %s setup in progress (state %s): %w", id, state, domain.ErrConflict)
		}
		// terminal handle reclaimed; fall through to a fresh setup
	}

	creds, err := c.creds.Load(ctx, id)
	if err != nil {
		c.reg.remove(id)
		return domain.SessionInfo{}, fmt.Errorf("load credentials: %w", err)
	}

	client, err := c.dialer.Dial(ctx, accountAddress, creds)
	if err != nil {
		c.reg.remove(id)
		return domain.SessionInfo{}, fmt.Errorf("dial: %w", err)
	}

	h.mu.Lock()
	h.client = client
	if creds != nil {
		h.state = domain.SessionConnecting
	} else {
		h.state = domain.SessionAwaitingPairing
	}
	h.mu.Unlock()

	outcome := make(chan domain.SessionState, 1)
	go c.listen(h, client, outcome)

	select {
	case st := <-outcome:
		if st == domain.SessionAuthFailed {
			return h.Info(), fmt.Errorf("attach %s: %w", id, domain.ErrAuthFailed)
		}
		return h.Info(), nil
	case <-time.After(c.cfg.PairingWait()):
		return h.Info(), fmt.Errorf("attach %s: %w", id, domain.ErrTimeout)
	case <-ctx.Done():
		return h.Info(), fmt.Errorf("attach %s: %w", id, ctx.Err())
	}
}

// Delete tears the session down: removes it from the registry, closes the
// client, and erases persisted credentials. A pending reconnect timer finds
// the registry entry gone and never resurrects the session.
func (c *Controller) Delete(ctx context.Context, sessionID, ownerID string) error {
	h, err := c.reg.Get(sessionID, ownerID)
	if err != nil {
		return err
	}
	c.reg.remove(sessionID)

	h.mu.Lock()
	client := h.client
	h.client = nil
	h.state = domain.SessionClosed
	h.pairingCode = ""
	h.mu.Unlock()

	if client != nil {
		_ = client.Close()
	}
	if err := c.creds.Delete(ctx, sessionID); err != nil {
		logger.Warn("failed to erase credentials", "session", sessionID, "error", err.Error())
	}
	logger.Info("session deleted", "session", sessionID)
	return nil
}

// Sessions returns status snapshots for every session owned by ownerID.
func (c *Controller) Sessions(ownerID string) []domain.SessionInfo {
	return c.reg.ListByOwner(ownerID)
}

// SessionInfo returns the status snapshot for one session.
func (c *Controller) SessionInfo(sessionID, ownerID string) (domain.SessionInfo, error) {
	h, err := c.reg.Get(sessionID, ownerID)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	return h.Info(), nil
}

// Shutdown closes every live client. Called on process exit; in-memory
// session state is discarded, persisted credentials survive.
func (c *Controller) Shutdown(ctx context.Context) {
	handles := c.reg.all()
	for _, h := range handles {
		h.mu.Lock()
		client := h.client
		h.client = nil
		h.state = domain.SessionClosed
		h.mu.Unlock()
		if client != nil {
			_ = client.Close()
		}
	}
	logger.Info("session controller shut down", "sessions", fmt.Sprintf("%d", len(handles)))
}

// listen consumes one client's event stream and translates events into
// state-machine transitions. One listener goroutine exists per live client.
// outcome, when non-nil, receives the first notable state so a waiting
// Attach call can return; later sends are dropped.
func (c *Controller) listen(h *Handle, client messenger.Client, outcome chan<- domain.SessionState) {
	notify := func(st domain.SessionState) {
		if outcome != nil {
			select {
			case outcome <- st:
			default:
			}
		}
	}

	for ev := range client.Events() {
		switch ev.Kind {
		case messenger.EventPairingCode:
			code := ev.PairingCode
			if code == "" {
				code = derivePairingCode(ev.RawPairing)
			}
			h.mu.Lock()
			if h.client == client {
				h.pairingCode = code
				h.state = domain.SessionAwaitingPairing
			}
			h.mu.Unlock()
			logger.Info("pairing code issued", "session", h.ID)
			notify(domain.SessionAwaitingPairing)

		case messenger.EventConnected:
			c.onConnected(h, client, ev.SelfAddress)
			notify(domain.SessionConnected)

		case messenger.EventDisconnected:
			if ev.Reason == messenger.CloseAuthRejected {
				c.onAuthRejected(h, client)
				notify(domain.SessionAuthFailed)
				return
			}
			c.onTransportDrop(h, client)
			return
		}
	}
	// Event stream closed without a disconnect event. If the client is
	// still the handle's current one this is an unannounced drop.
	c.onTransportDrop(h, client)
}

func (c *Controller) onConnected(h *Handle, client messenger.Client, selfAddress string) {
	h.mu.Lock()
	if h.client != client {
		h.mu.Unlock()
		return
	}
	h.state = domain.SessionConnected
	h.pairingCode = ""
	h.reconnectAttempts = 0
	h.mu.Unlock()
	logger.Info("session connected", "session", h.ID, "account", selfAddress)

	if creds := client.Credentials(); creds != nil {
		if err := c.creds.Save(context.Background(), h.ID, creds); err != nil {
			logger.Warn("failed to persist credentials", "session", h.ID, "error", err.Error())
		}
	}

	// Warm the directory cache after (re)connect. Best effort.
	go func() {
		if _, err := c.fetchDirectory(context.Background(), h, client); err != nil {
			logger.Debug("post-connect directory refresh failed", "session", h.ID, "error", err.Error())
		}
	}()
}

func (c *Controller) onAuthRejected(h *Handle, client messenger.Client) {
	h.mu.Lock()
	if h.client != client {
		h.mu.Unlock()
		return
	}
	h.client = nil
	h.state = domain.SessionAuthFailed
	h.pairingCode = ""
	h.directory = domain.Directory{}
	h.mu.Unlock()

	_ = client.Close()
	// Stale credentials must never be presented as valid again.
	if err := c.creds.Delete(context.Background(), h.ID); err != nil {
		logger.Warn("failed to erase rejected credentials", "session", h.ID, "error", err.Error())
	}
	logger.Warn("authentication rejected, session requires re-pairing", "session", h.ID)
}

func (c *Controller) onTransportDrop(h *Handle, client messenger.Client) {
	h.mu.Lock()
	if h.client != client {
		// Already detached: explicit delete, shutdown, or a newer client.
		h.mu.Unlock()
		return
	}
	if h.state != domain.SessionConnecting && h.state != domain.SessionConnected {
		// Dropped before a connection was ever established, typically
		// mid-pairing. There is nothing to resume: detach, clear the stale
		// pairing code, and close so a later attach can start over.
		h.client = nil
		h.pairingCode = ""
		if !h.state.Terminal() {
			h.state = domain.SessionClosed
		}
		h.mu.Unlock()
		_ = client.Close()
		logger.Warn("transport dropped before connect, closing session", "session", h.ID)
		return
	}
	h.client = nil
	h.state = domain.SessionReconnecting
	h.mu.Unlock()

	// The previous client is fully discarded before a new one is created,
	// so two sockets never race over the same credential state.
	_ = client.Close()
	logger.Warn("transport dropped, scheduling reconnect", "session", h.ID)
	time.AfterFunc(c.cfg.ReconnectDelay(), func() { c.tryReconnect(h.ID) })
}

// tryReconnect runs one bounded reconnect attempt. The registry is checked
// first: a deleted session must never be resurrected by a pending timer.
func (c *Controller) tryReconnect(sessionID string) {
	h, ok := c.reg.lookup(sessionID)
	if !ok {
		return
	}

	h.mu.Lock()
	if h.state != domain.SessionReconnecting {
		h.mu.Unlock()
		return
	}
	h.reconnectAttempts++
	attempts := h.reconnectAttempts
	if attempts > c.cfg.ReconnectBudget() {
		h.state = domain.SessionClosed
		h.mu.Unlock()
		logger.Error("reconnect budget exhausted, closing session",
			"session", sessionID, "attempts", fmt.Sprintf("%d", attempts-1))
		return
	}
	h.mu.Unlock()

	creds, err := c.creds.Load(context.Background(), sessionID)
	if err != nil {
		logger.Warn("reconnect credential load failed", "session", sessionID, "error", err.Error())
		time.AfterFunc(c.cfg.ReconnectDelay(), func() { c.tryReconnect(sessionID) })
		return
	}
	if creds == nil {
		// Nothing to resume with; the caller must re-pair.
		h.mu.Lock()
		if h.state == domain.SessionReconnecting {
			h.state = domain.SessionClosed
		}
		h.mu.Unlock()
		logger.Error("no stored credentials for reconnect, closing session", "session", sessionID)
		return
	}

	client, err := c.dialer.Dial(context.Background(), h.AccountAddress, creds)
	if err != nil {
		logger.Warn("reconnect dial failed", "session", sessionID,
			"attempt", fmt.Sprintf("%d", attempts), "error", err.Error())
		time.AfterFunc(c.cfg.ReconnectDelay(), func() { c.tryReconnect(sessionID) })
		return
	}

	h.mu.Lock()
	if h.state != domain.SessionReconnecting {
		h.mu.Unlock()
		_ = client.Close()
		return
	}
	h.client = client
	h.state = domain.SessionConnecting
	h.mu.Unlock()

	logger.Info("reconnect attempt dialed", "session", sessionID, "attempt", fmt.Sprintf("%d", attempts))
	go c.listen(h, client, nil)
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// derivePairingCode produces a human-enterable 6-character code from a raw
// pairing payload when the network does not offer a direct code. Contained
// to the pairing path; never feeds back into state transitions.
func derivePairingCode(raw string) string {
	s := strings.ToUpper(nonAlnum.ReplaceAllString(raw, ""))
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}
