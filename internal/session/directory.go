package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/messenger"
)

// Directory returns the session's group/channel listing. A cached copy
// within the freshness window is served without I/O; force bypasses the
// freshness check unconditionally. cacheHit reports which path was taken.
func (c *Controller) Directory(ctx context.Context, sessionID, ownerID string, force bool) (entries []domain.DirectoryEntry, cacheHit bool, err error) {
	h, err := c.reg.Get(sessionID, ownerID)
	if err != nil {
		return nil, false, err
	}

	if !force {
		if d := h.directorySnapshot(); d.Fresh(c.cfg.DirectoryTTL(), time.Now()) {
			return d.Entries, true, nil
		}
	}

	h.mu.Lock()
	client := h.client
	state := h.state
	h.mu.Unlock()
	if client == nil || state != domain.SessionConnected {
		return nil, false, fmt.Errorf("session %s is %s, directory fetch requires connected: %w",
			sessionID, state, domain.ErrConflict)
	}

	entries, err = c.fetchDirectory(ctx, h, client)
	if err != nil {
		return nil, false, err
	}
	return entries, false, nil
}

// fetchDirectory issues the underlying fetch, sorts for deterministic
// presentation, and replaces the cache. On failure the cache is left
// untouched — no partial overwrite.
func (c *Controller) fetchDirectory(ctx context.Context, h *Handle, client messenger.Client) ([]domain.DirectoryEntry, error) {
	entries, err := client.FetchDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch directory for %s: %w", h.ID, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DisplayName < entries[j].DisplayName
	})
	h.setDirectory(client, entries, time.Now())
	return entries, nil
}
