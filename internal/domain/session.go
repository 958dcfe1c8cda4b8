package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// SessionState is the lifecycle state of one account attachment.
type SessionState string

const (
	SessionInitiating      SessionState = "initiating"
	SessionAwaitingPairing SessionState = "awaiting_pairing"
	SessionConnecting      SessionState = "connecting"
	SessionConnected       SessionState = "connected"
	SessionReconnecting    SessionState = "reconnecting"
	SessionAuthFailed      SessionState = "auth_failed"
	SessionClosed          SessionState = "closed"
)

// Terminal reports whether the state admits no further automatic transitions.
func (s SessionState) Terminal() bool {
	return s == SessionClosed || s == SessionAuthFailed
}

// SessionID derives the stable session identifier for an (account, owner)
// pair. Repeated attach requests for the same pair resolve to the same
// session instead of creating a new one.
func SessionID(accountAddress, ownerID string) string {
	sum := sha1.Sum([]byte(accountAddress + "|" + ownerID))
	return hex.EncodeToString(sum[:])[:16]
}

// SessionInfo is the caller-visible snapshot of a session. The live handle
// (with its client reference and lock) stays inside the session package;
// this is what status queries and the API layer see.
type SessionInfo struct {
	ID                string       `json:"id"`
	OwnerID           string       `json:"owner_id"`
	AccountAddress    string       `json:"account_address"`
	State             SessionState `json:"state"`
	PairingCode       string       `json:"pairing_code,omitempty"`
	ReconnectAttempts int          `json:"reconnect_attempts"`
	DirectorySize     int          `json:"directory_size"`
	DirectoryFetched  time.Time    `json:"directory_fetched,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}
