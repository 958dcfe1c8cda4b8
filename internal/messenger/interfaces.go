// Package messenger defines the interfaces for the account-connection
// capability: the external protocol implementation that actually speaks to
// the messaging network.
//
// The session controller and dispatch engine consume these interfaces and
// never import a concrete protocol library. A simulated implementation
// lives in fake.go for tests and for running the server without network
// access.
package messenger

import (
	"context"

	"github.com/ignite/chat-gateway/internal/domain"
)

// EventKind identifies one lifecycle event emitted by a client.
type EventKind string

const (
	// EventPairingCode is emitted while the account is unauthenticated and
	// the network has issued a pairing challenge.
	EventPairingCode EventKind = "pairing_code"
	// EventConnected is emitted once the handshake completes.
	EventConnected EventKind = "connected"
	// EventDisconnected is emitted when the connection closes for any
	// reason; Reason distinguishes auth rejection from a transport drop.
	EventDisconnected EventKind = "disconnected"
)

// CloseReason classifies a disconnect.
type CloseReason string

const (
	CloseTransport    CloseReason = "transport_dropped"
	CloseAuthRejected CloseReason = "auth_rejected"
)

// Event is one entry in a client's event stream.
type Event struct {
	Kind EventKind

	// PairingCode is the displayable code, when the network offers one
	// directly. RawPairing carries the raw pairing payload for clients
	// that only expose an opaque challenge; the controller derives a
	// displayable code from it as a fallback.
	PairingCode string
	RawPairing  string

	// SelfAddress is the client's own identity, set on EventConnected.
	SelfAddress string

	// Reason is set on EventDisconnected.
	Reason CloseReason
}

// Client is one live connection to the messaging network. Implementations
// must be safe for concurrent use: the session controller drives lifecycle
// while dispatch loops call Send.
type Client interface {
	// Events returns the client's event stream. The channel is closed
	// when the client is closed.
	Events() <-chan Event

	// Send delivers one payload to a fully-qualified address. Errors that
	// wrap domain.ErrTransport indicate the connection is gone and the
	// caller should abandon the rest of its batch.
	Send(ctx context.Context, address, payload string) error

	// FetchDirectory lists the groups/channels visible to the account.
	FetchDirectory(ctx context.Context) ([]domain.DirectoryEntry, error)

	// Credentials returns an opaque snapshot of the session credentials
	// for persistence, or nil if not yet authenticated.
	Credentials() []byte

	// Close tears down the connection. Idempotent.
	Close() error
}

// Dialer opens a client for an account. creds is the previously persisted
// credential blob, or nil to start a fresh pairing.
type Dialer interface {
	Dial(ctx context.Context, accountAddress string, creds []byte) (Client, error)
}

// CredentialStore persists per-session credential state independently of
// the in-memory session registry, so sessions survive a process restart.
type CredentialStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, creds []byte) error
	Delete(ctx context.Context, sessionID string) error
}
