package domain

import "errors"

// Sentinel errors shared across the session and dispatch layers. Handlers
// map these to HTTP status codes; services wrap them with context via
// fmt.Errorf("...: %w", err) so errors.Is still matches.
var (
	// ErrNotFound covers both unknown identifiers and tasks already purged
	// after their retention window.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when an identifier exists but belongs to
	// a different owner. Deliberately distinguishable from ErrNotFound.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidRequest covers missing or malformed input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConflict is returned when an operation is not valid for the
	// entity's current state (e.g. attaching a session that is mid-setup).
	ErrConflict = errors.New("operation conflicts with current state")

	// ErrTimeout is returned when the bounded pairing wait elapsed without
	// a terminal connection event.
	ErrTimeout = errors.New("timed out waiting for connection event")

	// ErrAuthFailed means the remote network rejected the stored
	// credentials. The session must be re-paired, never auto-retried.
	ErrAuthFailed = errors.New("authentication rejected by remote")

	// ErrTransport means the underlying connection dropped mid-operation.
	ErrTransport = errors.New("transport failure")
)
