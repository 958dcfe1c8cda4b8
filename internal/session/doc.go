// Package session implements the multi-tenant session layer: the registry
// of live account attachments, the lifecycle controller that drives each
// attachment through its state machine, and the per-session directory cache.
//
// The registry is a concurrency-safe map plus the ownership gate; it does
// no network I/O. All connection state transitions go through the
// controller, which is the only writer of a handle's client reference.
// Everything protocol-specific is behind the messenger interfaces.
package session
