package messenger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ignite/chat-gateway/internal/domain"
)

// FakeDialer is a scriptable Dialer used by tests and by cmd/server when no
// real protocol implementation is wired in. It records every client it
// opens so tests can assert on open/close counts.
type FakeDialer struct {
	mu      sync.Mutex
	clients []*FakeClient

	// DialErr, when set, fails every Dial call.
	DialErr error

	// OnDial runs in its own goroutine for each opened client, letting a
	// test (or the simulator) script the event stream. When nil and creds
	// are non-nil the dialer emits an immediate EventConnected, mimicking
	// a credential resume.
	OnDial func(c *FakeClient, creds []byte)
}

// Dial opens a new FakeClient.
func (d *FakeDialer) Dial(_ context.Context, accountAddress string, creds []byte) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	c := NewFakeClient(accountAddress)
	if creds != nil {
		c.creds = append([]byte(nil), creds...)
	}
	d.clients = append(d.clients, c)
	if d.OnDial != nil {
		go d.OnDial(c, creds)
	} else if creds != nil {
		go c.EmitConnected(accountAddress)
	}
	return c, nil
}

// Clients returns every client opened so far, in dial order.
func (d *FakeDialer) Clients() []*FakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*FakeClient, len(d.clients))
	copy(out, d.clients)
	return out
}

// OpenCount returns how many clients are currently live (dialed, not closed).
func (d *FakeDialer) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.clients {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}

// FakeClient is a scriptable Client. Zero-value fields give a client whose
// sends always succeed and whose directory is empty.
type FakeClient struct {
	Account string

	mu        sync.Mutex
	events    chan Event
	closed    bool
	creds     []byte
	sent      []SentMessage
	dirCalls  int
	Directory []domain.DirectoryEntry
	DirErr    error

	// SendHook, when set, decides the outcome of each Send. Return an
	// error wrapping domain.ErrTransport to simulate a dead connection.
	SendHook func(address, payload string) error
}

// SentMessage records one successful or attempted Send.
type SentMessage struct {
	Address string
	Payload string
}

// NewFakeClient creates a client with a buffered event stream.
func NewFakeClient(account string) *FakeClient {
	return &FakeClient{
		Account: account,
		events:  make(chan Event, 16),
	}
}

func (c *FakeClient) Events() <-chan Event { return c.events }

func (c *FakeClient) Send(_ context.Context, address, payload string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("send on closed client: %w", domain.ErrTransport)
	}
	hook := c.SendHook
	c.mu.Unlock()

	if hook != nil {
		if err := hook(address, payload); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.sent = append(c.sent, SentMessage{Address: address, Payload: payload})
	c.mu.Unlock()
	return nil
}

func (c *FakeClient) FetchDirectory(_ context.Context) ([]domain.DirectoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirCalls++
	if c.DirErr != nil {
		return nil, c.DirErr
	}
	out := make([]domain.DirectoryEntry, len(c.Directory))
	copy(out, c.Directory)
	return out, nil
}

func (c *FakeClient) Credentials() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// SetCredentials sets the opaque credential blob returned by Credentials.
func (c *FakeClient) SetCredentials(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = b
}

func (c *FakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.events)
	return nil
}

// IsClosed reports whether Close has been called.
func (c *FakeClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Sent returns every message recorded by Send, in order.
func (c *FakeClient) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// DirectoryCalls returns how many times FetchDirectory ran.
func (c *FakeClient) DirectoryCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirCalls
}

func (c *FakeClient) emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events <- ev
}

// EmitPairingCode injects a pairing-code event. Pass code for a direct
// code, or raw for an opaque payload the controller must decode.
func (c *FakeClient) EmitPairingCode(code, raw string) {
	c.emit(Event{Kind: EventPairingCode, PairingCode: code, RawPairing: raw})
}

// EmitConnected injects a connection-open event.
func (c *FakeClient) EmitConnected(selfAddress string) {
	c.mu.Lock()
	if c.creds == nil {
		c.creds = []byte("creds:" + selfAddress)
	}
	c.mu.Unlock()
	c.emit(Event{Kind: EventConnected, SelfAddress: selfAddress})
}

// EmitDisconnected injects a connection-closed event with the given reason.
func (c *FakeClient) EmitDisconnected(reason CloseReason) {
	c.emit(Event{Kind: EventDisconnected, Reason: reason})
}
