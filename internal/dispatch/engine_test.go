package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/chat-gateway/internal/config"
	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/messenger"
	"github.com/ignite/chat-gateway/internal/session"
)

// memCreds is an in-memory credential store for wiring up test sessions.
type memCreds struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCreds() *memCreds {
	return &memCreds{m: make(map[string][]byte)}
}

func (s *memCreds) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[sessionID], nil
}

func (s *memCreds) Save(_ context.Context, sessionID string, creds []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionID] = creds
	return nil
}

func (s *memCreds) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sessionID)
	return nil
}

type fixture struct {
	engine   *Engine
	tasks    *Registry
	sessions *session.Registry
	client   *messenger.FakeClient
	id       string // connected session ID, owner "u1"
}

// newFixture wires a connected session ("15550001", owner "u1") and an
// engine with fast cancellation polling and the given retention.
func newFixture(t *testing.T, retention time.Duration) *fixture {
	t.Helper()
	dialer := &messenger.FakeDialer{
		OnDial: func(c *messenger.FakeClient, creds []byte) {
			c.EmitConnected("15550001")
		},
	}
	reg := session.NewRegistry()
	ctrl := session.NewController(reg, dialer, newMemCreds(), config.SessionConfig{
		PairingWaitSeconds:  3,
		DirectoryTTLMinutes: 5,
	})
	info, err := ctrl.Attach(context.Background(), "15550001", "u1")
	require.NoError(t, err)
	require.Equal(t, domain.SessionConnected, info.State)

	tasks := NewRegistry(retention)
	engine := NewEngine(tasks, reg, config.DispatchConfig{CancelPollMillis: 20})
	return &fixture{
		engine:   engine,
		tasks:    tasks,
		sessions: reg,
		client:   dialer.Clients()[0],
		id:       info.ID,
	}
}

func waitTerminal(t *testing.T, e *Engine, taskID, owner string) domain.TaskInfo {
	t.Helper()
	var info domain.TaskInfo
	require.Eventually(t, func() bool {
		var err error
		info, err = e.Task(taskID, owner)
		return err == nil && info.Status.Terminal() && !info.EndedAt.IsZero()
	}, 5*time.Second, 10*time.Millisecond)
	return info
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual, nil, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.Start(f.id, "u1", "", domain.TargetIndividual, []string{"hi"}, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.Start(f.id, "u1", "15550002", "broadcast", []string{"hi"}, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual, []string{"hi"}, -time.Second, "")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.engine.Start("nope", "u1", "15550002", domain.TargetIndividual, []string{"hi"}, 0, "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Owner mismatch on the session
	_, err = f.engine.Start(f.id, "u2", "15550002", domain.TargetIndividual, []string{"hi"}, 0, "")
	require.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestStartRequiresConnectedSession(t *testing.T) {
	f := newFixture(t, time.Minute)

	// Kick the session into a terminal state; the engine must refuse to
	// start against it
	f.client.EmitDisconnected(messenger.CloseAuthRejected)
	require.Eventually(t, func() bool {
		h, err := f.sessions.Get(f.id, "u1")
		return err == nil && h.State() == domain.SessionAuthFailed
	}, 2*time.Second, 10*time.Millisecond)

	_, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual, []string{"hi"}, 0, "")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestRunToCompletion(t *testing.T) {
	f := newFixture(t, time.Minute)

	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		[]string{"hi", "there", "friend"}, 0, "")
	require.NoError(t, err)

	info := waitTerminal(t, f.engine, taskID, "u1")
	assert.Equal(t, domain.TaskCompleted, info.Status)
	assert.Equal(t, 3, info.SentCount)
	assert.Equal(t, 3, info.TotalItems)
	assert.Empty(t, info.LastError)

	sent := f.client.Sent()
	require.Len(t, sent, 3)
	// Strictly in supplied order, individual namespace suffix appended
	assert.Equal(t, "15550002@s.contact.net", sent[0].Address)
	assert.Equal(t, []string{"hi", "there", "friend"},
		[]string{sent[0].Payload, sent[1].Payload, sent[2].Payload})
}

func TestGroupTargetAndPrefix(t *testing.T) {
	f := newFixture(t, time.Minute)

	taskID, err := f.engine.Start(f.id, "u1", "team-42", domain.TargetGroup,
		[]string{"launch"}, 0, "[ops] ")
	require.NoError(t, err)

	waitTerminal(t, f.engine, taskID, "u1")
	sent := f.client.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "team-42@g.chat.net", sent[0].Address)
	assert.Equal(t, "[ops] launch", sent[0].Payload)

	// An already-qualified target is left alone
	taskID, err = f.engine.Start(f.id, "u1", "room@g.chat.net", domain.TargetGroup,
		[]string{"x"}, 0, "")
	require.NoError(t, err)
	waitTerminal(t, f.engine, taskID, "u1")
	sent = f.client.Sent()
	assert.Equal(t, "room@g.chat.net", sent[len(sent)-1].Address)
}

func TestStopMidRun(t *testing.T) {
	f := newFixture(t, time.Minute)

	items := make([]string, 100)
	for i := range items {
		items[i] = fmt.Sprintf("msg-%d", i)
	}
	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		items, 300*time.Millisecond, "")
	require.NoError(t, err)

	// Let a couple of items go out, then stop mid-pacing
	time.Sleep(750 * time.Millisecond)
	require.NoError(t, f.engine.Stop(taskID, "u1"))

	// The queryable status flips synchronously with the stop call
	info, err := f.engine.Task(taskID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStopped, info.Status)
	assert.False(t, info.EndedAt.IsZero())

	final := waitTerminal(t, f.engine, taskID, "u1")
	assert.Equal(t, domain.TaskStopped, final.Status)
	assert.GreaterOrEqual(t, final.SentCount, 2)
	assert.LessOrEqual(t, final.SentCount, 4)
	assert.LessOrEqual(t, final.SentCount, final.TotalItems)
}

func TestStopIsIdempotentOnTerminalTasks(t *testing.T) {
	f := newFixture(t, time.Minute)

	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		[]string{"hi"}, 0, "")
	require.NoError(t, err)
	first := waitTerminal(t, f.engine, taskID, "u1")
	require.Equal(t, domain.TaskCompleted, first.Status)

	// No-op success; the completed status is sticky
	require.NoError(t, f.engine.Stop(taskID, "u1"))
	info, err := f.engine.Task(taskID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, info.Status)
}

func TestStopOwnershipAndNotFound(t *testing.T) {
	f := newFixture(t, time.Minute)

	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		[]string{"hi", "there"}, time.Second, "")
	require.NoError(t, err)

	err = f.engine.Stop(taskID, "intruder")
	require.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = f.engine.Task(taskID, "intruder")
	require.ErrorIs(t, err, domain.ErrAccessDenied)

	err = f.engine.Stop("no-such-task", "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.engine.Stop(taskID, "u1"))
}

func TestTransportFailureAbortsBatch(t *testing.T) {
	f := newFixture(t, time.Minute)

	var mu sync.Mutex
	sends := 0
	f.client.SendHook = func(address, payload string) error {
		mu.Lock()
		defer mu.Unlock()
		sends++
		if sends == 5 {
			return fmt.Errorf("stream closed: %w", domain.ErrTransport)
		}
		return nil
	}

	items := make([]string, 10)
	for i := range items {
		items[i] = fmt.Sprintf("msg-%d", i)
	}
	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual, items, 0, "")
	require.NoError(t, err)

	info := waitTerminal(t, f.engine, taskID, "u1")
	assert.Equal(t, domain.TaskFailed, info.Status)
	assert.Equal(t, 4, info.SentCount)
	assert.Contains(t, info.LastError, "stream closed")
}

func TestIndividualRejectionDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t, time.Minute)

	var mu sync.Mutex
	sends := 0
	f.client.SendHook = func(address, payload string) error {
		mu.Lock()
		defer mu.Unlock()
		sends++
		if sends == 2 {
			return fmt.Errorf("message rejected by server")
		}
		return nil
	}

	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		[]string{"a", "b", "c"}, 0, "")
	require.NoError(t, err)

	info := waitTerminal(t, f.engine, taskID, "u1")
	assert.Equal(t, domain.TaskCompleted, info.Status)
	assert.Equal(t, 2, info.SentCount)
	assert.Contains(t, info.LastError, "rejected")
}

func TestTaskPurgedAfterRetention(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)

	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual,
		[]string{"hi"}, 0, "")
	require.NoError(t, err)
	waitTerminal(t, f.engine, taskID, "u1")

	require.Eventually(t, func() bool {
		_, err := f.engine.Task(taskID, "u1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.engine.Task(taskID, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = f.engine.Stop(taskID, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSentCountMonotonicAndBounded(t *testing.T) {
	f := newFixture(t, time.Minute)

	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprintf("msg-%d", i)
	}
	taskID, err := f.engine.Start(f.id, "u1", "15550002", domain.TargetIndividual, items, 0, "")
	require.NoError(t, err)

	prev := 0
	for {
		info, err := f.engine.Task(taskID, "u1")
		require.NoError(t, err)
		require.GreaterOrEqual(t, info.SentCount, prev, "sentCount must never decrease")
		require.LessOrEqual(t, info.SentCount, info.TotalItems)
		prev = info.SentCount
		if info.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 30, prev)
}
