package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/chat-gateway/internal/domain"
)

// Task is the runtime state of one bulk-send job. The owning dispatch loop
// is the only writer of sentCount, status, and lastError; cancel is the one
// field any caller may set, and it is an atomic flag so no lock spans the
// loop's checkpoints.
type Task struct {
	ID         string
	OwnerID    string
	SessionID  string
	Target     string
	TargetKind domain.TargetKind
	Prefix     string
	Delay      time.Duration

	cancel atomic.Bool

	mu         sync.Mutex
	items      []string
	totalItems int
	status     domain.TaskStatus
	sentCount  int
	lastError  string
	startedAt  time.Time
	endedAt    time.Time
}

func newTask(id, ownerID, sessionID, target string, kind domain.TargetKind, items []string, delay time.Duration, prefix string) *Task {
	return &Task{
		ID:         id,
		OwnerID:    ownerID,
		SessionID:  sessionID,
		Target:     target,
		TargetKind: kind,
		Prefix:     prefix,
		Delay:      delay,
		items:      items,
		totalItems: len(items),
		status:     domain.TaskRunning,
		startedAt:  time.Now(),
	}
}

// Info returns the caller-visible snapshot.
func (t *Task) Info() domain.TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.TaskInfo{
		ID:         t.ID,
		OwnerID:    t.OwnerID,
		SessionID:  t.SessionID,
		Status:     t.status,
		Target:     t.Target,
		TargetKind: t.TargetKind,
		TotalItems: t.totalItems,
		SentCount:  t.sentCount,
		LastError:  t.lastError,
		StartedAt:  t.startedAt,
		EndedAt:    t.endedAt,
	}
}

// cancelRequested reports whether a stop was requested, by a caller or by
// the loop itself after a fatal transport failure.
func (t *Task) cancelRequested() bool { return t.cancel.Load() }

// requestCancel flips the cancellation flag. Safe from any goroutine.
func (t *Task) requestCancel() { t.cancel.Store(true) }

func (t *Task) incSent() {
	t.mu.Lock()
	t.sentCount++
	t.mu.Unlock()
}

func (t *Task) setLastError(err error) {
	t.mu.Lock()
	t.lastError = err.Error()
	t.mu.Unlock()
}

// markStopped is the synchronous half of the cancellation contract: the
// caller-visible status flips to stopped immediately, while the loop
// observes the flag and unwinds at its next checkpoint. Idempotent on
// terminal tasks.
func (t *Task) markStopped() {
	t.requestCancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = domain.TaskStopped
	t.endedAt = time.Now()
}

// finish records the loop's exit. Terminal statuses are sticky: a status
// already set by a synchronous stop call is never overwritten.
func (t *Task) finish(fatal bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = nil // release the message list regardless of outcome
	if t.status.Terminal() {
		if t.endedAt.IsZero() {
			t.endedAt = time.Now()
		}
		return
	}
	t.endedAt = time.Now()
	switch {
	case fatal:
		t.status = domain.TaskFailed
	case t.cancel.Load():
		t.status = domain.TaskStopped
	default:
		t.status = domain.TaskCompleted
	}
}
