package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/chat-gateway/internal/config"
	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/messenger"
	"github.com/ignite/chat-gateway/internal/session"
)

// Address namespace suffixes for the two target kinds. Individuals and
// groups live in distinct namespaces on the network and must not be
// conflated.
const (
	individualSuffix = "@s.contact.net"
	groupSuffix      = "@g.chat.net"
)

// Engine runs bulk-send tasks. Start registers a task and returns
// immediately; the send loop runs as its own goroutine, never awaited by
// the request that started it. The engine only reads a session's client
// and calls Send — connection state transitions belong to the session
// controller.
type Engine struct {
	tasks    *Registry
	sessions *session.Registry
	cfg      config.DispatchConfig
}

// NewEngine creates a dispatch engine. Both registries are injected so
// tests can construct them fresh.
func NewEngine(tasks *Registry, sessions *session.Registry, cfg config.DispatchConfig) *Engine {
	return &Engine{tasks: tasks, sessions: sessions, cfg: cfg}
}

// Start validates preconditions, registers a running task, and spawns its
// send loop. Any validation failure is returned synchronously and no task
// is registered.
func (e *Engine) Start(sessionID, ownerID, target string, kind domain.TargetKind, items []string, delay time.Duration, prefix string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("message list is empty: %w", domain.ErrInvalidRequest)
	}
	if target == "" {
		return "", fmt.Errorf("target is required: %w", domain.ErrInvalidRequest)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown target kind %q: %w", kind, domain.ErrInvalidRequest)
	}
	if delay < 0 {
		return "", fmt.Errorf("delay must be non-negative: %w", domain.ErrInvalidRequest)
	}

	h, err := e.sessions.Get(sessionID, ownerID)
	if err != nil {
		return "", err
	}
	client := h.Client()
	if state := h.State(); state != domain.SessionConnected || client == nil {
		return "", fmt.Errorf("session %s is %s, task start requires connected: %w",
			sessionID, h.State(), domain.ErrConflict)
	}

	t := newTask(uuid.New().String(), ownerID, sessionID, target, kind, items, delay, prefix)
	e.tasks.add(t)
	go e.run(t, client)

	log.Printf("[dispatch] task %s started: %d items to %s via session %s",
		t.ID, len(items), kind, sessionID)
	return t.ID, nil
}

// Task returns the status snapshot for one task.
func (e *Engine) Task(taskID, ownerID string) (domain.TaskInfo, error) {
	t, err := e.tasks.Get(taskID, ownerID)
	if err != nil {
		return domain.TaskInfo{}, err
	}
	return t.Info(), nil
}

// Stop requests cancellation. The queryable status flips to stopped
// synchronously; the loop unwinds at its next checkpoint. Stopping an
// already-terminal task is a no-op success.
func (e *Engine) Stop(taskID, ownerID string) error {
	t, err := e.tasks.Get(taskID, ownerID)
	if err != nil {
		return err
	}
	t.markStopped()
	log.Printf("[dispatch] task %s stop requested", taskID)
	return nil
}

// run is the single owner of the task's mutable state. Sends are strictly
// sequential: item N+1 never begins before item N's outcome is recorded.
func (e *Engine) run(t *Task, client messenger.Client) {
	defer e.tasks.scheduleRemoval(t.ID)

	address := qualifyTarget(t.Target, t.TargetKind)
	items := t.items
	fatal := false

	for i, item := range items {
		if t.cancelRequested() {
			break
		}

		payload := item
		if t.Prefix != "" {
			payload = t.Prefix + item
		}

		if err := client.Send(context.Background(), address, payload); err != nil {
			t.setLastError(err)
			if errors.Is(err, domain.ErrTransport) {
				// A dead connection is fatal to the rest of the batch;
				// an individual rejection is not.
				log.Printf("[dispatch] task %s: transport gone at item %d, aborting batch", t.ID, i+1)
				t.requestCancel()
				fatal = true
				break
			}
			log.Printf("[dispatch] task %s: item %d failed: %v", t.ID, i+1, err)
		} else {
			t.incSent()
		}

		if i == len(items)-1 {
			break
		}
		if !e.pace(t) {
			break
		}
	}

	t.finish(fatal)
	info := t.Info()
	log.Printf("[dispatch] task %s finished: status=%s sent=%d/%d",
		t.ID, info.Status, info.SentCount, info.TotalItems)
}

// pace waits the inter-item delay in sub-second slices, re-checking the
// cancellation flag each slice so a stop request lands within roughly one
// second rather than only at whole-delay boundaries. Returns false if the
// loop should stop.
func (e *Engine) pace(t *Task) bool {
	remaining := t.Delay
	poll := e.cfg.CancelPoll()
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	for remaining > 0 {
		if t.cancelRequested() {
			return false
		}
		step := poll
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
		remaining -= step
	}
	return !t.cancelRequested()
}

// qualifyTarget appends the namespace suffix for the target kind unless the
// target is already fully qualified.
func qualifyTarget(target string, kind domain.TargetKind) string {
	if strings.Contains(target, "@") {
		return target
	}
	if kind == domain.TargetGroup {
		return target + groupSuffix
	}
	return target + individualSuffix
}
