package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/ignite/chat-gateway/internal/domain"
)

// Registry is the owner-gated store of tasks. Terminal tasks are retained
// for a bounded window so status can still be polled shortly after
// completion, then purged to keep memory bounded.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	retention time.Duration
}

// NewRegistry creates a task registry with the given post-terminal
// retention window.
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{tasks: make(map[string]*Task), retention: retention}
}

// Get returns the task after the ownership check. Unknown IDs, including
// tasks already purged after retention, yield ErrNotFound; an owner
// mismatch yields ErrAccessDenied.
func (r *Registry) Get(taskID, ownerID string) (*Task, error) {
	r.mu.RLock()
	t, ok := r.tasks[taskID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	if t.OwnerID != ownerID {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrAccessDenied)
	}
	return t, nil
}

func (r *Registry) add(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
}

// scheduleRemoval purges the task after the retention window elapses.
func (r *Registry) scheduleRemoval(taskID string) {
	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		delete(r.tasks, taskID)
		r.mu.Unlock()
	})
}
