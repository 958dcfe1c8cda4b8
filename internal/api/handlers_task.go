package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/chat-gateway/internal/domain"
	"github.com/ignite/chat-gateway/internal/pkg/httputil"
)

// HandleStartTask registers a bulk-send task and returns its identifier
// immediately; the send loop runs in the background and is polled via
// HandleGetTask.
func (h *Handlers) HandleStartTask(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SessionID    string   `json:"session_id"`
		Target       string   `json:"target"`
		TargetKind   string   `json:"target_kind"`
		Items        []string `json:"items"`
		DelaySeconds float64  `json:"delay_seconds"`
		Prefix       string   `json:"prefix"`
		OwnerID      string   `json:"owner_id"`
	}
	if !httputil.Decode(w, r, &input) {
		return
	}
	owner, ok := requireOwner(w, r, input.OwnerID)
	if !ok {
		return
	}

	delay := time.Duration(input.DelaySeconds * float64(time.Second))
	taskID, err := h.engine.Start(input.SessionID, owner, input.Target,
		domain.TargetKind(input.TargetKind), input.Items, delay, input.Prefix)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.Accepted(w, map[string]string{
		"task_id": taskID,
		"status":  string(domain.TaskRunning),
	})
}

// HandleGetTask returns the task's status and counters.
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	info, err := h.engine.Task(chi.URLParam(r, "id"), owner)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, info)
}

// HandleStopTask requests cancellation. The response reflects the
// synchronously flipped status; the loop unwinds at its next checkpoint.
func (h *Handlers) HandleStopTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, "")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.engine.Stop(id, owner); err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, map[string]string{
		"task_id": id,
		"status":  string(domain.TaskStopped),
	})
}
