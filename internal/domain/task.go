package domain

import "time"

// TaskStatus is the lifecycle status of one bulk-send task.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskStopped   TaskStatus = "stopped"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is sticky: once a task leaves
// running it never returns.
func (s TaskStatus) Terminal() bool {
	return s != TaskRunning
}

// TargetKind distinguishes the two recipient address namespaces.
// Individuals and groups must never be conflated.
type TargetKind string

const (
	TargetIndividual TargetKind = "individual"
	TargetGroup      TargetKind = "group"
)

// Valid reports whether the kind is one of the known namespaces.
func (k TargetKind) Valid() bool {
	return k == TargetIndividual || k == TargetGroup
}

// TaskInfo is the caller-visible snapshot of a bulk-send task. The runtime
// task (cancellation flag, owning loop) lives in the dispatch package.
type TaskInfo struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	SessionID  string     `json:"session_id"`
	Status     TaskStatus `json:"status"`
	Target     string     `json:"target"`
	TargetKind TargetKind `json:"target_kind"`
	TotalItems int        `json:"total_items"`
	SentCount  int        `json:"sent_count"`
	LastError  string     `json:"last_error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    time.Time  `json:"ended_at,omitempty"`
}
