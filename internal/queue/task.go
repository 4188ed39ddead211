package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/workflow"
)

// Status is the lifecycle state of one verification task.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusAnalyzing Status = "ANALYZING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Task is one queued verification unit. Tasks only transition
// IDLE → ANALYZING → {COMPLETED | FAILED}; a FAILED task becomes eligible
// again on the next batch run, never automatically. Tasks are mutated only
// by the queue processor and removed only by explicit external request.
type Task struct {
	ID         uuid.UUID        `json:"id"`
	ArtifactID uuid.UUID        `json:"artifact_id"`
	Status     Status           `json:"status"`
	Progress   string           `json:"progress,omitempty"`
	Result     *workflow.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (t *Task) eligible() bool {
	return t.Status == StatusIdle || t.Status == StatusFailed
}

func (t *Task) clone() Task {
	return *t
}
