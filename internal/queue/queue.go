// Package queue implements the batch verification processor. Tasks are
// processed strictly one at a time through the analysis workflow; a batch
// run visits only idle and previously failed tasks, and one task's failure
// never aborts the run.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/workflow"
)

var (
	ErrTaskNotFound     = errors.New("verification task not found")
	ErrAlreadyEnqueued  = errors.New("artifact already enqueued")
	ErrTaskNotRemovable = errors.New("task is currently analyzing")
)

// MapHTTPStatus maps queue errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrTaskNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrAlreadyEnqueued) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTaskNotRemovable) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Runner executes the verification workflow for one artifact.
type Runner interface {
	Run(ctx context.Context, artifactID uuid.UUID, progress analyzer.ProgressFunc) (*workflow.Result, error)
}

// Persister stores a completed verification result. Called exactly once per
// completed task.
type Persister interface {
	Persist(ctx context.Context, res *workflow.Result) error
}

// Notifier receives fire-and-forget task lifecycle events.
type Notifier interface {
	Publish(kind string, payload any)
}

// System defines the public contract for the verification queue.
type System interface {
	Handler() *Handler

	Enqueue(artifactID uuid.UUID) (*Task, error)
	Remove(id uuid.UUID) error
	Find(id uuid.UUID) (*Task, error)
	List() []Task

	// RunBatch processes all eligible tasks sequentially. Returns false
	// without doing anything when a run is already in progress.
	RunBatch(ctx context.Context) bool

	// Running reports whether a batch run is in progress.
	Running() bool
}

type queue struct {
	mu    sync.Mutex
	tasks []*Task
	byID  map[uuid.UUID]*Task

	running atomic.Bool

	runner    Runner
	persister Persister
	notifier  Notifier
	logger    *slog.Logger
}

// New creates an empty verification queue.
func New(runner Runner, persister Persister, notifier Notifier, logger *slog.Logger) System {
	return &queue{
		byID:      make(map[uuid.UUID]*Task),
		runner:    runner,
		persister: persister,
		notifier:  notifier,
		logger:    logger.With("system", "queue"),
	}
}

func (q *queue) Handler() *Handler {
	return NewHandler(q, q.logger)
}

// Enqueue adds a new idle task for the artifact. An artifact may only be
// queued once at a time.
func (q *queue) Enqueue(artifactID uuid.UUID) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tasks {
		if t.ArtifactID == artifactID && t.Status != StatusCompleted {
			return nil, ErrAlreadyEnqueued
		}
	}

	now := time.Now()
	task := &Task{
		ID:         uuid.New(),
		ArtifactID: artifactID,
		Status:     StatusIdle,
		Progress:   "Queued",
		EnqueuedAt: now,
		UpdatedAt:  now,
	}

	q.tasks = append(q.tasks, task)
	q.byID[task.ID] = task

	q.logger.Info("task enqueued", "task_id", task.ID, "artifact_id", artifactID)
	q.notifier.Publish("queue.task", task.clone())

	snapshot := task.clone()
	return &snapshot, nil
}

// Remove deletes a task from the queue. An ANALYZING task cannot be removed;
// its in-flight result would have no owner.
func (q *queue) Remove(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status == StatusAnalyzing {
		return ErrTaskNotRemovable
	}

	delete(q.byID, id)
	for i, t := range q.tasks {
		if t.ID == id {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}

	q.logger.Info("task removed", "task_id", id)
	return nil
}

func (q *queue) Find(id uuid.UUID) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	snapshot := task.clone()
	return &snapshot, nil
}

func (q *queue) List() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Task, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = t.clone()
	}
	return out
}

// RunBatch processes eligible tasks in queue order, strictly one at a time.
// Re-entry while a run is in progress is a no-op.
func (q *queue) RunBatch(ctx context.Context) bool {
	if !q.running.CompareAndSwap(false, true) {
		q.logger.Debug("batch run already in progress")
		return false
	}
	defer q.running.Store(false)

	eligible := q.eligibleIDs()
	if len(eligible) == 0 {
		return true
	}

	q.logger.Info("batch run started", "eligible", len(eligible))

	for _, id := range eligible {
		if ctx.Err() != nil {
			q.logger.Warn("batch run cancelled", "error", ctx.Err())
			return true
		}
		q.processTask(ctx, id)
	}

	q.logger.Info("batch run complete")
	return true
}

func (q *queue) Running() bool {
	return q.running.Load()
}

func (q *queue) eligibleIDs() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ids []uuid.UUID
	for _, t := range q.tasks {
		if t.eligible() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (q *queue) processTask(ctx context.Context, id uuid.UUID) {
	task, ok := q.begin(id)
	if !ok {
		// removed between snapshot and processing
		return
	}

	progress := func(phase string) { q.setProgress(id, phase) }

	res, err := q.runner.Run(ctx, task.ArtifactID, progress)
	if err != nil {
		q.fail(id, err)
		return
	}

	if !q.complete(id, res) {
		// task removed while its analysis was in flight
		return
	}

	if err := q.persister.Persist(ctx, res); err != nil {
		q.logger.Error("persist verification result failed", "task_id", id, "error", err)
	}
}

// begin transitions a task to ANALYZING, returning a snapshot. Fails when
// the task no longer exists or is no longer eligible.
func (q *queue) begin(id uuid.UUID) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok || !task.eligible() {
		return Task{}, false
	}

	task.Status = StatusAnalyzing
	task.Progress = "Preparing verification"
	task.Error = ""
	task.UpdatedAt = time.Now()

	q.notifier.Publish("queue.task", task.clone())
	return task.clone(), true
}

func (q *queue) setProgress(id uuid.UUID, phase string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return
	}

	task.Progress = phase
	task.UpdatedAt = time.Now()
	q.notifier.Publish("queue.task", task.clone())
}

func (q *queue) fail(id uuid.UUID, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return
	}

	task.Status = StatusFailed
	task.Progress = "Verification failed"
	task.Error = err.Error()
	task.UpdatedAt = time.Now()

	q.logger.Warn("task failed", "task_id", id, "error", err)
	q.notifier.Publish("queue.task", task.clone())
}

func (q *queue) complete(id uuid.UUID, res *workflow.Result) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return false
	}

	task.Status = StatusCompleted
	task.Progress = "Verification complete"
	task.Result = res
	task.UpdatedAt = time.Now()

	q.logger.Info(
		"task completed",
		"task_id", id,
		"classification", res.Decision.Classification,
		"alert", res.Decision.Alert,
	)
	q.notifier.Publish("queue.task", task.clone())
	return true
}
