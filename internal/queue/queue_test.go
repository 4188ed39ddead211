package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/internal/policy"
	"github.com/tarunvipparti/DFS/internal/workflow"
)

type fakeRunner struct {
	mu       sync.Mutex
	failFor  map[uuid.UUID]error
	order    []uuid.UUID
	inflight int
	overlap  bool
	block    chan struct{} // when set, Run waits here after registering
	started  chan uuid.UUID
}

func (r *fakeRunner) Run(_ context.Context, artifactID uuid.UUID, progress analyzer.ProgressFunc) (*workflow.Result, error) {
	r.mu.Lock()
	r.order = append(r.order, artifactID)
	r.inflight++
	if r.inflight > 1 {
		r.overlap = true
	}
	r.mu.Unlock()

	if r.started != nil {
		r.started <- artifactID
	}
	if r.block != nil {
		<-r.block
	}

	defer func() {
		r.mu.Lock()
		r.inflight--
		r.mu.Unlock()
	}()

	if progress != nil {
		progress("Analyzing artifact")
	}

	if err, ok := r.failFor[artifactID]; ok {
		return nil, err
	}

	return &workflow.Result{
		ArtifactID: artifactID,
		Verdict: &analyzer.Verdict{
			Classification:    analyzer.ClassAuthentic,
			AuthenticityScore: 95,
		},
		Decision:    policy.Decision{Classification: analyzer.ClassAuthentic, ThreatScore: 5, Safe: true},
		CompletedAt: time.Now(),
	}, nil
}

type fakePersister struct {
	mu    sync.Mutex
	saved []uuid.UUID
	err   error
}

func (p *fakePersister) Persist(_ context.Context, res *workflow.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, res.ArtifactID)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, any) {}

func newTestQueue(runner Runner, persister Persister) System {
	return New(runner, persister, noopNotifier{}, slog.New(slog.DiscardHandler))
}

func enqueue(t *testing.T, q System, artifactID uuid.UUID) *Task {
	t.Helper()
	task, err := q.Enqueue(artifactID)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return task
}

func TestRunBatchProcessesSequentially(t *testing.T) {
	runner := &fakeRunner{}
	persister := &fakePersister{}
	q := newTestQueue(runner, persister)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	enqueue(t, q, a)
	enqueue(t, q, b)
	enqueue(t, q, c)

	if !q.RunBatch(context.Background()) {
		t.Fatal("RunBatch reported a run already in progress")
	}

	if runner.overlap {
		t.Error("tasks must never be analyzed concurrently")
	}
	if len(runner.order) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runner.order))
	}
	for i, id := range []uuid.UUID{a, b, c} {
		if runner.order[i] != id {
			t.Errorf("run %d: expected artifact %s, got %s", i, id, runner.order[i])
		}
	}

	for _, task := range q.List() {
		if task.Status != StatusCompleted {
			t.Errorf("task %s: expected COMPLETED, got %s", task.ID, task.Status)
		}
		if task.Result == nil {
			t.Errorf("task %s: expected attached result", task.ID)
		}
	}

	if len(persister.saved) != 3 {
		t.Errorf("expected 3 persisted results, got %d", len(persister.saved))
	}
}

func TestRunBatchFailureDoesNotAbort(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	runner := &fakeRunner{failFor: map[uuid.UUID]error{
		b: fmt.Errorf("extraction failed: no decodable frame"),
	}}
	persister := &fakePersister{}
	q := newTestQueue(runner, persister)

	t1 := enqueue(t, q, a)
	t2 := enqueue(t, q, b)
	t3 := enqueue(t, q, c)

	q.RunBatch(context.Background())

	assertStatus := func(id uuid.UUID, expected Status) *Task {
		t.Helper()
		task, err := q.Find(id)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if task.Status != expected {
			t.Errorf("task %s: expected %s, got %s", id, expected, task.Status)
		}
		return task
	}

	assertStatus(t1.ID, StatusCompleted)
	failed := assertStatus(t2.ID, StatusFailed)
	assertStatus(t3.ID, StatusCompleted)

	if failed.Error == "" {
		t.Error("failed task must carry a non-empty error")
	}
	if len(persister.saved) != 2 {
		t.Errorf("only completed tasks persist, expected 2, got %d", len(persister.saved))
	}
}

func TestRunBatchSkipsCompleted(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	runner := &fakeRunner{failFor: map[uuid.UUID]error{b: errors.New("service unavailable")}}
	q := newTestQueue(runner, &fakePersister{})

	enqueue(t, q, a)
	failedTask := enqueue(t, q, b)

	q.RunBatch(context.Background())

	// second run revisits only the failed task
	runner.mu.Lock()
	delete(runner.failFor, b)
	runner.order = nil
	runner.mu.Unlock()

	q.RunBatch(context.Background())

	if len(runner.order) != 1 || runner.order[0] != b {
		t.Errorf("expected second run to revisit only the failed artifact, got %v", runner.order)
	}

	task, err := q.Find(failedTask.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if task.Status != StatusCompleted {
		t.Errorf("resubmitted task should complete, got %s", task.Status)
	}
}

func TestRunBatchReentryIsNoOp(t *testing.T) {
	runner := &fakeRunner{
		block:   make(chan struct{}),
		started: make(chan uuid.UUID, 1),
	}
	q := newTestQueue(runner, &fakePersister{})
	enqueue(t, q, uuid.New())

	done := make(chan bool)
	go func() { done <- q.RunBatch(context.Background()) }()

	<-runner.started
	if q.RunBatch(context.Background()) {
		t.Error("re-entrant RunBatch must be a no-op")
	}
	if !q.Running() {
		t.Error("Running should report the in-progress run")
	}

	close(runner.block)
	if !<-done {
		t.Error("original run should report success")
	}
	if q.Running() {
		t.Error("Running should clear after the run finishes")
	}
}

func TestTaskRemovedMidFlightIsDiscarded(t *testing.T) {
	runner := &fakeRunner{
		block:   make(chan struct{}),
		started: make(chan uuid.UUID, 1),
	}
	persister := &fakePersister{}
	q := newTestQueue(runner, persister)

	task := enqueue(t, q, uuid.New())

	done := make(chan struct{})
	go func() {
		q.RunBatch(context.Background())
		close(done)
	}()

	<-runner.started

	// removal is refused while analyzing
	if err := q.Remove(task.ID); !errors.Is(err, ErrTaskNotRemovable) {
		t.Errorf("expected ErrTaskNotRemovable, got %v", err)
	}

	close(runner.block)
	<-done

	if len(persister.saved) != 1 {
		t.Errorf("completed in-flight task should persist, got %d", len(persister.saved))
	}
}

func TestEnqueueRejectsDuplicates(t *testing.T) {
	q := newTestQueue(&fakeRunner{}, &fakePersister{})

	artifactID := uuid.New()
	enqueue(t, q, artifactID)

	if _, err := q.Enqueue(artifactID); !errors.Is(err, ErrAlreadyEnqueued) {
		t.Errorf("expected ErrAlreadyEnqueued, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	q := newTestQueue(&fakeRunner{}, &fakePersister{})

	task := enqueue(t, q, uuid.New())
	if err := q.Remove(task.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := q.Find(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound after removal, got %v", err)
	}
	if err := q.Remove(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on double removal, got %v", err)
	}
}

func TestRunBatchEmptyQueue(t *testing.T) {
	q := newTestQueue(&fakeRunner{}, &fakePersister{})
	if !q.RunBatch(context.Background()) {
		t.Error("RunBatch on an empty queue should succeed as a no-op")
	}
}
