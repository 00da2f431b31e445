package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// fakeQueue is an in-memory JobQueue with the same CAS semantics as the
// Mongo-backed store.
type fakeQueue struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	retries []retryRecord
}

type retryRecord struct {
	attempts int
	runAt    time.Time
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{jobs: make(map[string]*models.Job)}
}

func (q *fakeQueue) add(job *models.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job.Status == "" {
		job.Status = models.JobStatusReady
	}
	q.jobs[job.ID] = job
}

func (q *fakeQueue) status(id string) models.JobStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs[id].Status
}

func (q *fakeQueue) ListReady(_ context.Context, _ time.Time, _ int64) ([]models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.Job
	for _, j := range q.jobs {
		if j.Status == models.JobStatusReady {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (q *fakeQueue) GetMany(_ context.Context, ids []string) ([]models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.Job
	for _, id := range ids {
		if j, ok := q.jobs[id]; ok {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (q *fakeQueue) GetByID(_ context.Context, id string) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	cp := *j
	return &cp, nil
}

func (q *fakeQueue) cas(id string, from, to models.JobStatus) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok || j.Status != from {
		return fmt.Errorf("job %s not in %s: %w", id, from, services.ErrConflict)
	}
	j.Status = to
	return nil
}

func (q *fakeQueue) ClaimRunning(_ context.Context, id string) error {
	return q.cas(id, models.JobStatusReady, models.JobStatusRunning)
}

func (q *fakeQueue) MarkCompleted(_ context.Context, id string) error {
	return q.cas(id, models.JobStatusRunning, models.JobStatusCompleted)
}

func (q *fakeQueue) MarkRetry(_ context.Context, id string, attempts int, lastError string, runAt time.Time) error {
	q.mu.Lock()
	q.retries = append(q.retries, retryRecord{attempts: attempts, runAt: runAt})
	q.mu.Unlock()
	if err := q.cas(id, models.JobStatusRunning, models.JobStatusReady); err != nil {
		return err
	}
	q.mu.Lock()
	q.jobs[id].Attempts = attempts
	q.jobs[id].LastError = lastError
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, attempts int, lastError string) error {
	if err := q.cas(id, models.JobStatusRunning, models.JobStatusFailed); err != nil {
		return err
	}
	q.mu.Lock()
	q.jobs[id].Attempts = attempts
	q.jobs[id].LastError = lastError
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) MarkCancelled(_ context.Context, id string) error {
	return q.cas(id, models.JobStatusRunning, models.JobStatusCancelled)
}

func (q *fakeQueue) Cancel(_ context.Context, id string) error {
	return q.cas(id, models.JobStatusReady, models.JobStatusCancelled)
}

// countingExecutor fails the first failUntil calls, then succeeds.
type countingExecutor struct {
	calls     atomic.Int32
	failUntil int
}

func (e *countingExecutor) Execute(_ context.Context, _ *models.Job) error {
	n := int(e.calls.Add(1))
	if n <= e.failUntil {
		return fmt.Errorf("transient failure %d", n)
	}
	return nil
}

func testJob(agent models.AgentType, maxAttempts int, deps ...string) *models.Job {
	return &models.Job{
		ID:           uuid.New().String(),
		UserID:       "u1",
		Agent:        agent,
		Intent:       models.IntentExecute,
		Task:         "test task",
		MaxAttempts:  maxAttempts,
		Dependencies: deps,
	}
}

func newTestOrchestrator(q JobQueue, maxConcurrent int) *Orchestrator {
	return New(q, nil, bus.New(), nil, maxConcurrent, time.Hour)
}

// drain runs poll cycles until in-flight work settles.
func drain(o *Orchestrator, ctx context.Context, cycles int) {
	for i := 0; i < cycles; i++ {
		o.pollOnce(ctx)
		o.wg.Wait()
	}
}

func TestJobCompletes(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentJournal, 3)
	q.add(job)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{}
	o.Register(models.AgentJournal, ex)

	drain(o, context.Background(), 1)

	if got := q.status(job.ID); got != models.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", got)
	}
	if ex.calls.Load() != 1 {
		t.Fatalf("executor ran %d times, want 1", ex.calls.Load())
	}
}

func TestRetryBackoffThenPermanentFailure(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentJournal, 3)
	q.add(job)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{failUntil: 99} // never succeeds
	o.Register(models.AgentJournal, ex)

	// More cycles than the attempt budget: the job must not run a 4th time.
	drain(o, context.Background(), 6)

	if got := ex.calls.Load(); got != 3 {
		t.Fatalf("executor ran %d times, want exactly 3", got)
	}
	if got := q.status(job.ID); got != models.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
	if len(q.retries) != 2 {
		t.Fatalf("expected 2 retry schedules, got %d", len(q.retries))
	}
	if q.retries[0].attempts != 1 || q.retries[1].attempts != 2 {
		t.Fatalf("retry attempts = %+v, want 1 then 2", q.retries)
	}
	// Exponential spacing: ~2s after first failure, ~4s after second.
	gap := q.retries[1].runAt.Sub(q.retries[0].runAt)
	if gap < time.Second || gap > 3*time.Second {
		t.Errorf("second retry should land ~2s after the first, gap=%v", gap)
	}
}

func TestTransientFailureEventuallySucceeds(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentJournal, 3)
	q.add(job)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{failUntil: 2}
	o.Register(models.AgentJournal, ex)

	drain(o, context.Background(), 5)

	if got := q.status(job.ID); got != models.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", got)
	}
	if ex.calls.Load() != 3 {
		t.Fatalf("executor ran %d times, want 3", ex.calls.Load())
	}
}

func TestDependencyGating(t *testing.T) {
	q := newFakeQueue()
	first := testJob(models.AgentJournal, 3)
	second := testJob(models.AgentJournal, 3, first.ID)
	// Hold the dependency in running so the dependent must wait.
	first.Status = models.JobStatusRunning
	q.add(first)
	q.add(second)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{}
	o.Register(models.AgentJournal, ex)

	drain(o, context.Background(), 2)
	if got := q.status(second.ID); got != models.JobStatusReady {
		t.Fatalf("dependent should still be waiting, status = %s", got)
	}
	if ex.calls.Load() != 0 {
		t.Fatal("dependent must not run before its dependency completes")
	}

	// Complete the dependency; next cycle releases the dependent.
	if err := q.MarkCompleted(context.Background(), first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drain(o, context.Background(), 1)
	if got := q.status(second.ID); got != models.JobStatusCompleted {
		t.Fatalf("dependent status = %s, want completed", got)
	}
}

func TestFailedDependencyCancelsDependent(t *testing.T) {
	q := newFakeQueue()
	first := testJob(models.AgentJournal, 3)
	first.Status = models.JobStatusFailed
	second := testJob(models.AgentJournal, 3, first.ID)
	q.add(first)
	q.add(second)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{}
	o.Register(models.AgentJournal, ex)

	drain(o, context.Background(), 1)

	if got := q.status(second.ID); got != models.JobStatusCancelled {
		t.Fatalf("dependent status = %s, want cancelled", got)
	}
	if ex.calls.Load() != 0 {
		t.Fatal("dependent of a failed job must never run")
	}
}

func TestCancelRequestedHonoredBeforeExecution(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentJournal, 3)
	job.CancelRequested = true
	q.add(job)

	o := newTestOrchestrator(q, 2)
	ex := &countingExecutor{}
	o.Register(models.AgentJournal, ex)

	drain(o, context.Background(), 1)

	if got := q.status(job.ID); got != models.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}
	if ex.calls.Load() != 0 {
		t.Fatal("cancelled job must not execute")
	}
}

func TestMissingExecutorFailsJob(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentFinance, 1)
	q.add(job)

	o := newTestOrchestrator(q, 2)
	drain(o, context.Background(), 1)

	if got := q.status(job.ID); got != models.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestPanickingExecutorFailsJobNotProcess(t *testing.T) {
	q := newFakeQueue()
	job := testJob(models.AgentJournal, 1)
	q.add(job)

	o := newTestOrchestrator(q, 2)
	o.Register(models.AgentJournal, ExecutorFunc(func(context.Context, *models.Job) error {
		panic("boom")
	}))

	drain(o, context.Background(), 1)

	if got := q.status(job.ID); got != models.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestConcurrencyBound(t *testing.T) {
	q := newFakeQueue()
	for i := 0; i < 6; i++ {
		q.add(testJob(models.AgentJournal, 1))
	}

	o := newTestOrchestrator(q, 2)
	var current, peak atomic.Int32
	o.Register(models.AgentJournal, ExecutorFunc(func(context.Context, *models.Job) error {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return nil
	}))

	// Each cycle dispatches at most the bound; later cycles pick up the rest.
	drain(o, context.Background(), 3)

	if p := peak.Load(); p > 2 {
		t.Fatalf("observed %d concurrent executions, bound is 2", p)
	}
	for id := range q.jobs {
		if got := q.status(id); got != models.JobStatusCompleted {
			t.Fatalf("job %s status = %s, want completed", id, got)
		}
	}
}

func TestAtCapacityJobStaysReady(t *testing.T) {
	q := newFakeQueue()
	first := testJob(models.AgentJournal, 1)
	second := testJob(models.AgentJournal, 1)
	q.add(first)
	q.add(second)

	block := make(chan struct{})
	started := make(chan struct{}, 2)
	o := newTestOrchestrator(q, 1)
	o.Register(models.AgentJournal, ExecutorFunc(func(context.Context, *models.Job) error {
		started <- struct{}{}
		<-block
		return nil
	}))

	ctx := context.Background()
	o.pollOnce(ctx)
	<-started

	// The pool is full: the next poll must return without claiming the
	// waiting job, leaving it ready for a later cycle.
	o.pollOnce(ctx)
	running, ready := 0, 0
	for id := range q.jobs {
		switch q.status(id) {
		case models.JobStatusRunning:
			running++
		case models.JobStatusReady:
			ready++
		}
	}
	if running != 1 || ready != 1 {
		t.Fatalf("running=%d ready=%d, want exactly one of each while the pool is full", running, ready)
	}

	close(block)
	o.wg.Wait()
	drain(o, ctx, 1)
	for id := range q.jobs {
		if got := q.status(id); got != models.JobStatusCompleted {
			t.Fatalf("job %s status = %s, want completed after the slot freed", id, got)
		}
	}
}
