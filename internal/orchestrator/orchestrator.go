// Package orchestrator runs the job queue: it is the single writer of job
// status, attempts and run_at. Agents enqueue jobs and receive events; all
// claiming, retrying and terminal bookkeeping happens here.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// pollBatchSize bounds how many ready jobs one poll cycle considers.
const pollBatchSize = 50

// Executor runs one job for one agent type. Executors must respect ctx
// cancellation and be safe to retry.
type Executor interface {
	Execute(ctx context.Context, job *models.Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job *models.Job) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, job *models.Job) error { return f(ctx, job) }

// JobQueue is the mutation surface of the job store. Only the orchestrator
// holds this interface; everything else gets read or enqueue access at
// most, which is what keeps job state single-writer.
type JobQueue interface {
	ListReady(ctx context.Context, now time.Time, limit int64) ([]models.Job, error)
	GetMany(ctx context.Context, ids []string) ([]models.Job, error)
	GetByID(ctx context.Context, id string) (*models.Job, error)
	ClaimRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, attempts int, lastError string, runAt time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error
	MarkCancelled(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
}

// Orchestrator polls for ready jobs, gates them on their dependencies,
// dispatches them to per-agent executors under a concurrency bound, and
// applies the retry/backoff policy on failure.
type Orchestrator struct {
	jobs         JobQueue
	envelopes    *services.EnvelopeStore
	bus          *bus.EventBus
	metrics      *services.Metrics
	pollInterval time.Duration

	mu        sync.RWMutex
	executors map[models.AgentType]Executor

	sem  chan struct{}
	stop chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates an orchestrator with the given concurrency bound and poll
// interval.
func New(jobs JobQueue, envelopes *services.EnvelopeStore, b *bus.EventBus, m *services.Metrics, maxConcurrent int, pollInterval time.Duration) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Orchestrator{
		jobs:         jobs,
		envelopes:    envelopes,
		bus:          b,
		metrics:      m,
		pollInterval: pollInterval,
		executors:    make(map[models.AgentType]Executor),
		sem:          make(chan struct{}, maxConcurrent),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Register binds an executor to an agent type. Call before Start.
func (o *Orchestrator) Register(agent models.AgentType, ex Executor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executors[agent] = ex
}

// Start launches the poll loop. It runs until Stop or ctx cancellation.
func (o *Orchestrator) Start(ctx context.Context) {
	go func() {
		defer close(o.done)
		ticker := time.NewTicker(o.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-o.stop:
				return
			case <-ticker.C:
				o.pollOnce(ctx)
			}
		}
	}()
}

// Stop halts the poll loop and waits for in-flight jobs to finish.
func (o *Orchestrator) Stop() {
	close(o.stop)
	<-o.done
	o.wg.Wait()
}

// CancelJob is the user-facing cancel: ready jobs cancel immediately,
// running jobs stop at their next safe point. Idempotent.
func (o *Orchestrator) CancelJob(ctx context.Context, id string) error {
	err := o.jobs.Cancel(ctx, id)
	if err == nil && o.metrics != nil {
		o.metrics.JobsCompleted.WithLabelValues(string(models.JobStatusCancelled)).Inc()
	}
	return err
}

// pollOnce claims and dispatches every ready job whose dependencies are
// met. Jobs with a terminally-failed dependency are cancelled instead of
// waiting forever.
func (o *Orchestrator) pollOnce(ctx context.Context) {
	ready, err := o.jobs.ListReady(ctx, time.Now().UTC(), pollBatchSize)
	if err != nil {
		slog.Error("job poll failed", "error", err)
		return
	}

	for i := range ready {
		job := ready[i]
		ok, blockedForever, err := o.depsMet(ctx, &job)
		if err != nil {
			logging.WithJob(job.ID, string(job.Agent), job.UserID).Error("dependency check failed", "error", err)
			continue
		}
		if blockedForever {
			if err := o.jobs.Cancel(ctx, job.ID); err != nil && !errors.Is(err, services.ErrConflict) {
				logging.WithJob(job.ID, string(job.Agent), job.UserID).Error("cancel of blocked job failed", "error", err)
				continue
			}
			o.publishOutcome(ctx, &job, models.EventActionCancelled, "dependency failed")
			if o.metrics != nil {
				o.metrics.JobsCompleted.WithLabelValues(string(models.JobStatusCancelled)).Inc()
			}
			continue
		}
		if !ok {
			continue
		}
		o.dispatch(ctx, job)
	}
}

// depsMet reports whether all dependencies completed, and whether any
// reached a terminal state other than completed (making the job
// unrunnable).
func (o *Orchestrator) depsMet(ctx context.Context, job *models.Job) (met bool, blockedForever bool, err error) {
	if len(job.Dependencies) == 0 {
		return true, false, nil
	}
	deps, err := o.jobs.GetMany(ctx, job.Dependencies)
	if err != nil {
		return false, false, err
	}
	if len(deps) != len(job.Dependencies) {
		return false, true, nil // a dependency vanished; never runnable
	}
	for _, dep := range deps {
		switch dep.Status {
		case models.JobStatusCompleted:
		case models.JobStatusFailed, models.JobStatusCancelled:
			return false, true, nil
		default:
			return false, false, nil
		}
	}
	return true, false, nil
}

// dispatch claims the job and executes it on a bounded goroutine. The
// worker slot is taken before the claim: at capacity the job stays ready
// and gets re-polled, and the poll loop never blocks on a busy pool. A
// lost claim race is a silent skip: some other poll cycle owns the job.
func (o *Orchestrator) dispatch(ctx context.Context, job models.Job) {
	select {
	case o.sem <- struct{}{}:
	default:
		return
	}

	if err := o.jobs.ClaimRunning(ctx, job.ID); err != nil {
		<-o.sem
		if !errors.Is(err, services.ErrConflict) {
			logging.WithJob(job.ID, string(job.Agent), job.UserID).Error("claim failed", "error", err)
		}
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() { <-o.sem }()
		o.run(ctx, job)
	}()
}

func (o *Orchestrator) run(ctx context.Context, job models.Job) {
	log := logging.WithJob(job.ID, string(job.Agent), job.UserID)
	if o.metrics != nil {
		o.metrics.JobsRunning.Inc()
		defer o.metrics.JobsRunning.Dec()
	}
	started := time.Now()

	// Safe point: honor a cancel requested between claim and execution.
	if current, err := o.jobs.GetByID(ctx, job.ID); err == nil && current.CancelRequested {
		if err := o.jobs.MarkCancelled(ctx, job.ID); err == nil {
			o.publishOutcome(ctx, &job, models.EventActionCancelled, "cancelled before execution")
			if o.metrics != nil {
				o.metrics.JobsCompleted.WithLabelValues(string(models.JobStatusCancelled)).Inc()
			}
		}
		return
	}

	err := o.execute(ctx, &job)
	if o.metrics != nil {
		o.metrics.JobDuration.Observe(time.Since(started).Seconds())
	}

	if err == nil {
		if err := o.jobs.MarkCompleted(ctx, job.ID); err != nil {
			log.Error("completion write failed", "error", err)
			return
		}
		log.Info("job completed", "duration", time.Since(started))
		if o.metrics != nil {
			o.metrics.JobsCompleted.WithLabelValues(string(models.JobStatusCompleted)).Inc()
		}
		o.publishJobEvent(ctx, &job, models.EventJobCompleted, job.Attempts, "")
		o.publishOutcome(ctx, &job, models.EventActionCompleted, "")
		return
	}

	attempts := job.Attempts + 1
	if attempts < job.MaxAttempts {
		delay := BackoffDelay(models.BackoffExponential, attempts)
		log.Warn("job failed, scheduling retry",
			"error", err, "attempt", attempts, "max_attempts", job.MaxAttempts, "delay", delay)
		if o.metrics != nil {
			o.metrics.JobRetries.Inc()
		}
		if rerr := o.jobs.MarkRetry(ctx, job.ID, attempts, err.Error(), time.Now().UTC().Add(delay)); rerr != nil {
			log.Error("retry write failed", "error", rerr)
		}
		return
	}

	log.Error("job failed permanently", "error", err, "attempts", attempts)
	if ferr := o.jobs.MarkFailed(ctx, job.ID, attempts, err.Error()); ferr != nil {
		log.Error("failure write failed", "error", ferr)
		return
	}
	if o.metrics != nil {
		o.metrics.JobsCompleted.WithLabelValues(string(models.JobStatusFailed)).Inc()
	}
	o.publishJobEvent(ctx, &job, models.EventJobFailed, attempts, err.Error())
	o.publishOutcome(ctx, &job, models.EventActionFailed, err.Error())
}

// execute looks up the agent's executor and runs it with panic recovery: a
// panicking executor fails the job instead of the process.
func (o *Orchestrator) execute(ctx context.Context, job *models.Job) (err error) {
	o.mu.RLock()
	ex, ok := o.executors[job.Agent]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no executor registered for agent %q", job.Agent)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panicked: %v", r)
		}
	}()
	return ex.Execute(ctx, job)
}

func (o *Orchestrator) publishJobEvent(ctx context.Context, job *models.Job, evtType models.EventType, attempts int, errMsg string) {
	o.recordReport(ctx, job, evtType, attempts, errMsg)
	evt := bus.NewEvent(evtType, job.UserID, models.JobOutcomePayload{
		JobID:    job.ID,
		Agent:    job.Agent,
		Attempts: attempts,
		Error:    errMsg,
	}, nil)
	if _, err := o.bus.Publish(ctx, evt); err != nil {
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Error("publish job event failed", "type", evtType, "error", err)
	}
}

// publishOutcome announces the job as an action so the domain agents react:
// failures feed integrity, completions feed fulfilment and commitments.
func (o *Orchestrator) publishOutcome(ctx context.Context, job *models.Job, evtType models.EventType, reason string) {
	evt := bus.NewEvent(evtType, job.UserID, models.ActionOutcomePayload{
		ActionID:     job.ID,
		CommitmentID: stringField(job.Payload, "commitmentId"),
		AreaID:       stringField(job.Payload, "areaId"),
		Reason:       reason,
	}, nil)
	if _, err := o.bus.Publish(ctx, evt); err != nil {
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Error("publish action outcome failed", "type", evtType, "error", err)
	}
}

// recordReport writes the audit-trail envelope for a terminal job outcome.
func (o *Orchestrator) recordReport(ctx context.Context, job *models.Job, evtType models.EventType, attempts int, errMsg string) {
	if o.envelopes == nil {
		return
	}
	env := &models.MessageEnvelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Actor:     job.Agent,
		Intent:    models.IntentReport,
		Task:      job.Task,
		Payload: map[string]any{
			"jobId":    job.ID,
			"userId":   job.UserID,
			"outcome":  string(evtType),
			"attempts": attempts,
			"error":    errMsg,
		},
		Provenance: models.Provenance{
			Source:  models.SourceSystem,
			Version: models.EventVocabularyVersion,
		},
		TTLSec: 86400,
		Retry: models.RetryPolicy{
			Count:   attempts,
			Max:     job.MaxAttempts,
			Backoff: models.BackoffExponential,
		},
	}
	if err := o.envelopes.Create(ctx, env); err != nil {
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Warn("report envelope write failed", "error", err)
	}
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
