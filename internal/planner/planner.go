// Package planner decomposes objectives into dependency-ordered task plans
// and enqueues the agent-owned tasks as orchestrator jobs.
package planner

import (
	"context"
	"time"

	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// estimateScale maps one estimated hour of upstream work to one second of
// queue delay: run_at follows each dependency chain's expected completion
// without deferring real dispatch by hours. The deps-met check, not run_at,
// is what actually gates execution.
const estimateScale = time.Second

// Planner builds and persists plans.
type Planner struct {
	decomposer  Decomposer
	plans       *services.PlanStore
	jobs        *services.JobStore
	envelopes   *services.EnvelopeStore
	maxAttempts int
}

// New creates a planner. maxAttempts seeds the retry budget of every job
// the plan schedules.
func New(d Decomposer, ps *services.PlanStore, js *services.JobStore, es *services.EnvelopeStore, maxAttempts int) *Planner {
	return &Planner{decomposer: d, plans: ps, jobs: js, envelopes: es, maxAttempts: maxAttempts}
}

// BuildPlan decomposes the objective, orders the tasks topologically,
// persists the plan and schedules a job per agent-owned task. Human-owned
// tasks stay in the plan only; nothing executes them.
func (p *Planner) BuildPlan(ctx context.Context, userID, objective string, constraints []string, deadline *time.Time, priority int) (*models.PlanDefinition, error) {
	tasks, err := p.decomposer.Decompose(ctx, objective, constraints)
	if err != nil {
		return nil, err
	}
	ordered, err := TopoSort(tasks)
	if err != nil {
		return nil, err
	}

	plan := &models.PlanDefinition{
		PlanID:      uuid.New().String(),
		UserID:      userID,
		Objective:   objective,
		Constraints: constraints,
		Deadline:    deadline,
		Priority:    priority,
		Tasks:       ordered,
		CreatedBy:   string(models.AgentPlanner),
	}
	if err := p.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	if err := p.scheduleJobs(ctx, plan); err != nil {
		return nil, err
	}

	// Audit-trail envelope for the planning act itself.
	env := &models.MessageEnvelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Actor:     models.AgentPlanner,
		Intent:    models.IntentPlan,
		Task:      objective,
		Payload:   map[string]any{"planId": plan.PlanID, "userId": userID, "tasks": len(ordered)},
		Provenance: models.Provenance{
			Source:  models.SourceUser,
			Version: models.EventVocabularyVersion,
		},
		TTLSec: 86400,
		Retry:  models.RetryPolicy{Max: p.maxAttempts, Backoff: models.BackoffExponential},
	}
	if err := p.envelopes.Create(ctx, env); err != nil {
		logging.WithUser(userID).Warn("plan envelope write failed", "error", err)
	}

	logging.WithUser(userID).Info("plan created",
		"plan_id", plan.PlanID, "tasks", len(ordered))
	return plan, nil
}

// scheduleJobs enqueues one job per agent-owned task, wiring job
// dependencies from task dependencies. A task depending on a human task
// inherits that task's own (agent) dependencies instead, since no job will
// ever complete for the human one.
func (p *Planner) scheduleJobs(ctx context.Context, plan *models.PlanDefinition) error {
	starts := ExpectedStartHours(plan.Tasks)
	now := time.Now().UTC()

	jobIDs := make(map[string]string, len(plan.Tasks))
	agentDeps := make(map[string][]string, len(plan.Tasks))

	for _, task := range plan.Tasks {
		// Resolve transitive dependencies through human tasks.
		var deps []string
		for _, dep := range task.Dependencies {
			if id, ok := jobIDs[dep]; ok {
				deps = append(deps, id)
			} else {
				deps = append(deps, agentDeps[dep]...)
			}
		}
		agentDeps[task.TaskID] = deps

		if task.Owner == models.OwnerHuman {
			continue
		}

		job := &models.Job{
			ID:     uuid.New().String(),
			UserID: plan.UserID,
			Agent:  task.Owner,
			Intent: models.IntentExecute,
			Task:   task.Title,
			Payload: map[string]any{
				"planId": plan.PlanID,
				"taskId": task.TaskID,
			},
			RunAt:        now.Add(time.Duration(starts[task.TaskID] * float64(estimateScale))),
			MaxAttempts:  p.maxAttempts,
			Dependencies: deps,
		}
		if err := p.jobs.Create(ctx, job); err != nil {
			return err
		}
		jobIDs[task.TaskID] = job.ID
	}
	return nil
}
