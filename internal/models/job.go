package models

import "time"

// JobStatus represents the scheduling state of a job.
type JobStatus string

const (
	JobStatusReady     JobStatus = "ready"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminalJobStatus reports whether a job can no longer change state.
func IsTerminalJobStatus(s JobStatus) bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job is a schedulable unit of work bound to one agent. Only the
// orchestrator's poll loop writes Status, Attempts and RunAt; every other
// component treats jobs as read-only.
type Job struct {
	ID           string         `bson:"_id" json:"id"`
	UserID       string         `bson:"userId" json:"user_id"`
	Agent        AgentType      `bson:"agent" json:"agent"`
	Intent       Intent         `bson:"intent" json:"intent"`
	Task         string         `bson:"task" json:"task"`
	Payload      map[string]any `bson:"payload,omitempty" json:"payload,omitempty"`
	Status       JobStatus      `bson:"status" json:"status"`
	RunAt        time.Time      `bson:"runAt" json:"run_at"`
	Attempts     int            `bson:"attempts" json:"attempts"`
	MaxAttempts  int            `bson:"maxAttempts" json:"max_attempts"`
	LastError    string         `bson:"lastError,omitempty" json:"last_error,omitempty"`
	Dependencies []string       `bson:"dependencies,omitempty" json:"dependencies,omitempty"`

	// CancelRequested asks a running job to stop at its next safe point.
	// Ready jobs cancel immediately; running jobs are never killed mid-write.
	CancelRequested bool `bson:"cancelRequested" json:"cancel_requested"`

	CreatedAt   time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updated_at"`
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}
