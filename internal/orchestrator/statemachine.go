package orchestrator

import (
	"fmt"

	"lifeos/internal/models"
)

// validTransitions is the job state machine. Terminal states have no
// outgoing edges; everything else is rejected before touching storage.
var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusReady: {
		models.JobStatusRunning,
		models.JobStatusCancelled,
	},
	models.JobStatusRunning: {
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
		models.JobStatusReady, // retry re-queue
	},
	models.JobStatusCompleted: {},
	models.JobStatusFailed:    {},
	models.JobStatusCancelled: {},
}

// CanTransition reports whether from → to is a legal job state change.
func CanTransition(from, to models.JobStatus) bool {
	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a descriptive error for illegal moves.
func ValidateTransition(from, to models.JobStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid job transition: %s → %s", from, to)
	}
	return nil
}
