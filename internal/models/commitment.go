package models

import "time"

// CommitmentStatus follows the commitment state machine:
//
//	detected → confirmed → active → {fulfilled | broken}
//	detected → cancelled, active → cancelled
//
// High-confidence detections skip straight to active.
type CommitmentStatus string

const (
	CommitmentDetected  CommitmentStatus = "detected"
	CommitmentConfirmed CommitmentStatus = "confirmed"
	CommitmentActive    CommitmentStatus = "active"
	CommitmentFulfilled CommitmentStatus = "fulfilled"
	CommitmentBroken    CommitmentStatus = "broken"
	CommitmentCancelled CommitmentStatus = "cancelled"
)

// CommitmentTransitions defines the allowed status transitions.
var CommitmentTransitions = map[CommitmentStatus]map[CommitmentStatus]bool{
	CommitmentDetected: {
		CommitmentConfirmed: true,
		CommitmentActive:    true,
		CommitmentCancelled: true,
	},
	CommitmentConfirmed: {
		CommitmentActive:    true,
		CommitmentCancelled: true,
	},
	CommitmentActive: {
		CommitmentFulfilled: true,
		CommitmentBroken:    true,
		CommitmentCancelled: true,
	},
}

// CanTransitionCommitment reports whether from → to is a legal move.
func CanTransitionCommitment(from, to CommitmentStatus) bool {
	allowed, ok := CommitmentTransitions[from]
	return ok && allowed[to]
}

// Commitment is a promise detected in a journal entry.
type Commitment struct {
	ID         string           `bson:"_id" json:"id"`
	UserID     string           `bson:"userId" json:"user_id"`
	EntryID    string           `bson:"entryId" json:"entry_id"`
	Statement  string           `bson:"statement" json:"statement"`
	Confidence float64          `bson:"confidence" json:"confidence"` // [0,1]
	Status     CommitmentStatus `bson:"status" json:"status"`
	AreaID     string           `bson:"areaId,omitempty" json:"area_id,omitempty"`
	TargetDate *time.Time       `bson:"targetDate,omitempty" json:"target_date,omitempty"`
	CreatedAt  time.Time        `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time        `bson:"updatedAt" json:"updated_at"`
}
