package models

import "time"

// IssueSeverity grades an integrity issue. Severity derives
// deterministically from the source commitment's confidence.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// IssueStatus is the lifecycle of an integrity issue.
type IssueStatus string

const (
	IssueOpen         IssueStatus = "open"
	IssueAcknowledged IssueStatus = "acknowledged"
	IssueResolved     IssueStatus = "resolved"
	IssueDismissed    IssueStatus = "dismissed"
)

// IntegrityIssue records a detected promise/action mismatch.
type IntegrityIssue struct {
	ID           string        `bson:"_id" json:"id"`
	UserID       string        `bson:"userId" json:"user_id"`
	CommitmentID string        `bson:"commitmentId,omitempty" json:"commitment_id,omitempty"`
	ActionID     string        `bson:"actionId,omitempty" json:"action_id,omitempty"`
	IssueType    string        `bson:"issueType" json:"issue_type"` // "action_failed", "overdue", "cancelled"
	Severity     IssueSeverity `bson:"severity" json:"severity"`
	Status       IssueStatus   `bson:"status" json:"status"`
	Resolution   string        `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedAt   *time.Time    `bson:"resolvedAt,omitempty" json:"resolved_at,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"created_at"`
}

// SeverityFromConfidence derives issue severity from the commitment's
// detection confidence: >=0.9 high, >=0.75 medium, else low.
func SeverityFromConfidence(confidence float64) IssueSeverity {
	switch {
	case confidence >= 0.9:
		return SeverityHigh
	case confidence >= 0.75:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
