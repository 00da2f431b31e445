package models

import "time"

// Event payloads are tagged variants: each event type carries exactly one of
// the structs below, and the bus rejects a publish whose payload shape does
// not match its type. Downstream code type-asserts on a closed set instead
// of probing untyped maps.

// JournalEntryCreatedPayload accompanies journal.entry.created.
type JournalEntryCreatedPayload struct {
	EntryID   string               `bson:"entryId" json:"entry_id"`
	Content   string               `bson:"content" json:"content"`
	EntryDate time.Time            `bson:"entryDate" json:"entry_date"`
	Sentiment float64              `bson:"sentiment" json:"sentiment"`
	Links     []ClassificationLink `bson:"links,omitempty" json:"links,omitempty"`
}

// JournalEntryEditedPayload accompanies journal.entry.edited.
type JournalEntryEditedPayload struct {
	EntryID   string    `bson:"entryId" json:"entry_id"`
	EditedAt  time.Time `bson:"editedAt" json:"edited_at"`
	DaysSince int       `bson:"daysSince" json:"days_since"`
}

// JournalEntryLockedPayload accompanies journal.entry.locked, the security
// event raised on a time-lock violation.
type JournalEntryLockedPayload struct {
	EntryID   string    `bson:"entryId" json:"entry_id"`
	EntryDate time.Time `bson:"entryDate" json:"entry_date"`
	Attempted time.Time `bson:"attempted" json:"attempted"`
	Reason    string    `bson:"reason" json:"reason"`
}

// CommitmentDetectedPayload accompanies commitment.detected. When
// RequiresConfirmation is true the commitment stays in status "detected"
// until a person confirms it.
type CommitmentDetectedPayload struct {
	CommitmentID         string  `bson:"commitmentId" json:"commitment_id"`
	EntryID              string  `bson:"entryId" json:"entry_id"`
	Statement            string  `bson:"statement" json:"statement"`
	Confidence           float64 `bson:"confidence" json:"confidence"`
	RequiresConfirmation bool    `bson:"requiresConfirmation" json:"requires_confirmation"`
}

// CommitmentStatusPayload accompanies commitment.activated,
// commitment.fulfilled and commitment.broken.
type CommitmentStatusPayload struct {
	CommitmentID string           `bson:"commitmentId" json:"commitment_id"`
	Statement    string           `bson:"statement" json:"statement"`
	Status       CommitmentStatus `bson:"status" json:"status"`
	AreaID       string           `bson:"areaId,omitempty" json:"area_id,omitempty"`
}

// AreaSpawnedPayload accompanies area.spawned. Reused is true when an
// existing similar area was matched instead of creating a new one.
type AreaSpawnedPayload struct {
	AreaID       string `bson:"areaId" json:"area_id"`
	Name         string `bson:"name" json:"name"`
	CommitmentID string `bson:"commitmentId" json:"commitment_id"`
	Reused       bool   `bson:"reused" json:"reused"`
}

// ActionOutcomePayload accompanies action.completed, action.failed and
// action.cancelled.
type ActionOutcomePayload struct {
	ActionID     string `bson:"actionId" json:"action_id"`
	CommitmentID string `bson:"commitmentId,omitempty" json:"commitment_id,omitempty"`
	AreaID       string `bson:"areaId,omitempty" json:"area_id,omitempty"`
	Reason       string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// RollupRequestedPayload accompanies fulfilment.rollup.requested. Period is
// the rollup period key (e.g. "2026-08"); requests are debounced per
// (user, period) upstream of the fulfilment agent.
type RollupRequestedPayload struct {
	Period    string `bson:"period" json:"period"`
	Triggered string `bson:"triggered" json:"triggered"` // "entry", "action", "sweep"
}

// RollupCompletedPayload accompanies fulfilment.rollup.completed.
type RollupCompletedPayload struct {
	Period    string `bson:"period" json:"period"`
	Pairs     int    `bson:"pairs" json:"pairs"`
	Durations int64  `bson:"durationMs" json:"duration_ms"`
}

// ChapterUpdatedPayload accompanies narrative.chapter.updated.
type ChapterUpdatedPayload struct {
	ChapterID string  `bson:"chapterId" json:"chapter_id"`
	Era       string  `bson:"era" json:"era"`
	AreaID    string  `bson:"areaId" json:"area_id"`
	Entries   int     `bson:"entries" json:"entries"`
	Coherence float64 `bson:"coherence" json:"coherence"`
}

// IntegrityIssueRaisedPayload accompanies integrity.issue.raised.
type IntegrityIssueRaisedPayload struct {
	IssueID      string        `bson:"issueId" json:"issue_id"`
	CommitmentID string        `bson:"commitmentId,omitempty" json:"commitment_id,omitempty"`
	IssueType    string        `bson:"issueType" json:"issue_type"`
	Severity     IssueSeverity `bson:"severity" json:"severity"`
}

// IntegritySweepCompletePayload accompanies integrity.sweep.completed.
type IntegritySweepCompletePayload struct {
	Broken int `bson:"broken" json:"broken"`
	Score  int `bson:"score" json:"score"`
}

// TransactionRecordedPayload accompanies finance.transaction.recorded.
type TransactionRecordedPayload struct {
	TransactionID string  `bson:"transactionId" json:"transaction_id"`
	EntryID       string  `bson:"entryId" json:"entry_id"`
	Amount        float64 `bson:"amount" json:"amount"`
	Currency      string  `bson:"currency" json:"currency"`
}

// JobOutcomePayload accompanies job.completed and job.failed.
type JobOutcomePayload struct {
	JobID    string    `bson:"jobId" json:"job_id"`
	Agent    AgentType `bson:"agent" json:"agent"`
	Attempts int       `bson:"attempts" json:"attempts"`
	Error    string    `bson:"error,omitempty" json:"error,omitempty"`
}

// PayloadShape maps each event type to a probe function that accepts only
// the payload variant registered for it. The bus consults this table at the
// publish boundary.
var PayloadShape = map[EventType]func(any) bool{
	EventJournalEntryCreated:    func(p any) bool { _, ok := p.(JournalEntryCreatedPayload); return ok },
	EventJournalEntryEdited:     func(p any) bool { _, ok := p.(JournalEntryEditedPayload); return ok },
	EventJournalEntryLocked:     func(p any) bool { _, ok := p.(JournalEntryLockedPayload); return ok },
	EventCommitmentDetected:     func(p any) bool { _, ok := p.(CommitmentDetectedPayload); return ok },
	EventCommitmentActivated:    func(p any) bool { _, ok := p.(CommitmentStatusPayload); return ok },
	EventCommitmentFulfilled:    func(p any) bool { _, ok := p.(CommitmentStatusPayload); return ok },
	EventCommitmentBroken:       func(p any) bool { _, ok := p.(CommitmentStatusPayload); return ok },
	EventAreaSpawned:            func(p any) bool { _, ok := p.(AreaSpawnedPayload); return ok },
	EventActionCompleted:        func(p any) bool { _, ok := p.(ActionOutcomePayload); return ok },
	EventActionFailed:           func(p any) bool { _, ok := p.(ActionOutcomePayload); return ok },
	EventActionCancelled:        func(p any) bool { _, ok := p.(ActionOutcomePayload); return ok },
	EventRollupRequested:        func(p any) bool { _, ok := p.(RollupRequestedPayload); return ok },
	EventRollupCompleted:        func(p any) bool { _, ok := p.(RollupCompletedPayload); return ok },
	EventChapterUpdated:         func(p any) bool { _, ok := p.(ChapterUpdatedPayload); return ok },
	EventIntegrityIssueRaised:   func(p any) bool { _, ok := p.(IntegrityIssueRaisedPayload); return ok },
	EventIntegritySweepComplete: func(p any) bool { _, ok := p.(IntegritySweepCompletePayload); return ok },
	EventTransactionRecorded:    func(p any) bool { _, ok := p.(TransactionRecordedPayload); return ok },
	EventJobCompleted:           func(p any) bool { _, ok := p.(JobOutcomePayload); return ok },
	EventJobFailed:              func(p any) bool { _, ok := p.(JobOutcomePayload); return ok },
}
