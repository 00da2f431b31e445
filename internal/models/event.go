package models

import "time"

// EventType names a fact an agent can publish. The vocabulary is closed and
// versioned: publishing or subscribing to an unregistered type is a
// programming error, caught at bus registration time.
type EventType string

const (
	EventJournalEntryCreated EventType = "journal.entry.created"
	EventJournalEntryEdited  EventType = "journal.entry.edited"
	EventJournalEntryLocked  EventType = "journal.entry.locked"

	EventCommitmentDetected  EventType = "commitment.detected"
	EventCommitmentActivated EventType = "commitment.activated"
	EventCommitmentFulfilled EventType = "commitment.fulfilled"
	EventCommitmentBroken    EventType = "commitment.broken"

	EventAreaSpawned EventType = "area.spawned"

	EventActionCompleted EventType = "action.completed"
	EventActionFailed    EventType = "action.failed"
	EventActionCancelled EventType = "action.cancelled"

	EventRollupRequested EventType = "fulfilment.rollup.requested"
	EventRollupCompleted EventType = "fulfilment.rollup.completed"

	EventChapterUpdated EventType = "narrative.chapter.updated"

	EventIntegrityIssueRaised   EventType = "integrity.issue.raised"
	EventIntegritySweepComplete EventType = "integrity.sweep.completed"

	EventTransactionRecorded EventType = "finance.transaction.recorded"

	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
)

// EventVocabularyVersion is bumped whenever the event-type set or a payload
// shape changes incompatibly.
const EventVocabularyVersion = "1"

// EventVocabulary is the registry of valid event types.
var EventVocabulary = map[EventType]bool{
	EventJournalEntryCreated:    true,
	EventJournalEntryEdited:     true,
	EventJournalEntryLocked:     true,
	EventCommitmentDetected:     true,
	EventCommitmentActivated:    true,
	EventCommitmentFulfilled:    true,
	EventCommitmentBroken:       true,
	EventAreaSpawned:            true,
	EventActionCompleted:        true,
	EventActionFailed:           true,
	EventActionCancelled:        true,
	EventRollupRequested:        true,
	EventRollupCompleted:        true,
	EventChapterUpdated:         true,
	EventIntegrityIssueRaised:   true,
	EventIntegritySweepComplete: true,
	EventTransactionRecorded:    true,
	EventJobCompleted:           true,
	EventJobFailed:              true,
}

// IsRegisteredEvent reports whether t belongs to the event vocabulary.
func IsRegisteredEvent(t EventType) bool {
	return EventVocabulary[t]
}

// DomainEvent is an immutable fact published by an agent. ProcessedBy tracks
// which agents have handled the event (each at most once) so at-least-once
// delivery stays idempotent. CascadeDepth counts how many publishes separate
// this event from the external action that started the chain; the bus uses
// it to cut off runaway cascades.
type DomainEvent struct {
	ID           string    `bson:"_id" json:"id"`
	Type         EventType `bson:"type" json:"type"`
	UserID       string    `bson:"userId" json:"user_id"`
	Payload      any       `bson:"payload" json:"payload"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	ProcessedBy  []string  `bson:"processedBy,omitempty" json:"processed_by,omitempty"`
	CascadeDepth int       `bson:"cascadeDepth" json:"cascade_depth"`
}

// WasProcessedBy reports whether the agent already handled this event.
func (e *DomainEvent) WasProcessedBy(agent AgentType) bool {
	for _, a := range e.ProcessedBy {
		if a == string(agent) {
			return true
		}
	}
	return false
}

// MarkProcessed records that the agent handled this event. Idempotent.
func (e *DomainEvent) MarkProcessed(agent AgentType) {
	if !e.WasProcessedBy(agent) {
		e.ProcessedBy = append(e.ProcessedBy, string(agent))
	}
}
