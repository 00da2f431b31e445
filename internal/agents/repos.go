package agents

import (
	"context"
	"time"

	"lifeos/internal/models"
)

// Repository interfaces are the persistence surface the agents see: one per
// entity, satisfied by the Mongo stores in internal/services. Agents depend
// on these, never on concrete stores, so their behavior is testable against
// in-memory fakes.

// JournalRepo persists journal entries.
type JournalRepo interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByID(ctx context.Context, userID, entryID string) (*models.JournalEntry, error)
	UpdateContent(ctx context.Context, userID, entryID, content string, sentiment float64) error
	Lock(ctx context.Context, userID, entryID string) error
	ListByIDs(ctx context.Context, userID string, ids []string) ([]models.JournalEntry, error)
}

// CommitmentRepo persists commitments and their status transitions.
type CommitmentRepo interface {
	Create(ctx context.Context, c *models.Commitment) error
	GetByID(ctx context.Context, userID, id string) (*models.Commitment, error)
	TransitionStatus(ctx context.Context, userID, id string, from, to models.CommitmentStatus) error
	SetArea(ctx context.Context, userID, id, areaID string) error
	SetTargetDate(ctx context.Context, userID, id string, target time.Time) error
	ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]models.Commitment, error)
}

// AreaRepo persists life areas.
type AreaRepo interface {
	Create(ctx context.Context, area *models.LifeArea) error
	ListByUser(ctx context.Context, userID string) ([]models.LifeArea, error)
}

// FulfilmentRepo persists fulfilment observations and rollup rows.
type FulfilmentRepo interface {
	CreateEntry(ctx context.Context, entry *models.FulfilmentEntry) error
	ListEntries(ctx context.Context, userID, areaID, dimensionID string, from, to time.Time) ([]models.FulfilmentEntry, error)
	ListPairs(ctx context.Context, userID string) ([][2]string, error)
	ListUsersWithEntries(ctx context.Context) ([]string, error)
	UpsertScore(ctx context.Context, score *models.FulfilmentScore) error
	GetScore(ctx context.Context, userID, areaID, dimensionID, period string) (*models.FulfilmentScore, error)
}

// ChapterRepo persists autobiography chapters.
type ChapterRepo interface {
	FindOrCreate(ctx context.Context, userID, era, areaID string) (*models.Chapter, error)
	LinkEntry(ctx context.Context, chapterID string, link models.ChapterEntryLink) error
	UpdateNarrative(ctx context.Context, chapterID, summary string, themes []string, coherence float64) error
	GetByID(ctx context.Context, userID, chapterID string) (*models.Chapter, error)
}

// IssueRepo persists integrity issues.
type IssueRepo interface {
	Create(ctx context.Context, issue *models.IntegrityIssue) error
	ListOpenByUser(ctx context.Context, userID string) ([]models.IntegrityIssue, error)
	HasOpenIssue(ctx context.Context, userID, commitmentID, issueType string) (bool, error)
}

// TransactionRepo persists detected transactions.
type TransactionRepo interface {
	Create(ctx context.Context, tx *models.Transaction) error
}
