package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/models"
	"lifeos/internal/services"
)

// In-memory repository fakes mirroring the Mongo stores' semantics: the
// same ErrNotFound/ErrConflict sentinels, the same CAS behavior on status
// transitions, the same unique-index conflicts on mirrored entries.

type fakeCommitments struct {
	mu    sync.Mutex
	items map[string]*models.Commitment
}

func newFakeCommitments() *fakeCommitments {
	return &fakeCommitments{items: make(map[string]*models.Commitment)}
}

func (f *fakeCommitments) Create(ctx context.Context, c *models.Commitment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.CreatedAt = time.Now().UTC()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCommitments) GetByID(ctx context.Context, userID, id string) (*models.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("commitment %s: %w", id, services.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommitments) TransitionStatus(ctx context.Context, userID, id string, from, to models.CommitmentStatus) error {
	if !models.CanTransitionCommitment(from, to) {
		return fmt.Errorf("illegal commitment transition %s → %s: %w", from, to, services.ErrConflict)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("commitment %s: %w", id, services.ErrNotFound)
	}
	if c.Status != from {
		return fmt.Errorf("commitment %s not in status %s: %w", id, from, services.ErrConflict)
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeCommitments) SetArea(ctx context.Context, userID, id, areaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("commitment %s: %w", id, services.ErrNotFound)
	}
	c.AreaID = areaID
	return nil
}

func (f *fakeCommitments) SetTargetDate(ctx context.Context, userID, id string, target time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("commitment %s: %w", id, services.ErrNotFound)
	}
	t := target.UTC()
	c.TargetDate = &t
	return nil
}

func (f *fakeCommitments) ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]models.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Commitment
	for _, c := range f.items {
		if c.Status == models.CommitmentActive && c.TargetDate != nil && c.TargetDate.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeAreas struct {
	mu    sync.Mutex
	areas []models.LifeArea
}

func (f *fakeAreas) Create(ctx context.Context, area *models.LifeArea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	area.CreatedAt = time.Now().UTC()
	f.areas = append(f.areas, *area)
	return nil
}

func (f *fakeAreas) ListByUser(ctx context.Context, userID string) ([]models.LifeArea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LifeArea
	for _, a := range f.areas {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeFulfilment struct {
	mu      sync.Mutex
	entries []models.FulfilmentEntry
	scores  map[string]models.FulfilmentScore
}

func newFakeFulfilment() *fakeFulfilment {
	return &fakeFulfilment{scores: make(map[string]models.FulfilmentScore)}
}

func scoreKey(userID, areaID, dimensionID, period string) string {
	return userID + "|" + areaID + "|" + dimensionID + "|" + period
}

func (f *fakeFulfilment) CreateEntry(ctx context.Context, entry *models.FulfilmentEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.UserID == entry.UserID && e.LifeAreaID == entry.LifeAreaID &&
			e.SourceType == entry.SourceType && e.SourceID == entry.SourceID {
			return fmt.Errorf("fulfilment entry for %s/%s: %w", entry.SourceType, entry.SourceID, services.ErrConflict)
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeFulfilment) ListEntries(ctx context.Context, userID, areaID, dimensionID string, from, to time.Time) ([]models.FulfilmentEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FulfilmentEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.LifeAreaID == areaID && e.DimensionID == dimensionID &&
			!e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFulfilment) ListPairs(ctx context.Context, userID string) ([][2]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[[2]string]bool)
	var out [][2]string
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		pair := [2]string{e.LifeAreaID, e.DimensionID}
		if !seen[pair] {
			seen[pair] = true
			out = append(out, pair)
		}
	}
	return out, nil
}

func (f *fakeFulfilment) ListUsersWithEntries(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range f.entries {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			out = append(out, e.UserID)
		}
	}
	return out, nil
}

func (f *fakeFulfilment) UpsertScore(ctx context.Context, score *models.FulfilmentScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[scoreKey(score.UserID, score.AreaID, score.DimensionID, score.Period)] = *score
	return nil
}

func (f *fakeFulfilment) GetScore(ctx context.Context, userID, areaID, dimensionID, period string) (*models.FulfilmentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scores[scoreKey(userID, areaID, dimensionID, period)]
	if !ok {
		return nil, fmt.Errorf("score %s: %w", period, services.ErrNotFound)
	}
	return &s, nil
}

type fakeIssues struct {
	mu     sync.Mutex
	issues []models.IntegrityIssue
}

func (f *fakeIssues) Create(ctx context.Context, issue *models.IntegrityIssue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue.CreatedAt = time.Now().UTC()
	if issue.Status == "" {
		issue.Status = models.IssueOpen
	}
	f.issues = append(f.issues, *issue)
	return nil
}

func (f *fakeIssues) ListOpenByUser(ctx context.Context, userID string) ([]models.IntegrityIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IntegrityIssue
	for _, i := range f.issues {
		if i.UserID == userID && i.Status == models.IssueOpen {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeIssues) HasOpenIssue(ctx context.Context, userID, commitmentID, issueType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.issues {
		if i.UserID == userID && i.CommitmentID == commitmentID &&
			i.IssueType == issueType && i.Status == models.IssueOpen {
			return true, nil
		}
	}
	return false, nil
}

// fakeClassifier returns canned inference results.
type fakeClassifier struct {
	links      []models.ClassificationLink
	sentiment  float64
	confidence float64
	statements []string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationLink, error) {
	return f.links, nil
}

func (f *fakeClassifier) Sentiment(ctx context.Context, text string) (float64, error) {
	return f.sentiment, nil
}

func (f *fakeClassifier) DetectCommitments(ctx context.Context, text string) (float64, []string, error) {
	return f.confidence, f.statements, nil
}

func (f *fakeClassifier) DetectAmounts(ctx context.Context, text string) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeClassifier) Summarize(ctx context.Context, entries []string) (string, error) {
	return "", nil
}

func (f *fakeClassifier) Coherence(ctx context.Context, entries []string) (float64, error) {
	return 0, nil
}

// eventRecorder subscribes to event types under test and keeps what it saw.
type eventRecorder struct {
	mu     sync.Mutex
	events []*models.DomainEvent
}

func (r *eventRecorder) Type() models.AgentType { return models.AgentPlanner }

func (r *eventRecorder) Handle(ctx context.Context, evt *models.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) ofType(t models.EventType) []*models.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DomainEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func recordEvents(b *bus.EventBus, types ...models.EventType) *eventRecorder {
	r := &eventRecorder{}
	for _, t := range types {
		b.Subscribe(t, r)
	}
	return r
}
