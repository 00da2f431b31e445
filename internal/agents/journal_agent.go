package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/config"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrEntryLocked is returned when an edit hits the time-lock policy.
var ErrEntryLocked = errors.New("journal entry is time-locked")

// rollupDebounceWindow coalesces rollup requests per (user, period). One
// journaling session produces one rollup, not one per entry.
const rollupDebounceWindow = 10 * time.Minute

// JournalAgent owns journal entry intake and the time-lock edit policy.
// Each accepted entry is classified, persisted and announced on the bus;
// the rest of the pipeline reacts from there.
type JournalAgent struct {
	store      JournalRepo
	classifier services.Classifier
	bus        *bus.EventBus
	debouncer  services.Debouncer
	tunables   *config.Tunables
}

// NewJournalAgent wires a journal agent.
func NewJournalAgent(store JournalRepo, classifier services.Classifier, b *bus.EventBus, d services.Debouncer, t *config.Tunables) *JournalAgent {
	return &JournalAgent{store: store, classifier: classifier, bus: b, debouncer: d, tunables: t}
}

// Type identifies this agent on the bus.
func (a *JournalAgent) Type() models.AgentType { return models.AgentJournal }

// Ingest accepts a new journal entry: scores sentiment, classifies it into
// (area, dimension) links, persists it and publishes journal.entry.created.
// A debounced fulfilment.rollup.requested follows for the entry's period.
func (a *JournalAgent) Ingest(ctx context.Context, userID, content string, entryDate time.Time) (*models.JournalEntry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("journal entry content is empty")
	}
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	sentiment, err := a.classifier.Sentiment(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("sentiment scoring failed: %w", err)
	}
	links, err := a.classifier.Classify(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	// Sentiment shifts each link's neutral signal into the 0–5 band.
	for i := range links {
		links[i].Signal = clampSignal(links[i].Signal + sentiment*2.5)
	}

	entry := &models.JournalEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		EntryDate: entryDate.UTC(),
		Sentiment: sentiment,
		Links:     links,
	}
	if err := a.store.Create(ctx, entry); err != nil {
		return nil, err
	}

	evt := bus.NewEvent(models.EventJournalEntryCreated, userID, models.JournalEntryCreatedPayload{
		EntryID:   entry.ID,
		Content:   entry.Content,
		EntryDate: entry.EntryDate,
		Sentiment: entry.Sentiment,
		Links:     entry.Links,
	}, nil)
	if _, err := a.bus.Publish(ctx, evt); err != nil {
		logging.WithUser(userID).Error("publish journal.entry.created failed", "error", err)
	}

	a.requestRollup(ctx, userID, PeriodOf(entry.EntryDate), "entry", evt)
	return entry, nil
}

// EditEntry applies the time-lock policy and, when permitted, replaces the
// entry text. An attempt past the lock window permanently locks the entry
// and lands in the security audit log.
func (a *JournalAgent) EditEntry(ctx context.Context, userID, entryID, content string) (*models.JournalEntry, error) {
	entry, err := a.store.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if entry.Locked {
		a.auditLockViolation(userID, entry, now, "entry already locked")
		return nil, fmt.Errorf("journal entry %s: %w", entryID, ErrEntryLocked)
	}

	decision := EvaluateEdit(entry.EntryDate, now, a.tunables.EditGraceDays, a.tunables.EditLockDays)
	if decision.Lock {
		if err := a.store.Lock(ctx, userID, entryID); err != nil {
			return nil, err
		}
		a.auditLockViolation(userID, entry, now, decision.Reason)
		evt := bus.NewEvent(models.EventJournalEntryLocked, userID, models.JournalEntryLockedPayload{
			EntryID:   entry.ID,
			EntryDate: entry.EntryDate,
			Attempted: now,
			Reason:    decision.Reason,
		}, nil)
		if _, perr := a.bus.Publish(ctx, evt); perr != nil {
			logging.WithUser(userID).Error("publish journal.entry.locked failed", "error", perr)
		}
		return nil, fmt.Errorf("journal entry %s: %s: %w", entryID, decision.Reason, ErrEntryLocked)
	}
	if decision.Late {
		logging.WithUser(userID).Info("late edit accepted",
			"entry_id", entry.ID, "days_since", int(now.Sub(entry.EntryDate).Hours()/24))
	}

	sentiment, err := a.classifier.Sentiment(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("sentiment scoring failed: %w", err)
	}
	if err := a.store.UpdateContent(ctx, userID, entryID, content, sentiment); err != nil {
		return nil, err
	}

	evt := bus.NewEvent(models.EventJournalEntryEdited, userID, models.JournalEntryEditedPayload{
		EntryID:   entry.ID,
		EditedAt:  now,
		DaysSince: int(now.Sub(entry.EntryDate).Hours() / 24),
	}, nil)
	if _, err := a.bus.Publish(ctx, evt); err != nil {
		logging.WithUser(userID).Error("publish journal.entry.edited failed", "error", err)
	}
	return a.store.GetByID(ctx, userID, entryID)
}

func (a *JournalAgent) requestRollup(ctx context.Context, userID, period, trigger string, cause *models.DomainEvent) {
	key := fmt.Sprintf("rollup:%s:%s", userID, period)
	fire, err := a.debouncer.ShouldFire(ctx, key, rollupDebounceWindow)
	if err != nil {
		logging.WithUser(userID).Warn("rollup debounce check failed", "error", err)
		return
	}
	if !fire {
		return
	}
	evt := bus.NewEvent(models.EventRollupRequested, userID, models.RollupRequestedPayload{
		Period:    period,
		Triggered: trigger,
	}, cause)
	if _, err := a.bus.Publish(ctx, evt); err != nil {
		logging.WithUser(userID).Error("publish fulfilment.rollup.requested failed", "error", err)
	}
}

func (a *JournalAgent) auditLockViolation(userID string, entry *models.JournalEntry, attempted time.Time, reason string) {
	logging.Security().WithFields(logrus.Fields{
		"event":      "timelock_violation",
		"user_id":    userID,
		"entry_id":   entry.ID,
		"entry_date": entry.EntryDate,
		"attempted":  attempted,
		"reason":     reason,
	}).Warn("rejected edit of time-locked journal entry")
}

// PeriodOf returns the rollup period key for a timestamp ("2026-08").
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func clampSignal(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}
