package agents

import (
	"context"
	"errors"
	"fmt"

	"lifeos/internal/bus"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// FinanceAgent extracts money mentions from journal entries into a
// transaction ledger and mirrors each into the finance area's signal
// stream.
type FinanceAgent struct {
	transactions TransactionRepo
	fulfilment   FulfilmentRepo
	classifier   services.Classifier
	bus          *bus.EventBus
}

// NewFinanceAgent wires a finance agent.
func NewFinanceAgent(ts TransactionRepo, fs FulfilmentRepo, cl services.Classifier, b *bus.EventBus) *FinanceAgent {
	return &FinanceAgent{transactions: ts, fulfilment: fs, classifier: cl, bus: b}
}

// Type identifies this agent on the bus.
func (a *FinanceAgent) Type() models.AgentType { return models.AgentFinance }

// Handle records transactions detected in new journal entries.
func (a *FinanceAgent) Handle(ctx context.Context, evt *models.DomainEvent) error {
	if evt.Type != models.EventJournalEntryCreated {
		return nil
	}
	p, ok := evt.Payload.(models.JournalEntryCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", evt.Type)
	}

	detected, err := a.classifier.DetectAmounts(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("amount detection failed: %w", err)
	}

	for _, d := range detected {
		tx := &models.Transaction{
			ID:       uuid.New().String(),
			UserID:   evt.UserID,
			EntryID:  p.EntryID,
			Amount:   d.Amount,
			Currency: d.Currency,
		}
		if err := a.transactions.Create(ctx, tx); err != nil {
			return err
		}

		fe := &models.FulfilmentEntry{
			ID:          uuid.New().String(),
			UserID:      evt.UserID,
			LifeAreaID:  "finance",
			DimensionID: "spending",
			SourceType:  "transaction",
			SourceID:    tx.ID,
			Signal:      2.5,
			Sentiment:   p.Sentiment,
		}
		if err := a.fulfilment.CreateEntry(ctx, fe); err != nil && !errors.Is(err, services.ErrConflict) {
			return err
		}

		recorded := bus.NewEvent(models.EventTransactionRecorded, evt.UserID, models.TransactionRecordedPayload{
			TransactionID: tx.ID,
			EntryID:       p.EntryID,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
		}, evt)
		if _, err := a.bus.Publish(ctx, recorded); err != nil {
			logging.WithUser(evt.UserID).Error("publish finance.transaction.recorded failed", "error", err)
		}
	}
	return nil
}
