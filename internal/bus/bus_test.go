package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lifeos/internal/models"
)

// recordingHandler counts deliveries and optionally re-publishes, which is
// how cascade loops form in production.
type recordingHandler struct {
	agent   models.AgentType
	calls   atomic.Int32
	onEvent func(ctx context.Context, evt *models.DomainEvent) error
}

func (h *recordingHandler) Type() models.AgentType { return h.agent }

func (h *recordingHandler) Handle(ctx context.Context, evt *models.DomainEvent) error {
	h.calls.Add(1)
	if h.onEvent != nil {
		return h.onEvent(ctx, evt)
	}
	return nil
}

func entryCreated(userID string) *models.DomainEvent {
	return NewEvent(models.EventJournalEntryCreated, userID, models.JournalEntryCreatedPayload{
		EntryID:   "7b3f8f9a-0000-4000-8000-000000000001",
		Content:   "went for a run",
		EntryDate: time.Now().UTC(),
	}, nil)
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New()
	h1 := &recordingHandler{agent: models.AgentCommitment}
	h2 := &recordingHandler{agent: models.AgentFulfilment}
	b.Subscribe(models.EventJournalEntryCreated, h1)
	b.Subscribe(models.EventJournalEntryCreated, h2)

	delivered, err := b.Publish(context.Background(), entryCreated("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	if h1.calls.Load() != 1 || h2.calls.Load() != 1 {
		t.Fatalf("handler calls = %d, %d, want 1 each", h1.calls.Load(), h2.calls.Load())
	}
}

func TestRedeliverySkipsProcessedAgents(t *testing.T) {
	b := New()
	h := &recordingHandler{agent: models.AgentCommitment}
	b.Subscribe(models.EventJournalEntryCreated, h)

	evt := entryCreated("u1")
	if _, err := b.Publish(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same event delivered again, as at-least-once transports do.
	delivered, err := b.Publish(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("redelivery delivered = %d, want 0", delivered)
	}
	if h.calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", h.calls.Load())
	}
}

func TestFailedHandlerStaysEligibleForRedelivery(t *testing.T) {
	b := New()
	failOnce := int32(1)
	h := &recordingHandler{agent: models.AgentCommitment}
	h.onEvent = func(context.Context, *models.DomainEvent) error {
		if atomic.CompareAndSwapInt32(&failOnce, 1, 0) {
			return context.DeadlineExceeded
		}
		return nil
	}
	b.Subscribe(models.EventJournalEntryCreated, h)

	evt := entryCreated("u1")
	if delivered, _ := b.Publish(context.Background(), evt); delivered != 0 {
		t.Fatalf("failed handler counted as delivered")
	}
	if delivered, _ := b.Publish(context.Background(), evt); delivered != 1 {
		t.Fatalf("retry after failure not delivered, got %d", delivered)
	}
	if h.calls.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2", h.calls.Load())
	}
}

func TestCascadeBudgetStopsRepublishLoop(t *testing.T) {
	b := New()
	b.SetCascadeBudget(5)

	var published atomic.Int32
	var dropped atomic.Int32
	b.OnDelivered(func(_ models.EventType, agent models.AgentType, err error) {
		if agent == "" && err != nil {
			dropped.Add(1)
		}
	})

	// A handler that re-emits the same event type forever.
	h := &recordingHandler{agent: models.AgentCommitment}
	h.onEvent = func(ctx context.Context, evt *models.DomainEvent) error {
		published.Add(1)
		next := NewEvent(models.EventJournalEntryCreated, evt.UserID, models.JournalEntryCreatedPayload{
			EntryID:   "7b3f8f9a-0000-4000-8000-000000000002",
			Content:   "echo",
			EntryDate: time.Now().UTC(),
		}, evt)
		_, err := b.Publish(ctx, next)
		return err
	}
	b.Subscribe(models.EventJournalEntryCreated, h)

	if _, err := b.Publish(context.Background(), entryCreated("u1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Root depth 0 plus re-emits at depths 1..4 run; depth 5 is dropped.
	if got := h.calls.Load(); got != 5 {
		t.Fatalf("handler ran %d times, want 5", got)
	}
	if dropped.Load() != 1 {
		t.Fatalf("dropped = %d, want 1", dropped.Load())
	}
}

func TestNewEventInheritsDepth(t *testing.T) {
	root := entryCreated("u1")
	if root.CascadeDepth != 0 {
		t.Fatalf("root depth = %d, want 0", root.CascadeDepth)
	}
	child := NewEvent(models.EventJournalEntryCreated, "u1", models.JournalEntryCreatedPayload{
		EntryID: "7b3f8f9a-0000-4000-8000-000000000003", Content: "c", EntryDate: time.Now().UTC(),
	}, root)
	if child.CascadeDepth != 1 {
		t.Fatalf("child depth = %d, want 1", child.CascadeDepth)
	}
	grandchild := NewEvent(models.EventJournalEntryCreated, "u1", models.JournalEntryCreatedPayload{
		EntryID: "7b3f8f9a-0000-4000-8000-000000000004", Content: "g", EntryDate: time.Now().UTC(),
	}, child)
	if grandchild.CascadeDepth != 2 {
		t.Fatalf("grandchild depth = %d, want 2", grandchild.CascadeDepth)
	}
}

func TestPublishRejectsMismatchedPayload(t *testing.T) {
	b := New()
	evt := NewEvent(models.EventJournalEntryCreated, "u1", "not a payload struct", nil)
	if _, err := b.Publish(context.Background(), evt); err == nil {
		t.Fatal("expected validation error for mismatched payload")
	}
}

func TestSubscribeUnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unregistered event type")
		}
	}()
	New().Subscribe(models.EventType("no.such.event"), &recordingHandler{agent: models.AgentCommitment})
}
