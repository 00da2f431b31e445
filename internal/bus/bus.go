// Package bus is the in-process event router between agents. Delivery is
// at-least-once and synchronous: a publish returns after every subscribed
// agent has run, and handler errors are logged and counted, never
// propagated back to the producer. Handlers must be idempotent.
package bus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lifeos/internal/contract"
	"lifeos/internal/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// defaultCascadeBudget caps how many publishes a single root event may
// trigger transitively. A misbehaving agent that keeps re-emitting hits the
// budget and has its publish dropped instead of looping forever.
const defaultCascadeBudget = 32

// Handler consumes one domain event. Handlers run on the publisher's
// goroutine; blocking work belongs in a job, not a handler.
type Handler interface {
	Type() models.AgentType
	Handle(ctx context.Context, evt *models.DomainEvent) error
}

// EventBus routes domain events to subscribed agents via an explicit
// subscription table. Subscriptions are fixed at startup; Publish is safe
// for concurrent use.
type EventBus struct {
	mu            sync.RWMutex
	subscribers   map[models.EventType][]Handler
	cascadeBudget int
	limiter       *rate.Limiter
	onDelivered   func(evtType models.EventType, agent models.AgentType, err error)
}

// New creates an event bus with the default cascade budget and a publish
// rate limiter sized for a single user's cascade burst.
func New() *EventBus {
	return &EventBus{
		subscribers:   make(map[models.EventType][]Handler),
		cascadeBudget: defaultCascadeBudget,
		limiter:       rate.NewLimiter(rate.Limit(500), 1000),
	}
}

// SetCascadeBudget overrides the per-chain publish budget. Zero or negative
// restores the default.
func (b *EventBus) SetCascadeBudget(n int) {
	if n <= 0 {
		n = defaultCascadeBudget
	}
	b.cascadeBudget = n
}

// OnDelivered installs a delivery callback, used for metrics.
func (b *EventBus) OnDelivered(fn func(evtType models.EventType, agent models.AgentType, err error)) {
	b.onDelivered = fn
}

// Subscribe registers a handler for an event type. Subscribing to a type
// outside the vocabulary is a programming error and panics at startup
// rather than failing silently at runtime.
func (b *EventBus) Subscribe(evtType models.EventType, h Handler) {
	if !models.IsRegisteredEvent(evtType) {
		panic(fmt.Sprintf("bus: subscribe to unregistered event type %q", evtType))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[evtType] = append(b.subscribers[evtType], h)
	log.Printf("[BUS] Subscribed agent=%s to %s (subscribers=%d)", h.Type(), evtType, len(b.subscribers[evtType]))
}

// NewEvent builds a domain event inheriting the cascade depth of its cause.
// Pass nil cause for events that start a chain (external actions, sweeps).
func NewEvent(evtType models.EventType, userID string, payload any, cause *models.DomainEvent) *models.DomainEvent {
	depth := 0
	if cause != nil {
		depth = cause.CascadeDepth + 1
	}
	return &models.DomainEvent{
		ID:           uuid.New().String(),
		Type:         evtType,
		UserID:       userID,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
		CascadeDepth: depth,
	}
}

// Publish validates the event and delivers it to every subscriber of its
// type. Events over the cascade budget are dropped with a log line; this is
// the guard against infinite agent cascades. Returns the number of handlers
// that processed the event.
func (b *EventBus) Publish(ctx context.Context, evt *models.DomainEvent) (int, error) {
	if errs := contract.ValidateEvent(evt); errs != nil {
		return 0, errs
	}
	if evt.CascadeDepth >= b.cascadeBudget {
		log.Printf("⚠️ [BUS] Cascade budget exhausted (depth=%d), dropping %s for user %s",
			evt.CascadeDepth, evt.Type, evt.UserID)
		if b.onDelivered != nil {
			b.onDelivered(evt.Type, "", fmt.Errorf("cascade budget exhausted"))
		}
		return 0, nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("bus: publish aborted: %w", err)
	}

	b.mu.RLock()
	handlers := b.subscribers[evt.Type]
	b.mu.RUnlock()

	delivered := 0
	for _, h := range handlers {
		// At-least-once delivery: an agent appears in processed_by at most
		// once, so redundant redeliveries become no-ops here.
		if evt.WasProcessedBy(h.Type()) {
			continue
		}
		err := h.Handle(ctx, evt)
		if err != nil {
			log.Printf("❌ [BUS] Agent %s failed on %s (event %s): %v", h.Type(), evt.Type, evt.ID, err)
		} else {
			evt.MarkProcessed(h.Type())
			delivered++
		}
		if b.onDelivered != nil {
			b.onDelivered(evt.Type, h.Type(), err)
		}
	}
	return delivered, nil
}

// SubscriberCount returns how many handlers are registered for a type.
func (b *EventBus) SubscriberCount(evtType models.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[evtType])
}
