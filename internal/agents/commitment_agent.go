package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/config"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// CommitmentAgent turns promise language in journal entries into tracked
// commitments. High-confidence detections activate immediately and spawn a
// life area; the rest wait in "detected" for human confirmation.
type CommitmentAgent struct {
	commitments CommitmentRepo
	areas       AreaRepo
	classifier  services.Classifier
	bus         *bus.EventBus
	tunables    *config.Tunables
	metrics     *services.Metrics
}

// NewCommitmentAgent wires a commitment agent.
func NewCommitmentAgent(cs CommitmentRepo, as AreaRepo, cl services.Classifier, b *bus.EventBus, t *config.Tunables, m *services.Metrics) *CommitmentAgent {
	return &CommitmentAgent{commitments: cs, areas: as, classifier: cl, bus: b, tunables: t, metrics: m}
}

// Type identifies this agent on the bus.
func (a *CommitmentAgent) Type() models.AgentType { return models.AgentCommitment }

// Handle reacts to journal.entry.created (detect promises) and
// action.completed (fulfil the linked commitment).
func (a *CommitmentAgent) Handle(ctx context.Context, evt *models.DomainEvent) error {
	switch evt.Type {
	case models.EventJournalEntryCreated:
		p, ok := evt.Payload.(models.JournalEntryCreatedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.detectFromEntry(ctx, evt, p)
	case models.EventActionCompleted:
		p, ok := evt.Payload.(models.ActionOutcomePayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		return a.fulfilFromAction(ctx, evt, p)
	default:
		return nil
	}
}

func (a *CommitmentAgent) detectFromEntry(ctx context.Context, evt *models.DomainEvent, p models.JournalEntryCreatedPayload) error {
	confidence, statements, err := a.classifier.DetectCommitments(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("commitment detection failed: %w", err)
	}
	if len(statements) == 0 {
		return nil
	}

	log := logging.WithUser(evt.UserID)
	for _, statement := range statements {
		c := &models.Commitment{
			ID:         uuid.New().String(),
			UserID:     evt.UserID,
			EntryID:    p.EntryID,
			Statement:  statement,
			Confidence: confidence,
			Status:     models.CommitmentDetected,
		}
		if err := a.commitments.Create(ctx, c); err != nil {
			return err
		}

		auto := confidence >= a.tunables.AutoSpawnConfidence
		detected := bus.NewEvent(models.EventCommitmentDetected, evt.UserID, models.CommitmentDetectedPayload{
			CommitmentID:         c.ID,
			EntryID:              p.EntryID,
			Statement:            statement,
			Confidence:           confidence,
			RequiresConfirmation: !auto,
		}, evt)
		if _, err := a.bus.Publish(ctx, detected); err != nil {
			log.Error("publish commitment.detected failed", "error", err)
		}

		if auto {
			if err := a.activate(ctx, c, detected); err != nil {
				return err
			}
			if a.metrics != nil {
				a.metrics.CommitmentsByPath.WithLabelValues("auto").Inc()
			}
		} else {
			log.Info("commitment awaiting confirmation",
				"commitment_id", c.ID, "confidence", confidence)
			if a.metrics != nil {
				a.metrics.CommitmentsByPath.WithLabelValues("confirmation").Inc()
			}
		}
	}
	return nil
}

// Confirm moves a detected commitment through confirmed into active and
// spawns its area. This is the human side of the confirmation flow; the
// optional target date is the deadline the integrity sweep enforces.
func (a *CommitmentAgent) Confirm(ctx context.Context, userID, commitmentID string, targetDate *time.Time) (*models.Commitment, error) {
	c, err := a.commitments.GetByID(ctx, userID, commitmentID)
	if err != nil {
		return nil, err
	}
	if err := a.commitments.TransitionStatus(ctx, userID, commitmentID, models.CommitmentDetected, models.CommitmentConfirmed); err != nil {
		return nil, err
	}
	c.Status = models.CommitmentConfirmed
	if targetDate != nil {
		if err := a.commitments.SetTargetDate(ctx, userID, commitmentID, *targetDate); err != nil {
			return nil, err
		}
	}
	if err := a.activate(ctx, c, nil); err != nil {
		return nil, err
	}
	return a.commitments.GetByID(ctx, userID, commitmentID)
}

// Cancel cancels a commitment from any non-terminal status.
func (a *CommitmentAgent) Cancel(ctx context.Context, userID, commitmentID string) error {
	c, err := a.commitments.GetByID(ctx, userID, commitmentID)
	if err != nil {
		return err
	}
	return a.commitments.TransitionStatus(ctx, userID, commitmentID, c.Status, models.CommitmentCancelled)
}

// activate transitions the commitment to active, resolves its life area
// (reusing a similar existing one when possible) and announces both facts.
func (a *CommitmentAgent) activate(ctx context.Context, c *models.Commitment, cause *models.DomainEvent) error {
	if err := a.commitments.TransitionStatus(ctx, c.UserID, c.ID, c.Status, models.CommitmentActive); err != nil {
		return err
	}

	areaName := a.areaNameFor(ctx, c.Statement)
	area, reused, err := a.resolveArea(ctx, c.UserID, areaName, c.ID)
	if err != nil {
		return err
	}
	if err := a.commitments.SetArea(ctx, c.UserID, c.ID, area.ID); err != nil {
		return err
	}

	log := logging.WithUser(c.UserID)
	spawned := bus.NewEvent(models.EventAreaSpawned, c.UserID, models.AreaSpawnedPayload{
		AreaID:       area.ID,
		Name:         area.Name,
		CommitmentID: c.ID,
		Reused:       reused,
	}, cause)
	if _, err := a.bus.Publish(ctx, spawned); err != nil {
		log.Error("publish area.spawned failed", "error", err)
	}

	activated := bus.NewEvent(models.EventCommitmentActivated, c.UserID, models.CommitmentStatusPayload{
		CommitmentID: c.ID,
		Statement:    c.Statement,
		Status:       models.CommitmentActive,
		AreaID:       area.ID,
	}, cause)
	if _, err := a.bus.Publish(ctx, activated); err != nil {
		log.Error("publish commitment.activated failed", "error", err)
	}
	return nil
}

func (a *CommitmentAgent) fulfilFromAction(ctx context.Context, evt *models.DomainEvent, p models.ActionOutcomePayload) error {
	if p.CommitmentID == "" {
		return nil
	}
	c, err := a.commitments.GetByID(ctx, evt.UserID, p.CommitmentID)
	if err != nil {
		return err
	}
	if c.Status != models.CommitmentActive {
		return nil
	}
	if err := a.commitments.TransitionStatus(ctx, evt.UserID, c.ID, models.CommitmentActive, models.CommitmentFulfilled); err != nil {
		return err
	}
	fulfilled := bus.NewEvent(models.EventCommitmentFulfilled, evt.UserID, models.CommitmentStatusPayload{
		CommitmentID: c.ID,
		Statement:    c.Statement,
		Status:       models.CommitmentFulfilled,
		AreaID:       c.AreaID,
	}, evt)
	if _, err := a.bus.Publish(ctx, fulfilled); err != nil {
		logging.WithUser(evt.UserID).Error("publish commitment.fulfilled failed", "error", err)
	}
	return nil
}

// areaNameFor derives an area name from the commitment text: the
// classifier's strongest area match, falling back to a generic bucket.
func (a *CommitmentAgent) areaNameFor(ctx context.Context, statement string) string {
	links, err := a.classifier.Classify(ctx, statement)
	if err == nil && len(links) > 0 {
		best := links[0]
		for _, l := range links[1:] {
			if l.Confidence > best.Confidence {
				best = l
			}
		}
		return best.AreaID
	}
	return "commitments"
}

// resolveArea reuses an existing area whose name is similar enough,
// otherwise creates a new one.
func (a *CommitmentAgent) resolveArea(ctx context.Context, userID, name, commitmentID string) (*models.LifeArea, bool, error) {
	existing, err := a.areas.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		if NameSimilarity(existing[i].Name, name) >= a.tunables.AreaSimilarity {
			return &existing[i], true, nil
		}
	}

	area := &models.LifeArea{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		SpawnedBy: commitmentID,
	}
	if err := a.areas.Create(ctx, area); err != nil {
		return nil, false, err
	}
	return area, false, nil
}

// NameSimilarity scores two area names in [0, 1]: exact match, substring
// containment, then token overlap.
func NameSimilarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	ta, tb := strings.Fields(a), strings.Fields(b)
	set := make(map[string]bool, len(ta))
	for _, w := range ta {
		set[w] = true
	}
	inter := 0
	for _, w := range tb {
		if set[w] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
