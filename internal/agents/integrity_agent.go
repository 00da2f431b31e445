package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/services"

	"github.com/google/uuid"
)

// Severity weights for the monthly integrity score:
// score = max(0, 100 − 20·high − 10·medium − 5·low) over open issues.
const (
	penaltyHigh   = 20
	penaltyMedium = 10
	penaltyLow    = 5
)

// IntegrityAgent audits the promise/action ledger: failed actions raise
// issues, overdue commitments get swept to broken, and open issues roll up
// into a 0–100 integrity score.
type IntegrityAgent struct {
	issues      IssueRepo
	commitments CommitmentRepo
	bus         *bus.EventBus
	metrics     *services.Metrics
}

// NewIntegrityAgent wires an integrity agent.
func NewIntegrityAgent(is IssueRepo, cs CommitmentRepo, b *bus.EventBus, m *services.Metrics) *IntegrityAgent {
	return &IntegrityAgent{issues: is, commitments: cs, bus: b, metrics: m}
}

// Type identifies this agent on the bus.
func (a *IntegrityAgent) Type() models.AgentType { return models.AgentIntegrity }

// Handle raises issues for failed and cancelled actions.
func (a *IntegrityAgent) Handle(ctx context.Context, evt *models.DomainEvent) error {
	switch evt.Type {
	case models.EventActionFailed, models.EventActionCancelled:
		p, ok := evt.Payload.(models.ActionOutcomePayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", evt.Type)
		}
		issueType := "action_failed"
		if evt.Type == models.EventActionCancelled {
			issueType = "cancelled"
		}
		return a.raiseForAction(ctx, evt, p, issueType)
	default:
		return nil
	}
}

func (a *IntegrityAgent) raiseForAction(ctx context.Context, evt *models.DomainEvent, p models.ActionOutcomePayload, issueType string) error {
	severity := models.SeverityLow
	if p.CommitmentID != "" {
		c, err := a.commitments.GetByID(ctx, evt.UserID, p.CommitmentID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return err
		}
		if err == nil {
			severity = models.SeverityFromConfidence(c.Confidence)
		}
	}
	return a.raise(ctx, evt.UserID, &models.IntegrityIssue{
		ID:           uuid.New().String(),
		UserID:       evt.UserID,
		CommitmentID: p.CommitmentID,
		ActionID:     p.ActionID,
		IssueType:    issueType,
		Severity:     severity,
	}, evt)
}

// raise persists an issue and announces it. The (commitment, type) dedupe
// keeps repeated sweeps from stacking identical issues.
func (a *IntegrityAgent) raise(ctx context.Context, userID string, issue *models.IntegrityIssue, cause *models.DomainEvent) error {
	if issue.CommitmentID != "" {
		exists, err := a.issues.HasOpenIssue(ctx, userID, issue.CommitmentID, issue.IssueType)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}
	if err := a.issues.Create(ctx, issue); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.IssuesRaised.WithLabelValues(string(issue.Severity)).Inc()
	}

	evt := bus.NewEvent(models.EventIntegrityIssueRaised, userID, models.IntegrityIssueRaisedPayload{
		IssueID:      issue.ID,
		CommitmentID: issue.CommitmentID,
		IssueType:    issue.IssueType,
		Severity:     issue.Severity,
	}, cause)
	if _, err := a.bus.Publish(ctx, evt); err != nil {
		logging.WithUser(userID).Error("publish integrity.issue.raised failed", "error", err)
	}
	return nil
}

// Sweep marks overdue active commitments broken and raises an issue for
// each, then reports a per-user sweep summary with the current integrity
// score. Runs nightly.
func (a *IntegrityAgent) Sweep(ctx context.Context, now time.Time) error {
	overdue, err := a.commitments.ListActiveOverdue(ctx, now)
	if err != nil {
		return err
	}

	brokenByUser := make(map[string]int)
	for _, c := range overdue {
		if err := a.commitments.TransitionStatus(ctx, c.UserID, c.ID, models.CommitmentActive, models.CommitmentBroken); err != nil {
			if errors.Is(err, services.ErrConflict) {
				continue // another sweep got there first
			}
			return err
		}
		brokenByUser[c.UserID]++

		broken := bus.NewEvent(models.EventCommitmentBroken, c.UserID, models.CommitmentStatusPayload{
			CommitmentID: c.ID,
			Statement:    c.Statement,
			Status:       models.CommitmentBroken,
			AreaID:       c.AreaID,
		}, nil)
		if _, err := a.bus.Publish(ctx, broken); err != nil {
			logging.WithUser(c.UserID).Error("publish commitment.broken failed", "error", err)
		}

		// A broken promise is always a high-severity issue, regardless of
		// how confidently it was detected.
		if err := a.raise(ctx, c.UserID, &models.IntegrityIssue{
			ID:           uuid.New().String(),
			UserID:       c.UserID,
			CommitmentID: c.ID,
			IssueType:    "overdue",
			Severity:     models.SeverityHigh,
		}, broken); err != nil {
			return err
		}
	}

	for userID, count := range brokenByUser {
		score, err := a.Score(ctx, userID)
		if err != nil {
			return err
		}
		evt := bus.NewEvent(models.EventIntegritySweepComplete, userID, models.IntegritySweepCompletePayload{
			Broken: count,
			Score:  score,
		}, nil)
		if _, err := a.bus.Publish(ctx, evt); err != nil {
			logging.WithUser(userID).Error("publish integrity.sweep.completed failed", "error", err)
		}
	}
	return nil
}

// Score computes the user's current integrity score from open issues. A
// clean ledger scores 100.
func (a *IntegrityAgent) Score(ctx context.Context, userID string) (int, error) {
	open, err := a.issues.ListOpenByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return ScoreFromIssues(open), nil
}

// ScoreFromIssues is the pure scoring rule over a set of open issues.
func ScoreFromIssues(issues []models.IntegrityIssue) int {
	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityHigh:
			score -= penaltyHigh
		case models.SeverityMedium:
			score -= penaltyMedium
		default:
			score -= penaltyLow
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
