package agents

import (
	"context"
	"testing"
	"time"

	"lifeos/internal/bus"
	"lifeos/internal/models"
)

func issuesOf(severities ...models.IssueSeverity) []models.IntegrityIssue {
	out := make([]models.IntegrityIssue, len(severities))
	for i, s := range severities {
		out[i] = models.IntegrityIssue{Severity: s}
	}
	return out
}

func TestSweepBreaksOverdueWithHighSeverity(t *testing.T) {
	b := bus.New()
	rec := recordEvents(b, models.EventCommitmentBroken, models.EventIntegrityIssueRaised, models.EventIntegritySweepComplete)
	commitments := newFakeCommitments()
	issues := &fakeIssues{}
	agent := NewIntegrityAgent(issues, commitments, b, nil)

	now := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)
	// Low detection confidence on purpose: a broken promise is high
	// severity no matter how tentatively it was detected.
	seed := &models.Commitment{
		ID:         "c-1",
		UserID:     "user-1",
		Statement:  "I should save more",
		Confidence: 0.5,
		Status:     models.CommitmentActive,
		TargetDate: &past,
	}
	if err := commitments.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := agent.Sweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	c, err := commitments.GetByID(context.Background(), "user-1", "c-1")
	if err != nil {
		t.Fatalf("get commitment: %v", err)
	}
	if c.Status != models.CommitmentBroken {
		t.Errorf("status = %s, want broken", c.Status)
	}

	open, _ := issues.ListOpenByUser(context.Background(), "user-1")
	if len(open) != 1 {
		t.Fatalf("open issues = %d, want 1", len(open))
	}
	if open[0].IssueType != "overdue" {
		t.Errorf("issue type = %s, want overdue", open[0].IssueType)
	}
	if open[0].Severity != models.SeverityHigh {
		t.Errorf("severity = %s, want high", open[0].Severity)
	}

	if n := len(rec.ofType(models.EventCommitmentBroken)); n != 1 {
		t.Errorf("commitment.broken events = %d, want 1", n)
	}
	done := rec.ofType(models.EventIntegritySweepComplete)
	if len(done) != 1 {
		t.Fatalf("sweep.completed events = %d, want 1", len(done))
	}
	p := done[0].Payload.(models.IntegritySweepCompletePayload)
	if p.Broken != 1 || p.Score != 80 {
		t.Errorf("sweep summary = %+v, want broken=1 score=80", p)
	}

	// A second sweep finds nothing: the commitment already left "active".
	if err := agent.Sweep(context.Background(), now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	open, _ = issues.ListOpenByUser(context.Background(), "user-1")
	if len(open) != 1 {
		t.Errorf("open issues after second sweep = %d, want 1", len(open))
	}
}

func TestFailedActionIssueIsNotStacked(t *testing.T) {
	b := bus.New()
	commitments := newFakeCommitments()
	issues := &fakeIssues{}
	agent := NewIntegrityAgent(issues, commitments, b, nil)

	seed := &models.Commitment{
		ID:         "c-1",
		UserID:     "user-1",
		Statement:  "ship the report",
		Confidence: 0.8,
		Status:     models.CommitmentActive,
	}
	if err := commitments.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	evt := bus.NewEvent(models.EventActionFailed, "user-1", models.ActionOutcomePayload{
		ActionID:     "a-1",
		CommitmentID: "c-1",
		Reason:       "timed out",
	}, nil)
	for i := 0; i < 2; i++ {
		if err := agent.Handle(context.Background(), evt); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	open, _ := issues.ListOpenByUser(context.Background(), "user-1")
	if len(open) != 1 {
		t.Fatalf("open issues = %d, want 1", len(open))
	}
	// Confidence 0.8 maps to medium on the action-failure path.
	if open[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want medium", open[0].Severity)
	}
}

func TestScoreFromIssues(t *testing.T) {
	cases := []struct {
		name   string
		issues []models.IntegrityIssue
		want   int
	}{
		{"clean ledger", nil, 100},
		{"one high", issuesOf(models.SeverityHigh), 80},
		{"one medium", issuesOf(models.SeverityMedium), 90},
		{"one low", issuesOf(models.SeverityLow), 95},
		{"mixed", issuesOf(models.SeverityHigh, models.SeverityMedium, models.SeverityLow), 65},
		{"floor at zero", issuesOf(
			models.SeverityHigh, models.SeverityHigh, models.SeverityHigh,
			models.SeverityHigh, models.SeverityHigh, models.SeverityHigh,
		), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScoreFromIssues(tc.issues); got != tc.want {
				t.Fatalf("score = %d, want %d", got, tc.want)
			}
		})
	}
}
