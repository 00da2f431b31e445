package orchestrator

import (
	"testing"

	"lifeos/internal/models"
)

func TestJobTransitions(t *testing.T) {
	allowed := []struct{ from, to models.JobStatus }{
		{models.JobStatusReady, models.JobStatusRunning},
		{models.JobStatusReady, models.JobStatusCancelled},
		{models.JobStatusRunning, models.JobStatusCompleted},
		{models.JobStatusRunning, models.JobStatusFailed},
		{models.JobStatusRunning, models.JobStatusCancelled},
		{models.JobStatusRunning, models.JobStatusReady},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s → %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to models.JobStatus }{
		{models.JobStatusReady, models.JobStatusCompleted},
		{models.JobStatusReady, models.JobStatusFailed},
		{models.JobStatusCompleted, models.JobStatusRunning},
		{models.JobStatusFailed, models.JobStatusReady},
		{models.JobStatusCancelled, models.JobStatusRunning},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s → %s to be rejected", tr.from, tr.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []models.JobStatus{
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	}
	all := []models.JobStatus{
		models.JobStatusReady, models.JobStatusRunning,
		models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCancelled,
	}
	for _, from := range terminals {
		if !models.IsTerminalJobStatus(from) {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s should not transition to %s", from, to)
			}
		}
	}
}

func TestValidateTransitionMessage(t *testing.T) {
	if err := ValidateTransition(models.JobStatusReady, models.JobStatusRunning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateTransition(models.JobStatusCompleted, models.JobStatusReady); err == nil {
		t.Fatal("expected error for illegal transition")
	}
}
