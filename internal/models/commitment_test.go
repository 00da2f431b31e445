package models

import "testing"

func TestCanTransitionCommitment(t *testing.T) {
	allowed := [][2]CommitmentStatus{
		{CommitmentDetected, CommitmentConfirmed},
		{CommitmentDetected, CommitmentActive},
		{CommitmentDetected, CommitmentCancelled},
		{CommitmentConfirmed, CommitmentActive},
		{CommitmentConfirmed, CommitmentCancelled},
		{CommitmentActive, CommitmentFulfilled},
		{CommitmentActive, CommitmentBroken},
		{CommitmentActive, CommitmentCancelled},
	}
	for _, tr := range allowed {
		if !CanTransitionCommitment(tr[0], tr[1]) {
			t.Errorf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]CommitmentStatus{
		{CommitmentDetected, CommitmentFulfilled}, // cannot fulfil an unconfirmed promise
		{CommitmentConfirmed, CommitmentBroken},
		{CommitmentFulfilled, CommitmentActive},
		{CommitmentBroken, CommitmentActive},
		{CommitmentCancelled, CommitmentConfirmed},
		{CommitmentActive, CommitmentDetected},
	}
	for _, tr := range denied {
		if CanTransitionCommitment(tr[0], tr[1]) {
			t.Errorf("%s -> %s should be denied", tr[0], tr[1])
		}
	}
}

func TestTerminalCommitmentsHaveNoExits(t *testing.T) {
	all := []CommitmentStatus{
		CommitmentDetected, CommitmentConfirmed, CommitmentActive,
		CommitmentFulfilled, CommitmentBroken, CommitmentCancelled,
	}
	for _, from := range []CommitmentStatus{CommitmentFulfilled, CommitmentBroken, CommitmentCancelled} {
		for _, to := range all {
			if CanTransitionCommitment(from, to) {
				t.Errorf("terminal state %s must not transition to %s", from, to)
			}
		}
	}
}
