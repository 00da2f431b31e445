package orchestrator

import (
	"testing"
	"time"

	"lifeos/internal/models"
)

func TestExponentialBackoffDoubles(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{0, 2 * time.Second}, // clamped to the first retry
	}
	for _, tt := range tests {
		if got := BackoffDelay(models.BackoffExponential, tt.attempts); got != tt.want {
			t.Errorf("BackoffDelay(exponential, %d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestBackoffCapped(t *testing.T) {
	for _, attempts := range []int{10, 20, 25, 1000} {
		if got := BackoffDelay(models.BackoffExponential, attempts); got > maxBackoff {
			t.Errorf("attempts=%d: delay %v exceeds cap %v", attempts, got, maxBackoff)
		}
	}
}

func TestLinearAndFixedBackoff(t *testing.T) {
	if got := BackoffDelay(models.BackoffLinear, 3); got != 6*time.Second {
		t.Errorf("linear attempt 3 = %v, want 6s", got)
	}
	if got := BackoffDelay(models.BackoffFixed, 7); got != 2*time.Second {
		t.Errorf("fixed attempt 7 = %v, want 2s", got)
	}
}
