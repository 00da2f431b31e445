package orchestrator

import (
	"time"

	"lifeos/internal/models"
)

// maxBackoff caps the retry delay so a job with a generous attempt budget
// still retries within a bounded window.
const maxBackoff = 5 * time.Minute

// BackoffDelay computes the wait before retry number `attempts` (1-based:
// the first retry follows the first failure). Exponential doubles from two
// seconds; linear grows by two seconds per attempt; fixed stays at two.
func BackoffDelay(strategy models.BackoffStrategy, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	var d time.Duration
	switch strategy {
	case models.BackoffLinear:
		d = time.Duration(attempts) * 2 * time.Second
	case models.BackoffFixed:
		d = 2 * time.Second
	default: // exponential
		if attempts > 20 {
			return maxBackoff
		}
		d = time.Duration(1<<uint(attempts)) * time.Second
	}

	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
