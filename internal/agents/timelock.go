package agents

import "time"

// EditDecision is the outcome of the journal time-lock policy for one
// attempted edit.
type EditDecision struct {
	Allowed bool
	// Late marks an allowed edit that falls outside the grace period but
	// still inside the edit window.
	Late bool
	// Lock means the entry must be permanently closed to edits, not just
	// this attempt rejected.
	Lock   bool
	Reason string
}

// EvaluateEdit applies the time-lock policy as a pure function of the entry
// date, the current time and the configured windows. Edits inside the grace
// window pass unrestricted; edits between the grace period and the lock
// window still pass but are flagged late; edits past the lock window trip a
// permanent lock.
func EvaluateEdit(entryDate, now time.Time, graceDays, lockDays int) EditDecision {
	age := now.Sub(entryDate)
	grace := time.Duration(graceDays) * 24 * time.Hour
	lock := time.Duration(lockDays) * 24 * time.Hour

	switch {
	case age <= grace:
		return EditDecision{Allowed: true}
	case age <= lock:
		return EditDecision{Allowed: true, Late: true}
	default:
		return EditDecision{Lock: true, Reason: "edit window closed; entry permanently locked"}
	}
}
