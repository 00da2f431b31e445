package services

import "errors"

// Typed store errors. Callers branch on these with errors.Is instead of
// matching driver error strings.
var (
	// ErrNotFound is returned when an entity does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint rejects a write,
	// e.g. a duplicate fulfilment mirror for the same source.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized is returned when the actor does not own the target
	// entity. The write is rejected with no state change.
	ErrUnauthorized = errors.New("unauthorized")
)
