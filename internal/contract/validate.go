// Package contract defines and validates the single exchange format all
// agents speak. Validation is pure: no I/O, no side effects, field-level
// errors on failure.
package contract

import (
	"fmt"
	"strings"

	"lifeos/internal/models"

	"github.com/google/uuid"
)

// FieldError describes one invalid envelope field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the full list of problems found in an envelope.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "invalid envelope: " + strings.Join(parts, "; ")
}

// Validate checks every field of an envelope against the contract. It
// returns nil when the envelope is valid, otherwise the complete list of
// field errors (validation never short-circuits on the first problem).
func Validate(env *models.MessageEnvelope) ValidationErrors {
	var errs ValidationErrors

	if !isWellFormedID(env.ID) {
		errs = append(errs, FieldError{"id", "must be a well-formed identifier"})
	}
	if env.Timestamp.IsZero() {
		errs = append(errs, FieldError{"timestamp", "must be a valid instant"})
	}
	if !models.IsKnownAgent(env.Actor) {
		errs = append(errs, FieldError{"actor", fmt.Sprintf("unknown agent type %q", env.Actor)})
	}
	if !models.KnownIntents[env.Intent] {
		errs = append(errs, FieldError{"intent", fmt.Sprintf("must be one of plan, execute, validate, report; got %q", env.Intent)})
	}
	if strings.TrimSpace(env.Task) == "" {
		errs = append(errs, FieldError{"task", "must be non-empty"})
	}
	for i, dep := range env.Dependencies {
		if !isWellFormedID(dep) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("dependencies[%d]", i),
				Message: fmt.Sprintf("malformed identifier %q", dep),
			})
		}
	}
	if !models.KnownSources[env.Provenance.Source] {
		errs = append(errs, FieldError{"provenance.source", fmt.Sprintf("unknown source %q", env.Provenance.Source)})
	}
	if env.TTLSec <= 0 {
		errs = append(errs, FieldError{"ttl_sec", "must be > 0"})
	}
	if env.Retry.Count < 0 {
		errs = append(errs, FieldError{"retry.count", "must be >= 0"})
	}
	if env.Retry.Count > env.Retry.Max {
		errs = append(errs, FieldError{"retry.count", fmt.Sprintf("count %d exceeds max %d", env.Retry.Count, env.Retry.Max)})
	}
	if env.Retry.Backoff != "" && !models.KnownBackoffs[env.Retry.Backoff] {
		errs = append(errs, FieldError{"retry.backoff", fmt.Sprintf("unknown backoff strategy %q", env.Retry.Backoff)})
	}

	return errs
}

// ValidateEvent checks a domain event at the bus boundary: registered type
// and a payload matching the shape registered for that type. An unregistered
// type is a programming error on the producer side, reported here so the bus
// can reject the publish instead of propagating a malformed event.
func ValidateEvent(evt *models.DomainEvent) ValidationErrors {
	var errs ValidationErrors

	if !isWellFormedID(evt.ID) {
		errs = append(errs, FieldError{"id", "must be a well-formed identifier"})
	}
	if !models.IsRegisteredEvent(evt.Type) {
		errs = append(errs, FieldError{"type", fmt.Sprintf("unregistered event type %q (vocabulary v%s)", evt.Type, models.EventVocabularyVersion)})
		return errs
	}
	if evt.UserID == "" {
		errs = append(errs, FieldError{"user_id", "must be non-empty"})
	}
	if shape, ok := models.PayloadShape[evt.Type]; ok && !shape(evt.Payload) {
		errs = append(errs, FieldError{"payload", fmt.Sprintf("payload shape does not match event type %q", evt.Type)})
	}
	return errs
}

// isWellFormedID accepts UUIDs, which is what every component in this system
// generates.
func isWellFormedID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
