package models

import "time"

// Intent is the purpose of a message exchanged between agents.
type Intent string

const (
	IntentPlan     Intent = "plan"
	IntentExecute  Intent = "execute"
	IntentValidate Intent = "validate"
	IntentReport   Intent = "report"
)

// KnownIntents is the closed set of envelope intents.
var KnownIntents = map[Intent]bool{
	IntentPlan:     true,
	IntentExecute:  true,
	IntentValidate: true,
	IntentReport:   true,
}

// ProvenanceSource records where an envelope originated.
type ProvenanceSource string

const (
	SourceSystem ProvenanceSource = "system"
	SourceUser   ProvenanceSource = "user"
	SourceImport ProvenanceSource = "import"
)

// KnownSources is the closed set of provenance sources.
var KnownSources = map[ProvenanceSource]bool{
	SourceSystem: true,
	SourceUser:   true,
	SourceImport: true,
}

// BackoffStrategy selects how retry delays grow.
type BackoffStrategy string

const (
	BackoffExponential BackoffStrategy = "exponential"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffFixed       BackoffStrategy = "fixed"
)

// KnownBackoffs is the closed set of retry backoff strategies.
var KnownBackoffs = map[BackoffStrategy]bool{
	BackoffExponential: true,
	BackoffLinear:      true,
	BackoffFixed:       true,
}

// Provenance describes the origin and contract version of an envelope.
type Provenance struct {
	Source  ProvenanceSource `bson:"source" json:"source"`
	Version string           `bson:"version" json:"version"`
}

// RetryPolicy carries retry bookkeeping on an envelope. Count never exceeds Max.
type RetryPolicy struct {
	Count   int             `bson:"count" json:"count"`
	Max     int             `bson:"max" json:"max"`
	Backoff BackoffStrategy `bson:"backoff" json:"backoff"`
}

// MessageEnvelope is the canonical unit of inter-agent communication.
// Envelopes are immutable once created; dependencies reference envelope IDs
// that must already exist.
type MessageEnvelope struct {
	ID           string         `bson:"_id" json:"id"`
	Timestamp    time.Time      `bson:"timestamp" json:"timestamp"`
	Actor        AgentType      `bson:"actor" json:"actor"`
	Intent       Intent         `bson:"intent" json:"intent"`
	Task         string         `bson:"task" json:"task"`
	Payload      map[string]any `bson:"payload,omitempty" json:"payload,omitempty"`
	Dependencies []string       `bson:"dependencies,omitempty" json:"dependencies,omitempty"`
	Provenance   Provenance     `bson:"provenance" json:"provenance"`
	TTLSec       int            `bson:"ttlSec" json:"ttl_sec"`
	Retry        RetryPolicy    `bson:"retry" json:"retry"`
}
