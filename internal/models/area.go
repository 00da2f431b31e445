package models

import "time"

// LifeArea is a tracked slice of a user's life, spawned from commitments.
// Near-duplicate commitments reuse an existing similar area instead of
// creating a new one.
type LifeArea struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"user_id"`
	Name      string    `bson:"name" json:"name"`
	SpawnedBy string    `bson:"spawnedBy,omitempty" json:"spawned_by,omitempty"` // commitment id
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}

// FulfilmentEntry mirrors a source record (journal entry, action, commitment)
// into an area's signal stream. The (userId, lifeAreaId, sourceType,
// sourceId) tuple is unique; a second mirror for the same source is a
// conflict, not an update.
type FulfilmentEntry struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"userId" json:"user_id"`
	LifeAreaID  string    `bson:"lifeAreaId" json:"life_area_id"`
	DimensionID string    `bson:"dimensionId" json:"dimension_id"`
	SourceType  string    `bson:"sourceType" json:"source_type"` // "entry", "action", "transaction"
	SourceID    string    `bson:"sourceId" json:"source_id"`
	Signal      float64   `bson:"signal" json:"signal"` // 0–5
	Sentiment   float64   `bson:"sentiment" json:"sentiment"`
	Completed   *bool     `bson:"completed,omitempty" json:"completed,omitempty"` // action outcomes only
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
}

// FulfilmentScore is the periodic rollup row, one per
// (user, area, dimension, period). Rollups upsert: re-running with the same
// inputs yields the same row.
type FulfilmentScore struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"userId" json:"user_id"`
	AreaID       string    `bson:"areaId" json:"area_id"`
	DimensionID  string    `bson:"dimensionId" json:"dimension_id"`
	Period       string    `bson:"period" json:"period"` // "2026-08"
	Score        float64   `bson:"score" json:"score"`   // [0,5]
	Confidence   float64   `bson:"confidence" json:"confidence"`
	Trend        float64   `bson:"trend" json:"trend"` // delta vs prior period
	Observations int       `bson:"observations" json:"observations"`
	ComputedAt   time.Time `bson:"computedAt" json:"computed_at"`
}
