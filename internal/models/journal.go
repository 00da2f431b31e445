package models

import "time"

// ClassificationLink ties a journal entry to an (area, dimension) pair with
// a confidence-weighted signal. Signal is already normalized to 0–5.
type ClassificationLink struct {
	AreaID      string  `bson:"areaId" json:"area_id"`
	DimensionID string  `bson:"dimensionId" json:"dimension_id"`
	Weight      float64 `bson:"weight" json:"weight"`
	Confidence  float64 `bson:"confidence" json:"confidence"`
	Signal      float64 `bson:"signal" json:"signal"`
}

// JournalEntry is a raw journal record plus classification output.
// Locked entries reject all further edits (time-lock policy).
type JournalEntry struct {
	ID        string               `bson:"_id" json:"id"`
	UserID    string               `bson:"userId" json:"user_id"`
	Content   string               `bson:"content" json:"content"`
	EntryDate time.Time            `bson:"entryDate" json:"entry_date"`
	Sentiment float64              `bson:"sentiment" json:"sentiment"` // [-1,1]
	Links     []ClassificationLink `bson:"links,omitempty" json:"links,omitempty"`
	Locked    bool                 `bson:"locked" json:"locked"`
	CreatedAt time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updated_at"`
}
