package models

import "time"

// Era is a fixed, non-overlapping year range the autobiography is divided
// into. The era table is configuration, not data.
type Era struct {
	Name      string `bson:"name" json:"name" yaml:"name"`
	StartYear int    `bson:"startYear" json:"start_year" yaml:"start_year"`
	EndYear   int    `bson:"endYear" json:"end_year" yaml:"end_year"` // inclusive
}

// Contains reports whether the year falls inside this era.
func (e Era) Contains(year int) bool {
	return year >= e.StartYear && year <= e.EndYear
}

// ChapterEntryLink ties a journal entry to a chapter with a relevance score.
type ChapterEntryLink struct {
	EntryID   string    `bson:"entryId" json:"entry_id"`
	Relevance float64   `bson:"relevance" json:"relevance"`
	LinkedAt  time.Time `bson:"linkedAt" json:"linked_at"`
}

// Chapter is one autobiography chapter, unique per (user, era, area).
// Summary, themes and coherence are regenerated from all linked entries
// whenever membership changes.
type Chapter struct {
	ID        string             `bson:"_id" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	Era       string             `bson:"era" json:"era"`
	AreaID    string             `bson:"areaId" json:"area_id"`
	Summary   string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Themes    []string           `bson:"themes,omitempty" json:"themes,omitempty"`
	Coherence float64            `bson:"coherence" json:"coherence"` // [0,1]
	Entries   []ChapterEntryLink `bson:"entries,omitempty" json:"entries,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}
