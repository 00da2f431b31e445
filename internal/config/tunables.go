package config

import (
	"fmt"
	"os"

	"lifeos/internal/models"

	"gopkg.in/yaml.v3"
)

// Tunables are product-calibrated constants. Their values are a product
// decision, not a correctness requirement, so they load from YAML rather
// than being hard-coded.
type Tunables struct {
	// Commitments at or above this confidence auto-activate and spawn an
	// area; below it they wait for human confirmation.
	AutoSpawnConfidence float64 `yaml:"auto_spawn_confidence"`

	// Minimum name similarity for reusing an existing area instead of
	// creating a new one.
	AreaSimilarity float64 `yaml:"area_similarity"`

	// Time-lock windows in days.
	EditGraceDays int `yaml:"edit_grace_days"`
	EditLockDays  int `yaml:"edit_lock_days"`

	// Autobiography era table (age ranges); must be non-overlapping.
	Eras []models.Era `yaml:"eras"`

	// Birth year anchors the age → era mapping. Single-tenant deployments
	// set this once; multi-tenant ones would move it to a profile record.
	BirthYear int `yaml:"birth_year"`
}

// DefaultTunables returns the built-in calibration.
func DefaultTunables() *Tunables {
	return &Tunables{
		AutoSpawnConfidence: 0.75,
		AreaSimilarity:      0.55,
		EditGraceDays:       7,
		EditLockDays:        90,
		Eras: []models.Era{
			{Name: "childhood", StartYear: 0, EndYear: 12},
			{Name: "adolescence", StartYear: 13, EndYear: 19},
			{Name: "early-adulthood", StartYear: 20, EndYear: 29},
			{Name: "establishment", StartYear: 30, EndYear: 44},
			{Name: "midlife", StartYear: 45, EndYear: 59},
			{Name: "later-life", StartYear: 60, EndYear: 120},
		},
		BirthYear: 1990,
	}
}

// LoadTunables reads the YAML tunables file, filling any omitted field from
// the defaults. An empty path returns the defaults directly.
func LoadTunables(path string) (*Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tunables file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tunables file: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tunables) validate() error {
	if t.AutoSpawnConfidence < 0 || t.AutoSpawnConfidence > 1 {
		return fmt.Errorf("auto_spawn_confidence must be in [0,1], got %v", t.AutoSpawnConfidence)
	}
	if t.AreaSimilarity < 0 || t.AreaSimilarity > 1 {
		return fmt.Errorf("area_similarity must be in [0,1], got %v", t.AreaSimilarity)
	}
	if t.EditGraceDays <= 0 || t.EditLockDays <= 0 {
		return fmt.Errorf("edit windows must be positive (grace=%d, lock=%d)", t.EditGraceDays, t.EditLockDays)
	}
	if t.EditGraceDays >= t.EditLockDays {
		return fmt.Errorf("edit grace window (%d days) must end before the lock window (%d days)", t.EditGraceDays, t.EditLockDays)
	}
	if t.BirthYear < 1900 || t.BirthYear > 2100 {
		return fmt.Errorf("birth_year out of range: %d", t.BirthYear)
	}
	for i, era := range t.Eras {
		if era.StartYear > era.EndYear {
			return fmt.Errorf("era %q has start year after end year", era.Name)
		}
		for _, other := range t.Eras[:i] {
			if era.StartYear <= other.EndYear && other.StartYear <= era.EndYear {
				return fmt.Errorf("eras %q and %q overlap", other.Name, era.Name)
			}
		}
	}
	return nil
}
