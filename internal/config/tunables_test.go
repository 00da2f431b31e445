package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTunables(t *testing.T) {
	tun := DefaultTunables()
	if tun.AutoSpawnConfidence != 0.75 {
		t.Errorf("auto_spawn_confidence = %v, want 0.75", tun.AutoSpawnConfidence)
	}
	if tun.AreaSimilarity != 0.55 {
		t.Errorf("area_similarity = %v, want 0.55", tun.AreaSimilarity)
	}
	if tun.EditGraceDays != 7 || tun.EditLockDays != 90 {
		t.Errorf("edit windows = %d/%d, want 7/90", tun.EditGraceDays, tun.EditLockDays)
	}
	if len(tun.Eras) == 0 {
		t.Fatal("default era table must not be empty")
	}
	if err := tun.validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadTunablesEmptyPathReturnsDefaults(t *testing.T) {
	tun, err := LoadTunables("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tun.AutoSpawnConfidence != 0.75 {
		t.Fatalf("expected defaults, got %+v", tun)
	}
}

func writeTunables(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp tunables: %v", err)
	}
	return path
}

func TestLoadTunablesOverridesDefaults(t *testing.T) {
	path := writeTunables(t, "auto_spawn_confidence: 0.9\nbirth_year: 1984\n")
	tun, err := LoadTunables(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tun.AutoSpawnConfidence != 0.9 {
		t.Errorf("override not applied: %v", tun.AutoSpawnConfidence)
	}
	if tun.BirthYear != 1984 {
		t.Errorf("birth_year = %d, want 1984", tun.BirthYear)
	}
	// Untouched fields keep their defaults.
	if tun.EditGraceDays != 7 {
		t.Errorf("edit_grace_days = %d, want default 7", tun.EditGraceDays)
	}
}

func TestLoadTunablesRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"confidence over 1", "auto_spawn_confidence: 1.5\n"},
		{"negative similarity", "area_similarity: -0.1\n"},
		{"zero grace window", "edit_grace_days: 0\n"},
		{"grace past lock", "edit_grace_days: 100\nedit_lock_days: 90\n"},
		{"birth year out of range", "birth_year: 1492\n"},
		{"overlapping eras", "eras:\n  - name: a\n    start_year: 0\n    end_year: 20\n  - name: b\n    start_year: 15\n    end_year: 30\n"},
		{"inverted era", "eras:\n  - name: a\n    start_year: 30\n    end_year: 20\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadTunables(writeTunables(t, tc.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadTunablesMissingFile(t *testing.T) {
	if _, err := LoadTunables("/nonexistent/tunables.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
