package agents

import (
	"testing"
	"time"
)

func TestEvaluateEdit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		ageDays int
		allowed bool
		late    bool
		lock    bool
	}{
		{"same day", 0, true, false, false},
		{"inside grace", 5, true, false, false},
		{"grace boundary", 7, true, false, false},
		{"just past grace", 8, true, true, false},
		{"mid window", 30, true, true, false},
		{"window boundary", 90, true, true, false},
		{"past window", 91, false, false, true},
		{"long past window", 120, false, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entryDate := now.AddDate(0, 0, -tc.ageDays)
			d := EvaluateEdit(entryDate, now, 7, 90)
			if d.Allowed != tc.allowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tc.allowed)
			}
			if d.Late != tc.late {
				t.Errorf("Late = %v, want %v", d.Late, tc.late)
			}
			if d.Lock != tc.lock {
				t.Errorf("Lock = %v, want %v", d.Lock, tc.lock)
			}
			if d.Lock && d.Reason == "" {
				t.Error("a locking decision must carry a reason")
			}
		})
	}
}

func TestEvaluateEditMidWindowIsAllowedWithoutLocking(t *testing.T) {
	now := time.Now().UTC()
	d := EvaluateEdit(now.AddDate(0, 0, -30), now, 7, 90)
	if !d.Allowed || d.Lock {
		t.Fatalf("edit 30 days after the entry must pass inside the 90-day window, got %+v", d)
	}
	if !d.Late {
		t.Fatal("an edit past grace should be flagged late")
	}
}

func TestEvaluateEditPastWindowLocksPermanently(t *testing.T) {
	now := time.Now().UTC()
	d := EvaluateEdit(now.AddDate(0, 0, -120), now, 7, 90)
	if d.Allowed || !d.Lock {
		t.Fatalf("edit 120 days after the entry must be rejected and lock the entry, got %+v", d)
	}
}
