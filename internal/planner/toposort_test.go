package planner

import (
	"errors"
	"testing"

	"lifeos/internal/models"
)

func task(id string, deps ...string) models.TaskDefinition {
	return models.TaskDefinition{TaskID: id, Title: id, Owner: models.AgentJournal, Dependencies: deps}
}

func indexOf(tasks []models.TaskDefinition, id string) int {
	for i, t := range tasks {
		if t.TaskID == id {
			return i
		}
	}
	return -1
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	tasks := []models.TaskDefinition{
		task("d", "b", "c"),
		task("b", "a"),
		task("c", "a"),
		task("a"),
	}

	ordered, err := TopoSort(tasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ordered) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(ordered))
	}
	for _, tk := range ordered {
		for _, dep := range tk.Dependencies {
			if indexOf(ordered, dep) >= indexOf(ordered, tk.TaskID) {
				t.Fatalf("dependency %s appears after %s", dep, tk.TaskID)
			}
		}
	}
}

func TestTopoSortDeterministic(t *testing.T) {
	tasks := []models.TaskDefinition{task("c"), task("a"), task("b")}

	first, err := TopoSort(tasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := TopoSort(tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range first {
			if first[j].TaskID != again[j].TaskID {
				t.Fatalf("order changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	tasks := []models.TaskDefinition{
		task("a", "c"),
		task("b", "a"),
		task("c", "b"),
		task("standalone"),
	}

	_, err := TopoSort(tasks)
	var cycle *CyclicDependencyError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
	if len(cycle.Remaining) != 3 {
		t.Fatalf("expected 3 tasks in cycle, got %v", cycle.Remaining)
	}
}

func TestTopoSortRejectsUnknownDependency(t *testing.T) {
	tasks := []models.TaskDefinition{task("a", "ghost")}
	if _, err := TopoSort(tasks); err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestTopoSortRejectsDuplicateID(t *testing.T) {
	tasks := []models.TaskDefinition{task("a"), task("a")}
	if _, err := TopoSort(tasks); err == nil {
		t.Fatal("expected error for duplicate task id")
	}
}

func TestExpectedStartHoursFollowsEstimates(t *testing.T) {
	estimated := func(id string, hours float64, deps ...string) models.TaskDefinition {
		tk := task(id, deps...)
		tk.EstimateHours = hours
		return tk
	}
	tasks := []models.TaskDefinition{
		estimated("a", 2),
		estimated("b", 1, "a"),
		estimated("c", 4, "a"),
		estimated("d", 1, "b", "c"),
	}
	ordered, err := TopoSort(tasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	starts := ExpectedStartHours(ordered)
	// d waits for c (starts at 2, runs 4), not the shorter b branch.
	want := map[string]float64{"a": 0, "b": 2, "c": 2, "d": 6}
	for id, s := range want {
		if starts[id] != s {
			t.Errorf("start[%s] = %v, want %v", id, starts[id], s)
		}
	}
}
