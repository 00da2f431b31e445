package planner

import (
	"context"
	"testing"

	"lifeos/internal/models"
)

func TestDecomposeProducesValidDAG(t *testing.T) {
	d := NewHeuristicDecomposer()
	tasks, err := d.Decompose(context.Background(), "save 500 dollars this month", []string{"no credit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) == 0 {
		t.Fatal("expected at least one task")
	}
	if _, err := TopoSort(tasks); err != nil {
		t.Fatalf("decomposed tasks must form a DAG: %v", err)
	}
}

func TestDecomposeRejectsEmptyObjective(t *testing.T) {
	d := NewHeuristicDecomposer()
	if _, err := d.Decompose(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for empty objective")
	}
}

func TestDecomposeOwnerHeuristics(t *testing.T) {
	d := NewHeuristicDecomposer()

	tasks, err := d.Decompose(context.Background(), "save money for a house deposit", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owners := make(map[string]models.AgentType)
	for _, tk := range tasks {
		owners[tk.TaskID] = tk.Owner
	}
	if owners["research"] != models.AgentFinance {
		t.Errorf("finance objective should route research to finance agent, got %s", owners["research"])
	}
	if owners["execute"] != models.OwnerHuman {
		t.Errorf("execution should default to a person, got %s", owners["execute"])
	}
	if owners["validate"] != models.AgentIntegrity {
		t.Errorf("validation should go to integrity agent, got %s", owners["validate"])
	}
}

func TestEstimatePenalizesHumansAndDependencies(t *testing.T) {
	agent := estimate(models.AgentJournal, 0)
	human := estimate(models.OwnerHuman, 0)
	if human <= agent {
		t.Errorf("human work should cost more: agent=%v human=%v", agent, human)
	}

	flat := estimate(models.AgentJournal, 0)
	chained := estimate(models.AgentJournal, 3)
	if chained <= flat {
		t.Errorf("dependencies should add coordination cost: flat=%v chained=%v", flat, chained)
	}
}
