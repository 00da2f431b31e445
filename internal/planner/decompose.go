package planner

import (
	"context"
	"fmt"
	"strings"

	"lifeos/internal/models"
)

// Decomposer turns an objective into atomic tasks. The heuristic
// implementation below is the default; model-backed decomposition plugs in
// behind the same interface.
type Decomposer interface {
	Decompose(ctx context.Context, objective string, constraints []string) ([]models.TaskDefinition, error)
}

// phase is one step of the standard decomposition template.
type phase struct {
	id     string
	title  string
	done   []string
	tests  []string
	deps   []string
	manual bool // defaults the owner to a person
}

// HeuristicDecomposer expands an objective through a fixed
// research → execute → validate → report template, one dependency chain.
type HeuristicDecomposer struct{}

// NewHeuristicDecomposer creates the default decomposer.
func NewHeuristicDecomposer() *HeuristicDecomposer {
	return &HeuristicDecomposer{}
}

// Decompose produces the task chain for an objective.
func (d *HeuristicDecomposer) Decompose(_ context.Context, objective string, constraints []string) ([]models.TaskDefinition, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, fmt.Errorf("objective is empty")
	}

	phases := []phase{
		{
			id:    "research",
			title: fmt.Sprintf("Gather context for: %s", objective),
			done:  []string{"relevant journal history reviewed", "constraints listed"},
		},
		{
			id:     "execute",
			title:  fmt.Sprintf("Carry out: %s", objective),
			done:   []string{"objective actions taken"},
			deps:   []string{"research"},
			manual: true,
		},
		{
			id:    "validate",
			title: fmt.Sprintf("Verify outcome of: %s", objective),
			done:  []string{"outcome checked against definition of done"},
			tests: []string{"outcome matches every constraint"},
			deps:  []string{"execute"},
		},
		{
			id:    "report",
			title: fmt.Sprintf("Record outcome of: %s", objective),
			done:  []string{"result journaled", "fulfilment signals updated"},
			deps:  []string{"validate"},
		},
	}

	tasks := make([]models.TaskDefinition, 0, len(phases))
	for _, p := range phases {
		owner := ownerFor(objective, p)
		tasks = append(tasks, models.TaskDefinition{
			TaskID:           p.id,
			Title:            p.title,
			DefinitionOfDone: p.done,
			Owner:            owner,
			EstimateHours:    estimate(owner, len(p.deps)),
			Inputs:           constraints,
			Tests:            p.tests,
			Dependencies:     p.deps,
		})
	}
	return tasks, nil
}

// ownerFor picks the agent best suited to a phase; anything requiring
// judgement or action in the world defaults to a person.
func ownerFor(objective string, p phase) models.AgentType {
	if p.manual {
		return models.OwnerHuman
	}
	lower := strings.ToLower(objective)
	switch {
	case p.id == "research" && containsAny(lower, "spend", "save", "budget", "money", "invest"):
		return models.AgentFinance
	case p.id == "research":
		return models.AgentJournal
	case p.id == "validate":
		return models.AgentIntegrity
	case p.id == "report":
		return models.AgentFulfilment
	default:
		return models.OwnerHuman
	}
}

// estimate sizes a task: a base hour, doubled for human work, plus half an
// hour of coordination per dependency.
func estimate(owner models.AgentType, deps int) float64 {
	est := 1.0
	if owner == models.OwnerHuman {
		est *= 2
	}
	return est + 0.5*float64(deps)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
