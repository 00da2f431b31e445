package planner

import (
	"fmt"
	"sort"
	"strings"

	"lifeos/internal/models"
)

// CyclicDependencyError reports the tasks left unordered when the
// dependency graph contains a cycle.
type CyclicDependencyError struct {
	Remaining []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("task graph contains a cycle among: %s", strings.Join(e.Remaining, ", "))
}

// TopoSort orders tasks so every task appears after all of its
// dependencies (Kahn's algorithm). Unknown dependency references and
// cycles are errors. Ties break on task ID for a deterministic order.
func TopoSort(tasks []models.TaskDefinition) ([]models.TaskDefinition, error) {
	byID := make(map[string]models.TaskDefinition, len(tasks))
	for _, t := range tasks {
		if _, dup := byID[t.TaskID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.TaskID)
		}
		byID[t.TaskID] = t
	}

	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		indegree[t.TaskID] += 0
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", t.TaskID, dep)
			}
			indegree[t.TaskID]++
			dependents[dep] = append(dependents[dep], t.TaskID)
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	ordered := make([]models.TaskDefinition, 0, len(tasks))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])

		var released []string
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				released = append(released, next)
			}
		}
		sort.Strings(released)
		queue = append(queue, released...)
	}

	if len(ordered) != len(tasks) {
		var remaining []string
		seen := make(map[string]bool, len(ordered))
		for _, t := range ordered {
			seen[t.TaskID] = true
		}
		for _, t := range tasks {
			if !seen[t.TaskID] {
				remaining = append(remaining, t.TaskID)
			}
		}
		sort.Strings(remaining)
		return nil, &CyclicDependencyError{Remaining: remaining}
	}
	return ordered, nil
}

// ExpectedStartHours returns each task's earliest start in estimated hours
// from plan creation: zero-dependency tasks start at 0, the rest at the
// latest dependency's expected completion (its own start plus its
// estimate). Tasks must already be in topological order.
func ExpectedStartHours(ordered []models.TaskDefinition) map[string]float64 {
	estimate := make(map[string]float64, len(ordered))
	for _, t := range ordered {
		estimate[t.TaskID] = t.EstimateHours
	}

	start := make(map[string]float64, len(ordered))
	for _, t := range ordered {
		s := 0.0
		for _, dep := range t.Dependencies {
			if end := start[dep] + estimate[dep]; end > s {
				s = end
			}
		}
		start[t.TaskID] = s
	}
	return start
}
