package models

import "time"

// TaskDefinition is one atomic unit of a plan. Dependencies reference
// task_ids within the same plan and must form a DAG.
type TaskDefinition struct {
	TaskID           string    `bson:"taskId" json:"task_id"`
	Title            string    `bson:"title" json:"title"`
	DefinitionOfDone []string  `bson:"definitionOfDone" json:"definition_of_done"`
	Owner            AgentType `bson:"owner" json:"owner"`
	EstimateHours    float64   `bson:"estimateHours" json:"estimate_hours"`
	Inputs           []string  `bson:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs          []string  `bson:"outputs,omitempty" json:"outputs,omitempty"`
	Tests            []string  `bson:"tests,omitempty" json:"tests,omitempty"`
	Dependencies     []string  `bson:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// PlanDefinition is a decomposed objective. Tasks are stored in topological
// order: every task's dependencies appear earlier in the list.
type PlanDefinition struct {
	PlanID        string           `bson:"_id" json:"plan_id"`
	UserID        string           `bson:"userId" json:"user_id"`
	Objective     string           `bson:"objective" json:"objective"`
	Constraints   []string         `bson:"constraints,omitempty" json:"constraints,omitempty"`
	StateSnapshot map[string]any   `bson:"stateSnapshot,omitempty" json:"state_snapshot,omitempty"`
	Deadline      *time.Time       `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Priority      int              `bson:"priority" json:"priority"`
	Tasks         []TaskDefinition `bson:"tasks" json:"tasks"`
	CreatedBy     string           `bson:"createdBy" json:"created_by"`
	CreatedAt     time.Time        `bson:"createdAt" json:"created_at"`
}
