package models

// AgentType identifies a reactive agent in the pipeline. Agent types are a
// closed set: envelopes addressed to an unknown agent fail validation.
type AgentType string

const (
	AgentJournal    AgentType = "journal"
	AgentCommitment AgentType = "commitment"
	AgentFulfilment AgentType = "fulfilment"
	AgentNarrative  AgentType = "narrative"
	AgentIntegrity  AgentType = "integrity"
	AgentFinance    AgentType = "finance"
	AgentPlanner    AgentType = "planner"

	// OwnerHuman marks planner tasks that need a person, not an agent.
	OwnerHuman AgentType = "human"
)

// KnownAgentTypes is the registry of valid envelope actors and job targets.
var KnownAgentTypes = map[AgentType]bool{
	AgentJournal:    true,
	AgentCommitment: true,
	AgentFulfilment: true,
	AgentNarrative:  true,
	AgentIntegrity:  true,
	AgentFinance:    true,
	AgentPlanner:    true,
	OwnerHuman:      true,
}

// IsKnownAgent reports whether t is a registered agent type.
func IsKnownAgent(t AgentType) bool {
	return KnownAgentTypes[t]
}
