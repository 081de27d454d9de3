package agent

import (
	"fmt"
	"math/rand"

	"snakerl/internal/config"
	"snakerl/internal/env"
)

// Agent is a learner driven by the episode runner. ChooseAction and
// SaveTransition are called once per step, StepReinforcement right after,
// EpisodeReinforcement once when the episode ends.
type Agent interface {
	Name() string
	ChooseAction(state env.StateKey) env.Action
	SaveTransition(state env.StateKey, action env.Action, reward float64)
	StepReinforcement(reward float64, next env.StateKey, terminal bool)
	// EpisodeReinforcement learns from the finished episode and returns
	// its return for reporting
	EpisodeReinforcement() float64
	Table() *ValueTable
	Epsilon() float64
	Hyperparameters() map[string]any
}

// HistoryRecord is one step of an episode as seen by the learner
type HistoryRecord struct {
	State  env.StateKey
	Action env.Action
	Reward float64
}

// NewTable creates an empty table suited to cfg
func NewTable(cfg config.AgentConfig) *ValueTable {
	if cfg.IndividualPolicies {
		return NewValueTable(&Policy{Epsilon: cfg.Epsilon, Step: cfg.EpsilonStep})
	}
	return NewValueTable(nil)
}

// New builds the learner named by cfg.Kind around table. A nil table gets
// a fresh one.
func New(cfg config.AgentConfig, table *ValueTable, rng *rand.Rand) (Agent, error) {
	if table == nil {
		table = NewTable(cfg)
	}
	switch cfg.Kind {
	case config.KindMonteCarlo:
		return NewMonteCarlo(cfg, table, rng), nil
	case config.KindQLearning:
		return NewQLearning(cfg, table, rng), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", cfg.Kind)
	}
}

// policyFor returns the exploration policy that applies in state
func policyFor(t *ValueTable, global *Policy, individual bool, state env.StateKey) *Policy {
	if individual {
		if e, ok := t.Lookup(state); ok && e.Policy != nil {
			return e.Policy
		}
	}
	return global
}

func flag(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
