package agent

import (
	"math/rand"

	"snakerl/internal/config"
	"snakerl/internal/env"
)

// MonteCarlo learns from whole episodes with the incremental mean
// Q += (G - Q) / N
type MonteCarlo struct {
	table      *ValueTable
	policy     *Policy
	gate       IncentiveGate
	rng        *rand.Rand
	history    []HistoryRecord
	gamma      float64
	everyVisit bool
	individual bool
	reverse    bool
	episodes   int
}

// NewMonteCarlo creates a Monte Carlo learner over table
func NewMonteCarlo(cfg config.AgentConfig, table *ValueTable, rng *rand.Rand) *MonteCarlo {
	return &MonteCarlo{
		table:      table,
		policy:     &Policy{Epsilon: cfg.Epsilon, Step: cfg.EpsilonStep},
		gate:       IncentiveGate{Enabled: flag(cfg.LearningIncentive, true)},
		rng:        rng,
		gamma:      cfg.Gamma,
		everyVisit: cfg.EveryVisit,
		individual: cfg.IndividualPolicies,
		reverse:    flag(cfg.ReverseHistory, true),
	}
}

func (m *MonteCarlo) Name() string { return "MonteCarlo" }

func (m *MonteCarlo) ChooseAction(state env.StateKey) env.Action {
	m.table.Visit(state)
	return m.table.EpsilonGreedy(state, policyFor(m.table, m.policy, m.individual, state), m.rng)
}

func (m *MonteCarlo) SaveTransition(state env.StateKey, action env.Action, reward float64) {
	m.history = append(m.history, HistoryRecord{State: state, Action: action, Reward: reward})
}

// StepReinforcement does nothing, Monte Carlo waits for the episode to end
func (m *MonteCarlo) StepReinforcement(float64, env.StateKey, bool) {}

// Return computes G = sum r_i * gamma^i over the buffered history. With
// reverse set the newest reward is discounted least.
func (m *MonteCarlo) Return() float64 {
	var g float64
	discount := 1.0
	n := len(m.history)
	for i := 0; i < n; i++ {
		rec := m.history[i]
		if m.reverse {
			rec = m.history[n-1-i]
		}
		g += rec.Reward * discount
		discount *= m.gamma
	}
	return g
}

func (m *MonteCarlo) EpisodeReinforcement() float64 {
	g := m.Return()
	decay := m.gate.Allow(g)

	var firstVisits []*StateEntry
	decayed := make(map[env.StateKey]struct{})
	for _, rec := range m.history {
		entry := m.table.Entry(rec.State)
		if !m.everyVisit {
			if entry.Visited {
				continue
			}
			entry.Visited = true
			firstVisits = append(firstVisits, entry)
		}

		av := &entry.Actions[rec.Action]
		av.Counter++
		av.Value += (g - av.Value) / float64(av.Counter)

		if m.individual && decay && entry.Policy != nil {
			if _, done := decayed[rec.State]; !done {
				entry.Policy.Decay()
				decayed[rec.State] = struct{}{}
			}
		}
	}
	for _, entry := range firstVisits {
		entry.Visited = false
	}
	if decay && !m.individual {
		m.policy.Decay()
	}

	m.history = m.history[:0]
	m.episodes++
	return g
}

func (m *MonteCarlo) Table() *ValueTable { return m.table }

// Epsilon returns the global exploration rate, or the mean of the private
// ones when every state explores on its own
func (m *MonteCarlo) Epsilon() float64 {
	if m.individual {
		return m.table.MeanEpsilon(m.policy.Epsilon)
	}
	return m.policy.Epsilon
}

func (m *MonteCarlo) Hyperparameters() map[string]any {
	return map[string]any{
		"kind":                config.KindMonteCarlo,
		"gamma":               m.gamma,
		"epsilon":             m.Epsilon(),
		"epsilon_step":        m.policy.Step,
		"every_visit":         m.everyVisit,
		"individual_policies": m.individual,
		"learning_incentive":  m.gate.Enabled,
		"reverse_history":     m.reverse,
		"episodes":            m.episodes,
	}
}
