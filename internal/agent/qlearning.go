package agent

import (
	"math/rand"

	"snakerl/internal/config"
	"snakerl/internal/env"
)

// QLearning is a one-step off-policy TD learner:
// Q(s,a) += alpha * (r + gamma * max Q(s',.) - Q(s,a))
type QLearning struct {
	table      *ValueTable
	policy     *Policy
	gate       IncentiveGate
	rng        *rand.Rand
	gamma      float64
	alpha      float64
	individual bool

	prevState  env.StateKey
	prevAction env.Action
	hasPrev    bool
	ret        float64

	// decayOpen is closed by the gate after an episode that did not improve
	decayOpen bool
	episodes  int
}

// NewQLearning creates a Q-Learning learner over table
func NewQLearning(cfg config.AgentConfig, table *ValueTable, rng *rand.Rand) *QLearning {
	return &QLearning{
		table:      table,
		policy:     &Policy{Epsilon: cfg.Epsilon, Step: cfg.EpsilonStep},
		gate:       IncentiveGate{Enabled: flag(cfg.LearningIncentive, false)},
		rng:        rng,
		gamma:      cfg.Gamma,
		alpha:      cfg.Alpha,
		individual: cfg.IndividualPolicies,
		decayOpen:  true,
	}
}

func (q *QLearning) Name() string { return "QLearning" }

func (q *QLearning) ChooseAction(state env.StateKey) env.Action {
	q.table.Visit(state)
	return q.table.EpsilonGreedy(state, policyFor(q.table, q.policy, q.individual, state), q.rng)
}

// SaveTransition remembers only the latest pair
func (q *QLearning) SaveTransition(state env.StateKey, action env.Action, reward float64) {
	q.prevState = state
	q.prevAction = action
	q.hasPrev = true
	q.ret += reward
}

func (q *QLearning) StepReinforcement(reward float64, next env.StateKey, terminal bool) {
	if !q.hasPrev {
		return
	}
	var bootstrap float64
	if !terminal {
		bootstrap = q.table.MaxValue(next)
	}
	q.table.Update(q.prevState, q.prevAction, func(av *ActionValue) {
		av.Counter++
		av.Value += q.alpha * (reward + q.gamma*bootstrap - av.Value)
	})
	if q.decayOpen {
		policyFor(q.table, q.policy, q.individual, q.prevState).Decay()
	}
}

// EpisodeReinforcement closes the episode and returns its undiscounted return
func (q *QLearning) EpisodeReinforcement() float64 {
	ret := q.ret
	if q.gate.Enabled {
		q.decayOpen = q.gate.Allow(ret)
	}
	q.ret = 0
	q.hasPrev = false
	q.episodes++
	return ret
}

func (q *QLearning) Table() *ValueTable { return q.table }

func (q *QLearning) Epsilon() float64 {
	if q.individual {
		return q.table.MeanEpsilon(q.policy.Epsilon)
	}
	return q.policy.Epsilon
}

func (q *QLearning) Hyperparameters() map[string]any {
	return map[string]any{
		"kind":                config.KindQLearning,
		"gamma":               q.gamma,
		"alpha":               q.alpha,
		"epsilon":             q.Epsilon(),
		"epsilon_step":        q.policy.Step,
		"individual_policies": q.individual,
		"learning_incentive":  q.gate.Enabled,
		"episodes":            q.episodes,
	}
}
