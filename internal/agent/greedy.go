package agent

import (
	"math/rand"

	"snakerl/internal/env"
)

// Greedy plays a trained table without exploring or learning
type Greedy struct {
	table *ValueTable
	rng   *rand.Rand
}

// NewGreedy wraps table. States it has never seen are added with zero
// estimates, so hand it a clone if the table is shared.
func NewGreedy(table *ValueTable, rng *rand.Rand) *Greedy {
	return &Greedy{table: table, rng: rng}
}

func (g *Greedy) Name() string { return "Greedy" }

func (g *Greedy) ChooseAction(state env.StateKey) env.Action {
	return g.table.BestAction(state, g.rng)
}

func (g *Greedy) SaveTransition(env.StateKey, env.Action, float64) {}

func (g *Greedy) StepReinforcement(float64, env.StateKey, bool) {}

func (g *Greedy) EpisodeReinforcement() float64 { return 0 }

func (g *Greedy) Table() *ValueTable { return g.table }

func (g *Greedy) Epsilon() float64 { return 0 }

func (g *Greedy) Hyperparameters() map[string]any {
	return map[string]any{"kind": "greedy"}
}

// Scripted replays a fixed action sequence, then keeps repeating the last
// action
type Scripted struct {
	table   *ValueTable
	actions []env.Action
	next    int
}

// NewScripted creates an agent that plays actions in order
func NewScripted(actions []env.Action) *Scripted {
	return &Scripted{table: NewValueTable(nil), actions: actions}
}

func (s *Scripted) Name() string { return "Replay" }

func (s *Scripted) ChooseAction(env.StateKey) env.Action {
	if len(s.actions) == 0 {
		return env.ActionRight
	}
	i := min(s.next, len(s.actions)-1)
	s.next++
	return s.actions[i]
}

// Done reports whether every scripted action was played
func (s *Scripted) Done() bool { return s.next >= len(s.actions) }

func (s *Scripted) SaveTransition(env.StateKey, env.Action, float64) {}

func (s *Scripted) StepReinforcement(float64, env.StateKey, bool) {}

func (s *Scripted) EpisodeReinforcement() float64 { return 0 }

func (s *Scripted) Table() *ValueTable { return s.table }

func (s *Scripted) Epsilon() float64 { return 0 }

func (s *Scripted) Hyperparameters() map[string]any {
	return map[string]any{"kind": "replay"}
}
