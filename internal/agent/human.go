package agent

import "snakerl/internal/env"

// Human follows steering suggestions from the keyboard and learns nothing
type Human struct {
	table   *ValueTable
	current env.Action
	next    *env.Action
}

// NewHuman creates a human-driven agent that starts heading right
func NewHuman() *Human {
	return &Human{table: NewValueTable(nil), current: env.ActionRight}
}

// Steer queues the action taken on the next step
func (h *Human) Steer(a env.Action) {
	h.next = &a
}

func (h *Human) Name() string { return "Human" }

func (h *Human) ChooseAction(env.StateKey) env.Action {
	if h.next != nil {
		h.current = *h.next
		h.next = nil
	}
	return h.current
}

func (h *Human) SaveTransition(env.StateKey, env.Action, float64) {}

func (h *Human) StepReinforcement(float64, env.StateKey, bool) {}

func (h *Human) EpisodeReinforcement() float64 { return 0 }

func (h *Human) Table() *ValueTable { return h.table }

func (h *Human) Epsilon() float64 { return 0 }

func (h *Human) Hyperparameters() map[string]any {
	return map[string]any{"kind": "human"}
}
