package agent

import "math"

// Policy is an epsilon-greedy exploration schedule
type Policy struct {
	Epsilon float64 `json:"epsilon"`
	Step    float64 `json:"epsilon_step"`
}

// Decay applies the harmonic rule eps' = 1 / (1/eps + step). Repeated
// calls walk eps toward zero as 1/(1/eps0 + n*step).
func (p *Policy) Decay() {
	p.Epsilon = 1 / (1/p.Epsilon + p.Step)
}

// IncentiveGate lets exploration decay only when the agent improves. A
// disabled gate always allows.
type IncentiveGate struct {
	Enabled bool
	best    float64
	seen    bool
}

// Allow reports whether ret beats every return seen so far, recording it
// when it does
func (g *IncentiveGate) Allow(ret float64) bool {
	if !g.Enabled {
		return true
	}
	if !g.seen || ret > g.best {
		g.best = ret
		g.seen = true
		return true
	}
	return false
}

// Best returns the best return recorded so far
func (g *IncentiveGate) Best() float64 {
	if !g.seen {
		return math.Inf(-1)
	}
	return g.best
}
