package agent

import (
	"math/rand"
	"sort"

	"snakerl/internal/env"
)

// ActionValue is the visit counter N(s,a) and estimate Q(s,a)
type ActionValue struct {
	Counter int     `json:"counter"`
	Value   float64 `json:"value"`
}

// StateEntry holds everything learned about one state
type StateEntry struct {
	Actions [env.NumActions]ActionValue
	Visits  int     // times the state was acted in
	Visited bool    // first-visit marker, only meaningful during a reinforcement pass
	Policy  *Policy // private exploration policy, nil when exploration is global
}

// ValueTable maps state keys to their entries. It only grows. A table is
// owned by exactly one agent; use Clone to hand a copy to another goroutine.
type ValueTable struct {
	entries  map[env.StateKey]*StateEntry
	defaults *Policy
}

// NewValueTable creates an empty table. When defaults is non-nil every
// state gets its own copy of it on creation.
func NewValueTable(defaults *Policy) *ValueTable {
	t := &ValueTable{entries: make(map[env.StateKey]*StateEntry)}
	if defaults != nil {
		p := *defaults
		t.defaults = &p
	}
	return t
}

// EnsureState creates the entry for key if needed and reports whether it
// already existed. It touches no counter.
func (t *ValueTable) EnsureState(key env.StateKey) bool {
	if _, ok := t.entries[key]; ok {
		return true
	}
	entry := &StateEntry{}
	if t.defaults != nil {
		p := *t.defaults
		entry.Policy = &p
	}
	t.entries[key] = entry
	return false
}

// Entry returns the entry for key, creating it on first use
func (t *ValueTable) Entry(key env.StateKey) *StateEntry {
	t.EnsureState(key)
	return t.entries[key]
}

// Lookup returns the entry without creating it
func (t *ValueTable) Lookup(key env.StateKey) (*StateEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Put replaces the entry for key
func (t *ValueTable) Put(key env.StateKey, entry *StateEntry) {
	t.entries[key] = entry
}

// Visit bumps the per-state visit counter
func (t *ValueTable) Visit(key env.StateKey) {
	t.Entry(key).Visits++
}

// Value returns Q(s,a), zero for unknown states
func (t *ValueTable) Value(key env.StateKey, a env.Action) float64 {
	if e, ok := t.entries[key]; ok {
		return e.Actions[a].Value
	}
	return 0
}

// MaxValue returns max_a Q(s,a), materialising the state
func (t *ValueTable) MaxValue(key env.StateKey) float64 {
	e := t.Entry(key)
	best := e.Actions[0].Value
	for _, av := range e.Actions[1:] {
		if av.Value > best {
			best = av.Value
		}
	}
	return best
}

// BestAction returns the action with the highest estimate. Ties are broken
// uniformly at random, so a fresh state (all zeros) yields a random move:
// zero cannot be told apart from "no information".
func (t *ValueTable) BestAction(key env.StateKey, rng *rand.Rand) env.Action {
	e := t.Entry(key)
	best := e.Actions[0].Value
	tied := []env.Action{env.Actions[0]}
	for _, a := range env.Actions[1:] {
		v := e.Actions[a].Value
		switch {
		case v > best:
			best = v
			tied = append(tied[:0], a)
		case v == best:
			tied = append(tied, a)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[rng.Intn(len(tied))]
}

// EpsilonGreedy explores uniformly with probability p.Epsilon and exploits
// otherwise
func (t *ValueTable) EpsilonGreedy(key env.StateKey, p *Policy, rng *rand.Rand) env.Action {
	t.EnsureState(key)
	if rng.Float64() < p.Epsilon {
		return env.Actions[rng.Intn(env.NumActions)]
	}
	return t.BestAction(key, rng)
}

// Len returns the number of known states
func (t *ValueTable) Len() int {
	return len(t.entries)
}

// Keys returns the known states in sorted order
func (t *ValueTable) Keys() []env.StateKey {
	keys := make([]env.StateKey, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MeanEpsilon averages the private policies, or returns fallback when the
// table has none
func (t *ValueTable) MeanEpsilon(fallback float64) float64 {
	var sum float64
	var n int
	for _, e := range t.entries {
		if e.Policy != nil {
			sum += e.Policy.Epsilon
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}

// Clone deep-copies the table
func (t *ValueTable) Clone() *ValueTable {
	out := NewValueTable(t.defaults)
	for k, e := range t.entries {
		c := *e
		if e.Policy != nil {
			p := *e.Policy
			c.Policy = &p
		}
		out.entries[k] = &c
	}
	return out
}

// Update applies fn to the (key, a) cell, materialising the state
func (t *ValueTable) Update(key env.StateKey, a env.Action, fn func(av *ActionValue)) {
	fn(&t.Entry(key).Actions[a])
}
