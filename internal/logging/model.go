package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/train"
)

// Model is the persisted result of a training run
type Model struct {
	RunID      string               `json:"run_id"`
	CreatedAt  time.Time            `json:"created_at"`
	Encoding   string               `json:"encoding"`
	Config     *config.Config       `json:"config"`
	Stats      ModelStats           `json:"stats"`
	StateNames map[int]string       `json:"state_names"`
	Table      map[string]StateDump `json:"table"`
}

// ModelStats summarises the run that produced the table
type ModelStats struct {
	BestScore    int            `json:"best_score"`
	BestEpisode  int            `json:"best_episode"`
	Episodes     int            `json:"episodes"`
	Outcomes     map[string]int `json:"outcomes"`
	FinalEpsilon float64        `json:"final_epsilon"`
	States       int            `json:"states"`
	Aborted      bool           `json:"aborted"`
	Agent        map[string]any `json:"agent"`
}

// StateDump is one table row keyed by action name
type StateDump struct {
	Visits  int                          `json:"visits"`
	Policy  *agent.Policy                `json:"policy,omitempty"`
	Actions map[string]agent.ActionValue `json:"actions"`
}

// NewModel captures the agent's table and the run report
func NewModel(cfg *config.Config, report train.Report, ag agent.Agent) *Model {
	m := &Model{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Encoding:   env.EncodingID,
		Config:     cfg,
		StateNames: env.StateNames(),
		Table:      make(map[string]StateDump),
		Stats: ModelStats{
			BestScore:    report.BestScore,
			BestEpisode:  report.BestEpisode,
			Episodes:     report.Episodes,
			Outcomes:     report.Outcomes,
			FinalEpsilon: report.FinalEpsilon,
			States:       report.States,
			Aborted:      report.Aborted,
			Agent:        ag.Hyperparameters(),
		},
	}

	table := ag.Table()
	for _, key := range table.Keys() {
		e, _ := table.Lookup(key)
		dump := StateDump{
			Visits:  e.Visits,
			Policy:  e.Policy,
			Actions: make(map[string]agent.ActionValue, env.NumActions),
		}
		for _, a := range env.Actions {
			dump.Actions[a.String()] = e.Actions[a]
		}
		m.Table[string(key)] = dump
	}
	return m
}

// Save writes the model as indented JSON
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel reads a model written by Save. Models built with a different
// state encoding are rejected.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if m.Encoding != env.EncodingID {
		return nil, fmt.Errorf("model %s uses state encoding %q, want %q", path, m.Encoding, env.EncodingID)
	}
	return &m, nil
}

// ValueTable rebuilds the learned table. defaults seeds private policies
// for states created after loading.
func (m *Model) ValueTable(defaults *agent.Policy) (*agent.ValueTable, error) {
	table := agent.NewValueTable(defaults)
	for key, dump := range m.Table {
		if len(key) != env.NumBits {
			return nil, fmt.Errorf("state key %q has %d bits, want %d", key, len(key), env.NumBits)
		}
		entry := &agent.StateEntry{Visits: dump.Visits, Policy: dump.Policy}
		for name, av := range dump.Actions {
			a, err := env.ParseAction(name)
			if err != nil {
				return nil, fmt.Errorf("state %s: %w", key, err)
			}
			entry.Actions[a] = av
		}
		table.Put(env.StateKey(key), entry)
	}
	return table, nil
}
