package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Replay stores a deterministic action trace for playback
type Replay struct {
	Episode    int          `json:"episode"`
	Seed       int64        `json:"seed"`
	Actions    []Action     `json:"actions"`
	FinalStats EpisodeStats `json:"final_stats"`
	Config     ReplayConfig `json:"config"`
}

// ReplayConfig stores the world parameters needed to rebuild the episode
type ReplayConfig struct {
	Width              int  `json:"width"`
	Height             int  `json:"height"`
	Cell               int  `json:"cell"`
	InitialLength      int  `json:"initial_length"`
	RandomSpawn        bool `json:"random_spawn"`
	MissedFoodMaxSteps int  `json:"missed_food_max_steps"`
}

// NewReplay creates a new replay recorder
func NewReplay(episode int, seed int64, cfg GameConfig) *Replay {
	return &Replay{
		Episode: episode,
		Seed:    seed,
		Actions: make([]Action, 0, 256),
		Config: ReplayConfig{
			Width:              cfg.Width,
			Height:             cfg.Height,
			Cell:               cfg.Cell,
			InitialLength:      cfg.InitialLength,
			RandomSpawn:        cfg.RandomSpawn,
			MissedFoodMaxSteps: cfg.MissedFoodMaxSteps,
		},
	}
}

// Record adds an action to the replay
func (r *Replay) Record(action Action) {
	r.Actions = append(r.Actions, action)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// GameConfig rebuilds the world parameters of the recorded episode
func (r *Replay) GameConfig() GameConfig {
	return GameConfig{
		Width:              r.Config.Width,
		Height:             r.Config.Height,
		Cell:               r.Config.Cell,
		InitialLength:      r.Config.InitialLength,
		RandomSpawn:        r.Config.RandomSpawn,
		MissedFoodMaxSteps: r.Config.MissedFoodMaxSteps,
	}
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", path, err)
	}
	return &r, nil
}

// Playback recreates the game from the replay
func (r *Replay) Playback() (*Game, error) {
	return NewGame(r.GameConfig(), r.Seed)
}

// PlaybackStep runs the replay up to step n
func (r *Replay) PlaybackStep(g *Game, step int) {
	if step > len(r.Actions) {
		step = len(r.Actions)
	}
	for i := 0; i < step && !g.Done; i++ {
		g.Step(r.Actions[i])
	}
}
