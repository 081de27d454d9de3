package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"snakerl/internal/env"
)

// Agent kinds understood by the agent factory
const (
	KindMonteCarlo = "montecarlo"
	KindQLearning  = "qlearning"
)

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed" json:"seed"`
	Game    GameConfig    `yaml:"game" json:"game"`
	Run     RunConfig     `yaml:"run" json:"run"`
	Rewards RewardsConfig `yaml:"rewards" json:"rewards"`
	Agent   AgentConfig   `yaml:"agent" json:"agent"`
	Eval    EvalConfig    `yaml:"eval" json:"eval"`
	Logging LogConfig     `yaml:"logging" json:"logging"`
	Stream  StreamConfig  `yaml:"stream" json:"stream"`
}

// GameConfig defines the world and how it is shown
type GameConfig struct {
	ScreenWidth        int  `yaml:"screen_width" json:"screen_width"`
	ScreenHeight       int  `yaml:"screen_height" json:"screen_height"`
	BlockSize          int  `yaml:"block_size" json:"block_size"`
	InitialLength      int  `yaml:"initial_length" json:"initial_length"`
	RandomSpawn        bool `yaml:"random_spawn" json:"random_spawn"`
	Speed              int  `yaml:"speed" json:"speed"` // frames per second when shown
	ShowGame           bool `yaml:"show_game" json:"show_game"`
	MissedFoodMaxSteps int  `yaml:"missed_food_max_steps" json:"missed_food_max_steps"`
}

// RunConfig bounds a training run. Whichever budget runs out first wins.
type RunConfig struct {
	Episodes int           `yaml:"episodes" json:"episodes"`
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// MarshalJSON writes the duration the way it is written in YAML
func (r RunConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(runJSON{Episodes: r.Episodes, Duration: r.Duration.String()})
}

func (r *RunConfig) UnmarshalJSON(data []byte) error {
	var raw runJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Episodes = raw.Episodes
	r.Duration = 0
	if raw.Duration != "" {
		d, err := time.ParseDuration(raw.Duration)
		if err != nil {
			return fmt.Errorf("run: duration: %w", err)
		}
		r.Duration = d
	}
	return nil
}

type runJSON struct {
	Episodes int    `json:"episodes"`
	Duration string `json:"duration"`
}

// RewardsConfig defines the reward signal
type RewardsConfig struct {
	Default        float64 `yaml:"default" json:"default"`
	Food           float64 `yaml:"food" json:"food"`
	Punishment     float64 `yaml:"punishment" json:"punishment"`
	DistanceWeight float64 `yaml:"distance_weight" json:"distance_weight"`
}

// AgentConfig selects the learner and its hyperparameters
type AgentConfig struct {
	Kind               string  `yaml:"kind" json:"kind"` // montecarlo|qlearning
	Gamma              float64 `yaml:"gamma" json:"gamma"`
	Alpha              float64 `yaml:"alpha" json:"alpha"`
	Epsilon            float64 `yaml:"epsilon" json:"epsilon"`
	EpsilonStep        float64 `yaml:"epsilon_step" json:"epsilon_step"`
	EveryVisit         bool    `yaml:"every_visit" json:"every_visit"`
	IndividualPolicies bool    `yaml:"individual_policies" json:"individual_policies"`
	LearningIncentive  *bool   `yaml:"learning_incentive" json:"learning_incentive"`
	ReverseHistory     *bool   `yaml:"reverse_history" json:"reverse_history"`
}

// EvalConfig defines greedy evaluation parameters
type EvalConfig struct {
	Episodes         int     `yaml:"episodes" json:"episodes"`
	Workers          int     `yaml:"workers" json:"workers"`
	BaseSeed         int64   `yaml:"base_seed" json:"base_seed"`
	RobustnessLambda float64 `yaml:"robustness_lambda" json:"robustness_lambda"`
}

// LogConfig defines logging and artifact paths. Empty paths disable the
// corresponding artifact.
type LogConfig struct {
	Level       string `yaml:"level" json:"level"`
	LogEvery    int    `yaml:"log_every" json:"log_every"`
	CSVPath     string `yaml:"csv_path" json:"csv_path"`
	JSONPath    string `yaml:"json_path" json:"json_path"`
	ParquetPath string `yaml:"parquet_path" json:"parquet_path"`
	ModelPath   string `yaml:"model_path" json:"model_path"`
	ChartPath   string `yaml:"chart_path" json:"chart_path"`
	ReplayPath  string `yaml:"replay_path" json:"replay_path"`
}

// StreamConfig defines the websocket endpoint
type StreamConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

// Load reads a YAML config file and returns a validated Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := base()
	applyDefaults(cfg)
	return cfg
}

// base holds every default that does not depend on other fields. A file is
// decoded on top of it, so explicit zeros survive.
func base() *Config {
	return &Config{
		Seed: 1337,
		Game: GameConfig{
			ScreenWidth:        600,
			ScreenHeight:       600,
			BlockSize:          20,
			InitialLength:      1,
			Speed:              20,
			MissedFoodMaxSteps: 150,
		},
		Rewards: RewardsConfig{
			Food:       10,
			Punishment: -10,
		},
		Agent: AgentConfig{
			Kind:        KindMonteCarlo,
			Epsilon:     1,
			EpsilonStep: 0.1,
		},
		Eval: EvalConfig{
			Episodes:         20,
			Workers:          4,
			BaseSeed:         1000,
			RobustnessLambda: 0.25,
		},
		Logging: LogConfig{
			Level:    "info",
			LogEvery: 100,
		},
	}
}

// applyDefaults fills the defaults that depend on what the file set
func applyDefaults(cfg *Config) {
	if cfg.Run.Episodes == 0 && cfg.Run.Duration == 0 {
		cfg.Run.Episodes = 10000
	}
	if cfg.Agent.Kind == "" {
		cfg.Agent.Kind = KindMonteCarlo
	}
	cfg.Agent.Kind = strings.ToLower(cfg.Agent.Kind)
	applyAgentDefaults(&cfg.Agent)
}

// applyAgentDefaults fills hyperparameters per agent kind. The two
// learners want very different discounting and step sizes. Gamma and
// alpha must be positive, so zero means unset.
func applyAgentDefaults(a *AgentConfig) {
	switch a.Kind {
	case KindQLearning:
		if a.Gamma == 0 {
			a.Gamma = 0.9
		}
		if a.Alpha == 0 {
			a.Alpha = 0.2
		}
		if a.LearningIncentive == nil {
			a.LearningIncentive = boolPtr(false)
		}
	default:
		if a.Gamma == 0 {
			a.Gamma = 1.01
		}
		if a.LearningIncentive == nil {
			a.LearningIncentive = boolPtr(true)
		}
	}
	if a.ReverseHistory == nil {
		a.ReverseHistory = boolPtr(true)
	}
}

func boolPtr(b bool) *bool { return &b }

// WithAgent switches the agent kind, resetting the kind-specific defaults
// that were not set explicitly in the file
func (c *Config) WithAgent(kind string) error {
	kind = strings.ToLower(kind)
	if kind == c.Agent.Kind {
		return nil
	}
	if kind != KindMonteCarlo && kind != KindQLearning {
		return fmt.Errorf("unknown agent kind %q", kind)
	}
	c.Agent = AgentConfig{
		Kind:               kind,
		Epsilon:            c.Agent.Epsilon,
		EpsilonStep:        c.Agent.EpsilonStep,
		EveryVisit:         c.Agent.EveryVisit,
		IndividualPolicies: c.Agent.IndividualPolicies,
		ReverseHistory:     c.Agent.ReverseHistory,
	}
	applyAgentDefaults(&c.Agent)
	return nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error

	if _, err := env.NewGrid(c.Game.ScreenWidth, c.Game.ScreenHeight, c.Game.BlockSize); err != nil {
		errs = append(errs, fmt.Errorf("game: %w", err))
	} else {
		cells := (c.Game.ScreenWidth / c.Game.BlockSize) * (c.Game.ScreenHeight / c.Game.BlockSize)
		if c.Game.InitialLength < 1 || c.Game.InitialLength >= cells {
			errs = append(errs, fmt.Errorf("game: initial_length %d must be in [1, %d)", c.Game.InitialLength, cells))
		}
	}
	if c.Game.RandomSpawn && c.Game.InitialLength > 1 {
		errs = append(errs, errors.New("game: random_spawn requires initial_length 1"))
	}
	if c.Game.Speed < 0 {
		errs = append(errs, fmt.Errorf("game: speed %d must not be negative", c.Game.Speed))
	}
	if c.Game.MissedFoodMaxSteps < 0 {
		errs = append(errs, fmt.Errorf("game: missed_food_max_steps %d must not be negative", c.Game.MissedFoodMaxSteps))
	}
	if c.Run.Episodes < 0 || c.Run.Duration < 0 {
		errs = append(errs, errors.New("run: budgets must not be negative"))
	}

	switch c.Agent.Kind {
	case KindMonteCarlo, KindQLearning:
	default:
		errs = append(errs, fmt.Errorf("agent: unknown kind %q", c.Agent.Kind))
	}
	if c.Agent.Gamma <= 0 {
		errs = append(errs, fmt.Errorf("agent: gamma %v must be positive", c.Agent.Gamma))
	}
	if c.Agent.Kind == KindQLearning && (c.Agent.Alpha <= 0 || c.Agent.Alpha > 1) {
		errs = append(errs, fmt.Errorf("agent: alpha %v must be in (0, 1]", c.Agent.Alpha))
	}
	if c.Agent.Epsilon < 0 || c.Agent.Epsilon > 1 {
		errs = append(errs, fmt.Errorf("agent: epsilon %v must be in [0, 1]", c.Agent.Epsilon))
	}
	if c.Agent.EpsilonStep < 0 {
		errs = append(errs, fmt.Errorf("agent: epsilon_step %v must not be negative", c.Agent.EpsilonStep))
	}

	if c.Eval.Episodes < 0 || c.Eval.Workers < 0 {
		errs = append(errs, errors.New("eval: episodes and workers must not be negative"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging: unknown level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// EnvConfig converts the game section into a world description
func (c *Config) EnvConfig() env.GameConfig {
	return env.GameConfig{
		Width:              c.Game.ScreenWidth,
		Height:             c.Game.ScreenHeight,
		Cell:               c.Game.BlockSize,
		InitialLength:      c.Game.InitialLength,
		RandomSpawn:        c.Game.RandomSpawn,
		MissedFoodMaxSteps: c.Game.MissedFoodMaxSteps,
	}
}

// FrameDelay returns the pause between shown frames
func (c *Config) FrameDelay() time.Duration {
	if c.Game.Speed <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Game.Speed)
}
