package train

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
)

// scripted plays a fixed list of actions and records what it was told
type scripted struct {
	table    *agent.ValueTable
	actions  []env.Action
	saved    []float64
	terminal []bool
}

func (s *scripted) Name() string { return "Scripted" }
func (s *scripted) ChooseAction(env.StateKey) env.Action {
	a := s.actions[0]
	if len(s.actions) > 1 {
		s.actions = s.actions[1:]
	}
	return a
}
func (s *scripted) SaveTransition(_ env.StateKey, _ env.Action, r float64) {
	s.saved = append(s.saved, r)
}
func (s *scripted) StepReinforcement(_ float64, _ env.StateKey, terminal bool) {
	s.terminal = append(s.terminal, terminal)
}
func (s *scripted) EpisodeReinforcement() float64 {
	var sum float64
	for _, r := range s.saved {
		sum += r
	}
	return sum
}
func (s *scripted) Table() *agent.ValueTable { return s.table }
func (s *scripted) Epsilon() float64 { return 0 }
func (s *scripted) Hyperparameters() map[string]any { return nil }

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Game.ScreenWidth = 100
	cfg.Game.ScreenHeight = 100
	cfg.Game.BlockSize = 20
	cfg.Game.MissedFoodMaxSteps = 40
	return cfg
}

func TestRewardShaping(t *testing.T) {
	rw := config.RewardsConfig{Default: -0.1, Food: 10, Punishment: -10, DistanceWeight: 0.5}
	cases := []struct {
		name string
		res  env.StepResult
		want float64
	}{
		{"wall", env.StepResult{Outcome: env.OutcomeWallHit}, -10},
		{"body", env.StepResult{Outcome: env.OutcomeBodyHit}, -10},
		{"stalled", env.StepResult{Outcome: env.OutcomeStalled}, -10},
		{"food", env.StepResult{Outcome: env.OutcomeAteFood}, 10},
		{"closer", env.StepResult{Outcome: env.OutcomeAdvance, DistBefore: 5, DistAfter: 3}, -0.1 + 1},
		{"farther", env.StepResult{Outcome: env.OutcomeAdvance, DistBefore: 3, DistAfter: 5}, -0.1 - 1},
	}
	for _, tc := range cases {
		if got := Reward(rw, tc.res); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: Reward = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRunnerEatsThenHitsWall(t *testing.T) {
	cfg := config.Default()
	start, food := env.Coord{X: 1, Y: 1}, env.Coord{X: 2, Y: 1}
	ag := &scripted{table: agent.NewValueTable(nil), actions: []env.Action{env.ActionRight}}

	r := NewRunner(cfg, ag, nil, nil)
	r.World = env.GameConfig{Width: 3, Height: 3, Cell: 1, InitialLength: 1, Start: &start, FirstFood: &food}

	res, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Score != 1 || res.Steps != 2 || res.Outcome != env.OutcomeWallHit {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(ag.saved) != 2 || ag.saved[0] != cfg.Rewards.Food || ag.saved[1] != cfg.Rewards.Punishment {
		t.Fatalf("unexpected rewards %v", ag.saved)
	}
	if ag.terminal[0] || !ag.terminal[1] {
		t.Fatalf("unexpected terminal flags %v", ag.terminal)
	}
	if res.Return != cfg.Rewards.Food+cfg.Rewards.Punishment {
		t.Fatalf("return = %v", res.Return)
	}
}

func TestRunnerQuitSkipsReinforcement(t *testing.T) {
	cfg := smallConfig()
	ag := &scripted{table: agent.NewValueTable(nil), actions: []env.Action{env.ActionRight}}
	input := &ScriptedInput{Batches: [][]InputEvent{nil, {{Kind: InputQuit}}}}

	r := NewRunner(cfg, ag, nil, input)
	res, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != env.OutcomeQuit || res.Steps != 1 || !r.Quit() {
		t.Fatalf("expected quit after one step, got %+v", res)
	}
}

func TestStatsMatchesGonum(t *testing.T) {
	s := NewStats()
	scores := []float64{3, 0, 7, 1, 1, 12, 4}
	for i, sc := range scores {
		s.Record(EpisodeResult{Episode: i, Score: int(sc), Outcome: env.OutcomeWallHit}, 1)
	}
	if math.Abs(s.Mean()-stat.Mean(scores, nil)) > 1e-9 {
		t.Fatalf("mean %v vs gonum %v", s.Mean(), stat.Mean(scores, nil))
	}
	if math.Abs(s.Variance()-stat.Variance(scores, nil)) > 1e-9 {
		t.Fatalf("variance %v vs gonum %v", s.Variance(), stat.Variance(scores, nil))
	}
	if s.BestScore != 12 || s.BestEpisode != 5 {
		t.Fatalf("best %d at %d", s.BestScore, s.BestEpisode)
	}

	one := NewStats()
	one.Record(EpisodeResult{Score: 4}, 1)
	if one.Variance() != 0 {
		t.Fatal("variance of a single episode must be 0")
	}
}

func TestLoopTrainsAndKeepsBestReplay(t *testing.T) {
	cfg := smallConfig()
	cfg.Run.Episodes = 30
	ag, err := agent.New(cfg.Agent, nil, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}

	var seen int
	loop := NewLoop(cfg, NewRunner(cfg, ag, nil, nil), SinkFunc(func(r Report) {
		if !r.Final {
			seen++
		}
	}))
	report, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Episodes != 30 || seen != 30 || report.Aborted {
		t.Fatalf("unexpected report %+v (sink saw %d)", report, seen)
	}
	if report.States == 0 || report.States != ag.Table().Len() {
		t.Fatalf("table size not reported: %d", report.States)
	}
	if len(loop.Stats.History) != 30 {
		t.Fatalf("history has %d points", len(loop.Stats.History))
	}

	if loop.Best == nil {
		t.Fatal("best replay not captured")
	}
	game, err := loop.Best.Playback()
	if err != nil {
		t.Fatalf("Playback: %v", err)
	}
	loop.Best.PlaybackStep(game, len(loop.Best.Actions))
	if game.Score() != report.BestScore || game.Last.Outcome != loop.Best.FinalStats.Outcome {
		t.Fatalf("replay diverged: score %d outcome %s, want %d %s",
			game.Score(), game.Last.Outcome, report.BestScore, loop.Best.FinalStats.Outcome)
	}
}

func TestLoopAbortFlushesSinks(t *testing.T) {
	cfg := smallConfig()
	cfg.Run.Episodes = 1000
	ag, err := agent.New(cfg.Agent, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var final *Report
	loop := NewLoop(cfg, NewRunner(cfg, ag, nil, nil), SinkFunc(func(r Report) {
		if r.Final {
			final = &r
			return
		}
		if r.Episodes == 3 {
			cancel()
		}
	}))

	report, err := loop.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Aborted || report.Episodes != 3 {
		t.Fatalf("expected an aborted run after 3 episodes, got %+v", report)
	}
	if final == nil || !final.Aborted || final.Episodes != 3 {
		t.Fatalf("sinks were not flushed with the final report: %+v", final)
	}
}
