package eval

import (
	"context"
	"math/rand"
	"testing"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/train"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Game.ScreenWidth = 100
	cfg.Game.ScreenHeight = 100
	cfg.Game.BlockSize = 20
	cfg.Game.MissedFoodMaxSteps = 30
	cfg.Run.Episodes = 40
	cfg.Eval.Episodes = 12
	cfg.Eval.Workers = 3
	return cfg
}

func trainedTable(t *testing.T, cfg *config.Config) *agent.ValueTable {
	t.Helper()
	ag, err := agent.New(cfg.Agent, nil, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	if _, err := train.NewLoop(cfg, train.NewRunner(cfg, ag, nil, nil)).Run(context.Background()); err != nil {
		t.Fatalf("training: %v", err)
	}
	return ag.Table()
}

func TestEvaluateIsDeterministicAndLeavesTableAlone(t *testing.T) {
	cfg := testConfig()
	table := trainedTable(t, cfg)
	before := table.Len()

	e := NewEvaluator(cfg)
	a, err := e.Evaluate(table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := e.Evaluate(table)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if table.Len() != before {
		t.Fatalf("evaluation grew the shared table from %d to %d states", before, table.Len())
	}
	if a.Aggregate.NumEpisodes != cfg.Eval.Episodes {
		t.Fatalf("expected %d episodes, got %d", cfg.Eval.Episodes, a.Aggregate.NumEpisodes)
	}
	for i := range a.Episodes {
		if a.Episodes[i] != b.Episodes[i] {
			t.Fatalf("seed %d not reproducible: %+v vs %+v", a.Episodes[i].Seed, a.Episodes[i], b.Episodes[i])
		}
		if a.Episodes[i].Seed != cfg.Eval.BaseSeed+int64(i) {
			t.Fatalf("episode %d played seed %d", i, a.Episodes[i].Seed)
		}
		if !a.Episodes[i].Outcome.Death() {
			t.Fatalf("greedy episode ended with %s", a.Episodes[i].Outcome)
		}
	}
	want := a.Aggregate.ScoreMean - cfg.Eval.RobustnessLambda*a.Aggregate.ScoreStd
	if a.Robustness != want {
		t.Fatalf("robustness %v, want %v", a.Robustness, want)
	}
}

func TestEvaluateWithReplayPlaysBack(t *testing.T) {
	cfg := testConfig()
	table := trainedTable(t, cfg)

	replay, err := NewEvaluator(cfg).EvaluateWithReplay(table, 77)
	if err != nil {
		t.Fatalf("EvaluateWithReplay: %v", err)
	}
	game, err := replay.Playback()
	if err != nil {
		t.Fatalf("Playback: %v", err)
	}
	replay.PlaybackStep(game, len(replay.Actions))
	if game.Score() != replay.FinalStats.Score || game.Steps != replay.FinalStats.Steps {
		t.Fatalf("playback %d/%d, recorded %+v", game.Score(), game.Steps, replay.FinalStats)
	}
	if !game.Done {
		t.Fatalf("playback did not finish the episode, last outcome %s", game.Last.Outcome)
	}
}

func TestUnseenStatesIndependentOfWorkers(t *testing.T) {
	cfg := testConfig()
	table := trainedTable(t, cfg)

	want := make(map[env.StateKey]struct{})
	e := NewEvaluator(cfg)
	for i := 0; i < cfg.Eval.Episodes; i++ {
		_, unseen, err := e.EvaluateEpisode(table, cfg.Eval.BaseSeed+int64(i))
		if err != nil {
			t.Fatalf("EvaluateEpisode: %v", err)
		}
		for _, k := range unseen {
			if _, ok := table.Lookup(k); ok {
				t.Fatalf("state %s reported unseen but the table has it", k)
			}
			want[k] = struct{}{}
		}
	}

	for _, workers := range []int{1, 2, 5} {
		cfg.Eval.Workers = workers
		res, err := NewEvaluator(cfg).Evaluate(table)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if res.UnseenStates != len(want) {
			t.Errorf("workers=%d: %d unseen states, want %d", workers, res.UnseenStates, len(want))
		}
	}
}

func TestUnseenStatesOnEmptyTable(t *testing.T) {
	cfg := testConfig()
	res, err := NewEvaluator(cfg).Evaluate(agent.NewValueTable(nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.UnseenStates == 0 {
		t.Fatal("an empty table has seen nothing, expected unseen states")
	}
}
