package eval

import (
	"math/rand"
	"runtime"
	"sync"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/train"
)

// Evaluator plays a trained table greedily over a suite of seeds
type Evaluator struct {
	cfg     *config.Config
	world   env.GameConfig
	workers int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg *config.Config) *Evaluator {
	workers := cfg.Eval.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Evaluator{
		cfg:     cfg,
		world:   cfg.EnvConfig(),
		workers: workers,
	}
}

// Result is a greedy evaluation of one table
type Result struct {
	Episodes     []env.EpisodeStats
	Aggregate    env.AggregatedStats
	Robustness   float64
	UnseenStates int // distinct states met across the suite that training never reached
}

// EvaluateEpisode runs one greedy episode on a private copy of table and
// returns the distinct states it met that table does not know
func (e *Evaluator) EvaluateEpisode(table *agent.ValueTable, seed int64) (env.EpisodeStats, []env.StateKey, error) {
	game, err := env.NewGame(e.world, seed)
	if err != nil {
		return env.EpisodeStats{}, nil, err
	}
	local := table.Clone()
	rng := rand.New(rand.NewSource(seed))
	enc := env.NewEncoder()

	var ret float64
	var unseen []env.StateKey
	for !game.Done {
		state := game.State(enc)
		if _, ok := local.Lookup(state); !ok {
			unseen = append(unseen, state)
		}
		res := game.Step(local.BestAction(state, rng))
		ret += train.Reward(e.cfg.Rewards, res)
	}
	return game.Stats(seed, ret), unseen, nil
}

// EvaluateMultiSeed evaluates table on seeds base..base+n-1. Every seed
// plays on its own clone, so the result does not depend on the worker
// count.
func (e *Evaluator) EvaluateMultiSeed(table *agent.ValueTable, baseSeed int64, numSeeds int) (Result, error) {
	episodes := make([]env.EpisodeStats, numSeeds)
	unseen := make([][]env.StateKey, numSeeds)
	errs := make([]error, numSeeds)

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(e.workers, numSeeds)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				episodes[i], unseen[i], errs[i] = e.EvaluateEpisode(table, baseSeed+int64(i))
			}
		}()
	}
	for i := 0; i < numSeeds; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := Result{Episodes: episodes}
	distinct := make(map[env.StateKey]struct{})
	for i := range errs {
		if errs[i] != nil {
			return res, errs[i]
		}
		for _, k := range unseen[i] {
			distinct[k] = struct{}{}
		}
	}
	res.UnseenStates = len(distinct)
	res.Aggregate = env.Aggregate(episodes)
	res.Robustness = res.Aggregate.RobustnessScore(e.cfg.Eval.RobustnessLambda)
	return res, nil
}

// Evaluate runs the configured evaluation suite
func (e *Evaluator) Evaluate(table *agent.ValueTable) (Result, error) {
	return e.EvaluateMultiSeed(table, e.cfg.Eval.BaseSeed, e.cfg.Eval.Episodes)
}

// EvaluateWithReplay runs a greedy episode and records it for playback
func (e *Evaluator) EvaluateWithReplay(table *agent.ValueTable, seed int64) (*env.Replay, error) {
	local := table.Clone()
	game, err := env.NewGame(e.world, seed)
	if err != nil {
		return nil, err
	}
	replay := env.NewReplay(0, seed, e.world)
	rng := rand.New(rand.NewSource(seed))
	enc := env.NewEncoder()

	var ret float64
	for !game.Done {
		action := local.BestAction(game.State(enc), rng)
		replay.Record(action)
		ret += train.Reward(e.cfg.Rewards, game.Step(action))
	}
	replay.SetFinalStats(game.Stats(seed, ret))
	return replay, nil
}
