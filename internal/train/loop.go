package train

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"snakerl/internal/config"
	"snakerl/internal/env"
)

// Loop repeats episodes until a budget runs out or the user quits
type Loop struct {
	Runner   *Runner
	Episodes int           // 0 means unbounded
	Duration time.Duration // 0 means unbounded
	Sinks    []Sink
	Stats    *Stats
	Best     *env.Replay // replay of the best scoring episode so far

	log *slog.Logger
}

// NewLoop wires a loop around runner using the run budgets of cfg
func NewLoop(cfg *config.Config, runner *Runner, sinks ...Sink) *Loop {
	return &Loop{
		Runner:   runner,
		Episodes: cfg.Run.Episodes,
		Duration: cfg.Run.Duration,
		Sinks:    sinks,
		Stats:    NewStats(),
		log:      slog.Default().With("component", "train"),
	}
}

// Run trains until done. A quit or a cancelled ctx is not an error: the
// partial report comes back with Aborted set, after the sinks saw it.
func (l *Loop) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	ag := l.Runner.Agent
	l.log.Info("training started", "agent", ag.Name(), "episodes", l.Episodes, "duration", l.Duration)

	var (
		last    Point
		aborted bool
	)
	for ep := 0; ; ep++ {
		if l.Episodes > 0 && ep >= l.Episodes {
			break
		}
		if l.Duration > 0 && time.Since(start) >= l.Duration {
			break
		}
		if ctx.Err() != nil {
			aborted = true
			break
		}

		res, err := l.Runner.Run(ctx, ep)
		if err != nil {
			return l.finish(last, start, true), err
		}
		if res.Outcome == env.OutcomeQuit {
			aborted = true
			break
		}

		res.Return = ag.EpisodeReinforcement()
		last = l.Stats.Record(res, ag.Epsilon())
		if l.Stats.BestEpisode == res.Episode {
			l.captureBest(res)
		}

		report := l.report(last, start)
		for _, s := range l.Sinks {
			s.Episode(report)
		}
	}

	report := l.finish(last, start, aborted)
	l.log.Info("training finished",
		"episodes", report.Episodes,
		"best_score", report.BestScore,
		"best_episode", report.BestEpisode,
		"states", report.States,
		"aborted", report.Aborted,
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (l *Loop) finish(last Point, start time.Time, aborted bool) Report {
	report := l.report(last, start)
	report.Aborted = aborted
	report.Final = true
	for _, s := range l.Sinks {
		s.Episode(report)
	}
	return report
}

func (l *Loop) captureBest(res EpisodeResult) {
	replay := env.NewReplay(res.Episode, res.Seed, l.Runner.World)
	replay.Actions = append(replay.Actions, res.Actions...)
	replay.SetFinalStats(env.EpisodeStats{
		Score:   res.Score,
		Steps:   res.Steps,
		Return:  res.Return,
		Outcome: res.Outcome,
		Seed:    res.Seed,
	})
	l.Best = replay
}

func (l *Loop) report(last Point, start time.Time) Report {
	ag := l.Runner.Agent
	return Report{
		Agent:        ag.Name(),
		Last:         last,
		BestScore:    l.Stats.BestScore,
		BestEpisode:  l.Stats.BestEpisode,
		Episodes:     l.Stats.Episodes,
		FinalEpsilon: ag.Epsilon(),
		States:       ag.Table().Len(),
		Outcomes:     maps.Clone(l.Stats.Outcomes),
		Mean:         l.Stats.Mean(),
		Variance:     l.Stats.Variance(),
		Elapsed:      time.Since(start),
	}
}
