package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snakerl/internal/agent"
	"snakerl/internal/chart"
	"snakerl/internal/config"
	"snakerl/internal/dashboard"
	"snakerl/internal/env"
	"snakerl/internal/eval"
	"snakerl/internal/logging"
	"snakerl/internal/render"
	"snakerl/internal/stream"
	"snakerl/internal/train"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/montecarlo.yaml", "path to config file")
	agentKind := flag.String("agent", "", "override agent kind (montecarlo|qlearning)")
	episodes := flag.Int("episodes", -1, "override number of episodes (0 = unbounded)")
	duration := flag.Duration("duration", -1, "override training duration (0 = unbounded)")
	show := flag.Bool("show", false, "show the game in the terminal")
	tui := flag.Bool("tui", false, "show a live training dashboard")
	listen := flag.String("listen", "", "serve per-episode reports over websocket at ADDR/ws")
	resume := flag.String("resume", "", "continue training from a saved model")
	noColor := flag.Bool("no-color", false, "disable colored console output")
	flag.Parse()

	if err := run(*configPath, *agentKind, *episodes, *duration, *show, *tui, *listen, *resume, !*noColor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, agentKind string, episodes int, duration time.Duration, show, tui bool, listen, resume string, colors bool) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if agentKind != "" {
		if err := cfg.WithAgent(agentKind); err != nil {
			return err
		}
	}
	if episodes >= 0 {
		cfg.Run.Episodes = episodes
	}
	if duration >= 0 {
		cfg.Run.Duration = duration
	}
	if show {
		cfg.Game.ShowGame = true
	}
	if listen != "" {
		cfg.Stream.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if tui && cfg.Game.ShowGame {
		return fmt.Errorf("-tui and show_game both need the terminal, pick one")
	}

	// The terminal belongs to the game or the dashboard when either is up
	ownsTerminal := tui || cfg.Game.ShowGame
	var console io.Writer = os.Stdout
	var logOut io.Writer = os.Stderr
	if ownsTerminal {
		console, logOut = io.Discard, io.Discard
	}
	log := logging.Setup(cfg.Logging.Level, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Table: fresh or resumed
	var table *agent.ValueTable
	if resume != "" {
		model, err := logging.LoadModel(resume)
		if err != nil {
			return err
		}
		var defaults *agent.Policy
		if cfg.Agent.IndividualPolicies {
			defaults = &agent.Policy{Epsilon: cfg.Agent.Epsilon, Step: cfg.Agent.EpsilonStep}
		}
		if table, err = model.ValueTable(defaults); err != nil {
			return err
		}
		log.Info("resumed model", "path", resume, "run_id", model.RunID, "states", table.Len())
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ag, err := agent.New(cfg.Agent, table, rng)
	if err != nil {
		return err
	}

	fmt.Fprintf(console, "Snake RL Trainer - Agent: %s\n", ag.Name())
	fmt.Fprintf(console, "Config: %s\n", configPath)
	fmt.Fprintf(console, "Grid: %dx%d (cell %d), Episodes: %d, Duration: %v\n",
		cfg.Game.ScreenWidth, cfg.Game.ScreenHeight, cfg.Game.BlockSize, cfg.Run.Episodes, cfg.Run.Duration)
	fmt.Fprintf(console, "Gamma: %.3f, Epsilon: %.3f (step %.3f)\n", cfg.Agent.Gamma, cfg.Agent.Epsilon, cfg.Agent.EpsilonStep)
	fmt.Fprintln(console, "---")

	// Create logger
	logger, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath, cfg.Logging.LogEvery, console, colors)
	if err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	defer logger.Close()
	sinks := []train.Sink{logger}

	if cfg.Stream.Listen != "" {
		hub := stream.NewHub()
		addr, err := stream.Serve(ctx, cfg.Stream.Listen, hub)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		log.Info("streaming reports", "url", "ws://"+addr+"/ws")
		sinks = append(sinks, hub)
	}

	var dash *dashboard.Dashboard
	if tui {
		dash = dashboard.New(stop)
		sinks = append(sinks, dash)
	}

	var renderer train.Renderer
	var input train.Input
	if cfg.Game.ShowGame {
		grid, err := env.NewGrid(cfg.Game.ScreenWidth, cfg.Game.ScreenHeight, cfg.Game.BlockSize)
		if err != nil {
			return err
		}
		screen, err := render.Open(grid)
		if err != nil {
			return err
		}
		defer screen.Close()
		renderer, input = screen, screen
	}

	runner := train.NewRunner(cfg, ag, renderer, input)
	loop := train.NewLoop(cfg, runner, sinks...)

	var report train.Report
	if dash != nil {
		done := make(chan error, 1)
		go func() {
			var err error
			report, err = loop.Run(ctx)
			done <- err
		}()
		if err := dash.Run(); err != nil {
			log.Warn("dashboard stopped", "err", err)
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		if report, err = loop.Run(ctx); err != nil {
			return err
		}
	}

	// Artifacts. Only the model is fatal.
	if cfg.Logging.ModelPath != "" {
		if err := logging.NewModel(cfg, report, ag).Save(cfg.Logging.ModelPath); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		log.Info("saved model", "path", cfg.Logging.ModelPath, "states", report.States)
	}
	if cfg.Logging.ParquetPath != "" {
		if err := logging.WriteHistoryParquet(cfg.Logging.ParquetPath, loop.Stats.History); err != nil {
			log.Warn("failed to save history", "err", err)
		}
	}
	if cfg.Logging.ChartPath != "" {
		if err := chart.Render(cfg.Logging.ChartPath, chart.Training(ag.Name(), loop.Stats.History)...); err != nil {
			log.Warn("failed to save chart", "err", err)
		}
	}
	if cfg.Logging.ReplayPath != "" && loop.Best != nil {
		if err := loop.Best.Save(cfg.Logging.ReplayPath); err != nil {
			log.Warn("failed to save replay", "err", err)
		}
	}

	if cfg.Eval.Episodes > 0 && !report.Aborted {
		evaluate(cfg, ag.Table(), console, log)
	}
	return nil
}

func evaluate(cfg *config.Config, table *agent.ValueTable, out io.Writer, log *slog.Logger) {
	res, err := eval.NewEvaluator(cfg).Evaluate(table)
	if err != nil {
		log.Warn("evaluation failed", "err", err)
		return
	}
	agg := res.Aggregate
	fmt.Fprintf(out, "Greedy eval over %d seeds: score %.2f ± %.2f (max %d), steps %.1f, robustness %.2f, unseen states %d\n",
		agg.NumEpisodes, agg.ScoreMean, agg.ScoreStd, agg.ScoreMax, agg.StepsMean, res.Robustness, res.UnseenStates)
}
