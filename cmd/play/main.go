package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/eval"
	"snakerl/internal/logging"
	"snakerl/internal/render"
	"snakerl/internal/train"
)

func main() {
	// Parse flags
	modelPath := flag.String("model", "runs/model.json", "path to a trained model")
	configPath := flag.String("config", "", "config file overriding the model's own")
	replayPath := flag.String("replay", "", "play back a recorded episode instead")
	human := flag.Bool("human", false, "steer the snake with the arrow keys")
	evalEpisodes := flag.Int("eval", 0, "evaluate greedily over N seeds and print the aggregate")
	seed := flag.Int64("seed", 12345, "random seed for the game")
	speed := flag.Int("speed", 0, "frames per second (0 = config value)")
	noDisplay := flag.Bool("no-display", false, "run without display (just print stats)")
	flag.Parse()

	if err := run(*modelPath, *configPath, *replayPath, *human, *evalEpisodes, *seed, *speed, *noDisplay); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath, configPath, replayPath string, human bool, evalEpisodes int, seed int64, speed int, noDisplay bool) error {
	logging.Setup("warn", os.Stderr)

	cfg := config.Default()
	var ag agent.Agent
	switch {
	case replayPath != "":
		replay, err := env.LoadReplay(replayPath)
		if err != nil {
			return err
		}
		rc := replay.GameConfig()
		cfg.Game.ScreenWidth, cfg.Game.ScreenHeight, cfg.Game.BlockSize = rc.Width, rc.Height, rc.Cell
		cfg.Game.InitialLength, cfg.Game.RandomSpawn = rc.InitialLength, rc.RandomSpawn
		cfg.Game.MissedFoodMaxSteps = rc.MissedFoodMaxSteps
		seed = replay.Seed
		ag = agent.NewScripted(replay.Actions)
		fmt.Printf("Replaying episode %d (seed %d, %d steps, recorded score %d)\n",
			replay.Episode, replay.Seed, len(replay.Actions), replay.FinalStats.Score)

	case human:
		if noDisplay {
			return fmt.Errorf("-human needs the display")
		}
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		ag = agent.NewHuman()

	default:
		model, err := logging.LoadModel(modelPath)
		if err != nil {
			return err
		}
		if model.Config != nil {
			cfg = model.Config
		}
		if configPath != "" {
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
		}
		table, err := model.ValueTable(nil)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded model %s (%d states, best score %d after %d episodes)\n",
			model.RunID, table.Len(), model.Stats.BestScore, model.Stats.Episodes)

		if evalEpisodes > 0 {
			cfg.Eval.Episodes = evalEpisodes
			return evaluate(cfg, table)
		}
		ag = agent.NewGreedy(table, rand.New(rand.NewSource(seed)))
	}

	if speed > 0 {
		cfg.Game.Speed = speed
	}
	cfg.Seed = seed
	cfg.Game.ShowGame = !noDisplay
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var screen *render.Screen
	if cfg.Game.ShowGame {
		grid, err := env.NewGrid(cfg.Game.ScreenWidth, cfg.Game.ScreenHeight, cfg.Game.BlockSize)
		if err != nil {
			return err
		}
		if screen, err = render.Open(grid); err != nil {
			return err
		}
	}

	var runner *train.Runner
	if screen != nil {
		runner = train.NewRunner(cfg, ag, screen, screen)
	} else {
		runner = train.NewRunner(cfg, ag, nil, nil)
	}
	res, err := runner.Run(ctx, 0)
	if screen != nil {
		screen.Close()
	}
	if err != nil {
		return err
	}

	// Final board
	game, err := env.NewGame(runner.World, seed)
	if err != nil {
		return err
	}
	replay := &env.Replay{Actions: res.Actions}
	replay.PlaybackStep(game, len(res.Actions))
	fmt.Print(drawBoard(game))

	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Game Over! Outcome: %s\n", res.Outcome)
	fmt.Printf("  Steps: %d, Score: %d, Length: %d\n", res.Steps, res.Score, game.Snake.Len())
	fmt.Printf("  Return: %.2f\n", res.Return)
	fmt.Println("═══════════════════════════════════")
	return nil
}

func evaluate(cfg *config.Config, table *agent.ValueTable) error {
	res, err := eval.NewEvaluator(cfg).Evaluate(table)
	if err != nil {
		return err
	}
	agg := res.Aggregate
	fmt.Printf("Seeds %d..%d\n", cfg.Eval.BaseSeed, cfg.Eval.BaseSeed+int64(agg.NumEpisodes)-1)
	fmt.Printf("  Score:  mean %.2f, std %.2f, max %d\n", agg.ScoreMean, agg.ScoreStd, agg.ScoreMax)
	fmt.Printf("  Steps:  mean %.1f\n", agg.StepsMean)
	fmt.Printf("  Return: mean %.2f\n", agg.ReturnMean)
	fmt.Printf("  Robustness (lambda %.2f): %.2f\n", cfg.Eval.RobustnessLambda, res.Robustness)
	fmt.Printf("  Unseen states: %d\n", res.UnseenStates)
	for _, o := range []env.Outcome{env.OutcomeWallHit, env.OutcomeBodyHit, env.OutcomeStalled} {
		fmt.Printf("  %-8s %d\n", o, agg.Outcomes[o])
	}
	return nil
}

// drawBoard renders the world as text with a box border
func drawBoard(game *env.Game) string {
	cols, rows := game.Grid.Columns(), game.Grid.Rows()
	board := make([][]rune, rows)
	for y := range board {
		board[y] = []rune(strings.Repeat("·", cols))
	}
	cell := func(c env.Coord) (int, int, bool) {
		x, y := c.X/game.Grid.Cell, c.Y/game.Grid.Cell
		return x, y, x >= 0 && x < cols && y >= 0 && y < rows
	}
	if game.HasFood {
		if x, y, ok := cell(game.Food); ok {
			board[y][x] = '*'
		}
	}
	for i := len(game.Snake.Body) - 1; i >= 0; i-- {
		if x, y, ok := cell(game.Snake.Body[i]); ok {
			board[y][x] = '█'
			if i == 0 {
				board[y][x] = headRune(game)
			}
		}
	}

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("──", cols) + "┐\n")
	for _, row := range board {
		b.WriteString("│")
		for _, r := range row {
			b.WriteRune(' ')
			b.WriteRune(r)
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("──", cols) + "┘\n")
	return b.String()
}

func headRune(game *env.Game) rune {
	a, ok := game.Grid.ActionOf(game.Snake.Velocity)
	if !ok {
		return 'O'
	}
	switch a {
	case env.ActionUp:
		return '▲'
	case env.ActionRight:
		return '▶'
	case env.ActionDown:
		return '▼'
	default:
		return '◀'
	}
}
