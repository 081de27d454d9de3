package train

import (
	"context"
	"fmt"
	"time"

	"snakerl/internal/agent"
	"snakerl/internal/config"
	"snakerl/internal/env"
)

const pausePoll = 50 * time.Millisecond

// Steerer is implemented by agents that take keyboard suggestions
type Steerer interface {
	Steer(a env.Action)
}

// Runner plays single episodes with an agent
type Runner struct {
	World    env.GameConfig
	Rewards  config.RewardsConfig
	Seed     int64
	Agent    agent.Agent
	Renderer Renderer
	Input    Input

	enc     *env.Encoder
	show    bool
	delay   time.Duration
	paused  bool
	quit    bool
	painted map[env.Coord]Cell
}

// NewRunner creates a runner for cfg. A nil renderer or input, or
// show_game off, disables the corresponding collaborator.
func NewRunner(cfg *config.Config, ag agent.Agent, renderer Renderer, input Input) *Runner {
	r := &Runner{
		World:    cfg.EnvConfig(),
		Rewards:  cfg.Rewards,
		Seed:     cfg.Seed,
		Agent:    ag,
		Renderer: renderer,
		Input:    input,
		enc:      env.NewEncoder(),
		show:     cfg.Game.ShowGame && renderer != nil,
	}
	if r.show {
		r.delay = cfg.FrameDelay()
	} else {
		r.Renderer = NopRenderer{}
	}
	if r.Input == nil {
		r.Input = NopInput{}
	}
	return r
}

// Reward maps a step result to the reinforcement signal
func Reward(rw config.RewardsConfig, res env.StepResult) float64 {
	switch {
	case res.Outcome.Death():
		return rw.Punishment
	case res.Outcome == env.OutcomeAteFood:
		return rw.Food
	default:
		return rw.Default + rw.DistanceWeight*(res.DistBefore-res.DistAfter)
	}
}

// Run plays episode to the end. The result's outcome is OutcomeQuit when
// the user or ctx stopped it; no reinforcement happens in that case.
func (r *Runner) Run(ctx context.Context, episode int) (EpisodeResult, error) {
	seed := r.Seed + int64(episode)
	game, err := env.NewGame(r.World, seed)
	if err != nil {
		return EpisodeResult{}, fmt.Errorf("episode %d: %w", episode, err)
	}

	res := EpisodeResult{Episode: episode, Seed: seed}
	r.painted = make(map[env.Coord]Cell)
	r.paint(game, episode)

	for !game.Done {
		r.poll()
		if r.quit || ctx.Err() != nil {
			res.Outcome = env.OutcomeQuit
			break
		}
		if r.paused {
			time.Sleep(pausePoll)
			continue
		}

		state := game.State(r.enc)
		action := r.Agent.ChooseAction(state)
		step := game.Step(action)
		reward := Reward(r.Rewards, step)

		r.Agent.SaveTransition(state, action, reward)
		r.Agent.StepReinforcement(reward, game.State(r.enc), step.Outcome.Terminal())

		res.Actions = append(res.Actions, action)
		res.Return += reward
		res.Outcome = step.Outcome

		r.paint(game, episode)
		if r.delay > 0 {
			time.Sleep(r.delay)
		}
	}

	res.Score = game.Score()
	res.Steps = game.Steps
	return res, nil
}

// Quit reports whether the user asked to stop
func (r *Runner) Quit() bool { return r.quit }

func (r *Runner) poll() {
	for _, ev := range r.Input.Poll() {
		switch ev.Kind {
		case InputQuit:
			r.quit = true
		case InputPause:
			r.paused = !r.paused
		case InputFaster:
			r.delay /= 2
		case InputSlower:
			if r.delay == 0 {
				r.delay = time.Millisecond
			}
			r.delay *= 2
		case InputSteer:
			if s, ok := r.Agent.(Steerer); ok {
				s.Steer(ev.Action)
			}
		}
	}
}

// paint diffs the new frame against the last one
func (r *Runner) paint(game *env.Game, episode int) {
	if !r.show {
		return
	}
	frame := make(map[env.Coord]Cell, game.Snake.Len()+1)
	if game.HasFood {
		frame[game.Food] = CellFood
	}
	for i, c := range game.Snake.Body {
		if i == 0 {
			frame[c] = CellHead
		} else {
			frame[c] = CellBody
		}
	}
	for c := range r.painted {
		if _, ok := frame[c]; !ok {
			r.Renderer.Erase(c)
		}
	}
	for c, kind := range frame {
		if prev, ok := r.painted[c]; !ok || prev != kind {
			r.Renderer.Paint(c, kind)
		}
	}
	r.painted = frame
	r.Renderer.Status(fmt.Sprintf("%s  episode %d  score %d  eps %.4f",
		r.Agent.Name(), episode, game.Score(), r.Agent.Epsilon()))
	r.Renderer.Flush()
}
