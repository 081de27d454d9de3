package env

import (
	"gonum.org/v1/gonum/stat"
)

// Outcome classifies a single step
type Outcome int

const (
	OutcomeAdvance Outcome = iota // plain move
	OutcomeAteFood                // head landed on food
	OutcomeWallHit                // left the grid
	OutcomeBodyHit                // ran into own body
	OutcomeStalled                // too many steps without food
	OutcomeQuit                   // user asked to stop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdvance:
		return "advance"
	case OutcomeAteFood:
		return "ate_food"
	case OutcomeWallHit:
		return "wall"
	case OutcomeBodyHit:
		return "body"
	case OutcomeStalled:
		return "stalled"
	case OutcomeQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Terminal reports whether the outcome ends the episode
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeWallHit, OutcomeBodyHit, OutcomeStalled, OutcomeQuit:
		return true
	}
	return false
}

// Death reports whether the outcome is a penalised terminal condition
func (o Outcome) Death() bool {
	return o == OutcomeWallHit || o == OutcomeBodyHit || o == OutcomeStalled
}

// EpisodeStats captures the result of a single episode
type EpisodeStats struct {
	Score   int     // food eaten
	Steps   int     // steps played
	Return  float64 // sum of rewards
	Outcome Outcome // how the episode ended
	Seed    int64   // seed used for the world
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	ScoreMean   float64
	ScoreStd    float64
	ScoreMax    int
	StepsMean   float64
	ReturnMean  float64
	Outcomes    map[Outcome]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{
		Outcomes:    make(map[Outcome]int),
		NumEpisodes: len(episodes),
	}
	if len(episodes) == 0 {
		return agg
	}

	scores := make([]float64, len(episodes))
	steps := make([]float64, len(episodes))
	returns := make([]float64, len(episodes))
	for i, ep := range episodes {
		scores[i] = float64(ep.Score)
		steps[i] = float64(ep.Steps)
		returns[i] = ep.Return
		agg.Outcomes[ep.Outcome]++
		if ep.Score > agg.ScoreMax {
			agg.ScoreMax = ep.Score
		}
	}

	agg.ScoreMean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		agg.ScoreStd = stat.StdDev(scores, nil)
	}
	agg.StepsMean = stat.Mean(steps, nil)
	agg.ReturnMean = stat.Mean(returns, nil)
	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.ScoreMean - lambda*a.ScoreStd
}
