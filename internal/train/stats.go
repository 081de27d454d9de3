package train

import (
	"time"

	"snakerl/internal/env"
)

// Point is one sample of the training curve
type Point struct {
	Episode  int     `json:"episode" parquet:"episode"`
	Score    int     `json:"score" parquet:"score"`
	Steps    int     `json:"steps" parquet:"steps"`
	Return   float64 `json:"return" parquet:"return"`
	Epsilon  float64 `json:"epsilon" parquet:"epsilon"`
	Outcome  string  `json:"outcome" parquet:"outcome"`
	Mean     float64 `json:"mean" parquet:"mean"`
	Variance float64 `json:"variance" parquet:"variance"`
}

// Stats tracks scores over a run with Welford's running mean and variance
type Stats struct {
	BestScore   int
	BestEpisode int
	Episodes    int
	Outcomes    map[string]int
	History     []Point

	mean float64
	m2   float64
}

// NewStats creates empty run statistics
func NewStats() *Stats {
	return &Stats{Outcomes: make(map[string]int)}
}

// Record adds a finished episode and returns its curve point
func (s *Stats) Record(res EpisodeResult, epsilon float64) Point {
	s.Episodes++
	x := float64(res.Score)
	delta := x - s.mean
	s.mean += delta / float64(s.Episodes)
	s.m2 += delta * (x - s.mean)

	if s.Episodes == 1 || res.Score > s.BestScore {
		s.BestScore = res.Score
		s.BestEpisode = res.Episode
	}
	s.Outcomes[res.Outcome.String()]++

	p := Point{
		Episode:  res.Episode,
		Score:    res.Score,
		Steps:    res.Steps,
		Return:   res.Return,
		Epsilon:  epsilon,
		Outcome:  res.Outcome.String(),
		Mean:     s.mean,
		Variance: s.Variance(),
	}
	s.History = append(s.History, p)
	return p
}

// Mean returns the running mean score
func (s *Stats) Mean() float64 { return s.mean }

// Variance returns the sample variance of the scores, zero until two
// episodes were recorded
func (s *Stats) Variance() float64 {
	if s.Episodes < 2 {
		return 0
	}
	return s.m2 / float64(s.Episodes-1)
}

// EpisodeResult is what the runner reports for one episode
type EpisodeResult struct {
	Episode int
	Score   int
	Steps   int
	Outcome env.Outcome
	Return  float64
	Actions []env.Action
	Seed    int64
}

// Report is the view of a run handed to sinks
type Report struct {
	Agent        string         `json:"agent"`
	Last         Point          `json:"last"`
	BestScore    int            `json:"best_score"`
	BestEpisode  int            `json:"best_episode"`
	Episodes     int            `json:"episodes"`
	FinalEpsilon float64        `json:"final_epsilon"`
	States       int            `json:"states"`
	Outcomes     map[string]int `json:"outcomes"`
	Mean         float64        `json:"mean"`
	Variance     float64        `json:"variance"`
	Aborted      bool           `json:"aborted"`
	Final        bool           `json:"final"`
	Elapsed      time.Duration  `json:"elapsed"`
}
