package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/logrusorgru/aurora"

	"snakerl/internal/train"
)

// Logger writes one CSV row and one JSON line per episode and prints a
// console summary every few episodes. It is a train.Sink.
type Logger struct {
	csvPath     string
	jsonPath    string
	every       int
	out         io.Writer
	color       aurora.Aurora
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	initialized bool
	log         *slog.Logger
}

// NewLogger creates a new logger. Empty paths disable that output; every
// <= 0 disables the periodic console line.
func NewLogger(csvPath, jsonPath string, every int, out io.Writer, colors bool) (*Logger, error) {
	l := &Logger{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		every:    every,
		out:      out,
		color:    aurora.NewAurora(colors),
		log:      slog.Default().With("component", "logging"),
	}

	for _, p := range []string{csvPath, jsonPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	if l.out == nil {
		l.out = io.Discard
	}
	return l, nil
}

// Init creates the log files
func (l *Logger) Init() error {
	var err error

	if l.csvPath != "" {
		l.csvFile, err = os.Create(l.csvPath)
		if err != nil {
			return fmt.Errorf("create csv log: %w", err)
		}
		l.csvWriter = csv.NewWriter(l.csvFile)
		header := []string{
			"episode", "score", "steps", "return", "epsilon", "outcome",
			"mean_score", "variance", "best_score", "states",
		}
		if err := l.csvWriter.Write(header); err != nil {
			return err
		}
	}

	if l.jsonPath != "" {
		l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("create json log: %w", err)
		}
	}

	l.initialized = true
	return nil
}

// Close flushes and closes all log files
func (l *Logger) Close() error {
	var first error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		first = l.csvWriter.Error()
	}
	if l.csvFile != nil {
		if err := l.csvFile.Close(); err != nil && first == nil {
			first = err
		}
	}
	if l.jsonFile != nil {
		if err := l.jsonFile.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Episode logs one finished episode, or the run summary for a final report
func (l *Logger) Episode(r train.Report) {
	if !l.initialized {
		return
	}
	if r.Final {
		l.summary(r)
		return
	}

	p := r.Last
	if l.csvWriter != nil {
		err := l.csvWriter.Write([]string{
			strconv.Itoa(p.Episode),
			strconv.Itoa(p.Score),
			strconv.Itoa(p.Steps),
			fmt.Sprintf("%.4f", p.Return),
			fmt.Sprintf("%.6f", p.Epsilon),
			p.Outcome,
			fmt.Sprintf("%.4f", p.Mean),
			fmt.Sprintf("%.4f", p.Variance),
			strconv.Itoa(r.BestScore),
			strconv.Itoa(r.States),
		})
		if err == nil {
			l.csvWriter.Flush()
			err = l.csvWriter.Error()
		}
		if err != nil {
			l.log.Warn("failed to write csv log", "path", l.csvPath, "episode", p.Episode, "err", err)
		}
	}

	if l.jsonFile != nil {
		line, err := json.Marshal(p)
		if err == nil {
			_, err = l.jsonFile.Write(append(line, '\n'))
		}
		if err != nil {
			l.log.Warn("failed to write json log", "path", l.jsonPath, "episode", p.Episode, "err", err)
		}
	}

	if l.every > 0 && r.Episodes%l.every == 0 {
		score := l.color.Yellow(fmt.Sprintf("%3d", p.Score))
		if p.Score > 0 && p.Score == r.BestScore {
			score = l.color.Green(fmt.Sprintf("%3d", p.Score))
		}
		fmt.Fprintf(l.out, "Ep %6d | Score: %s | Best: %3d (ep %d) | Mean: %6.2f | Eps: %.4f | States: %4d | %s\n",
			p.Episode, score, r.BestScore, r.BestEpisode, p.Mean, p.Epsilon, r.States, l.outcome(p.Outcome))
	}
}

func (l *Logger) outcome(o string) aurora.Value {
	switch o {
	case "wall", "body":
		return l.color.Red(o)
	case "stalled":
		return l.color.Magenta(o)
	default:
		return l.color.Cyan(o)
	}
}

func (l *Logger) summary(r train.Report) {
	state := l.color.Green("complete")
	if r.Aborted {
		state = l.color.Yellow("aborted")
	}
	fmt.Fprintln(l.out, "---")
	fmt.Fprintf(l.out, "%s training %s: %d episodes in %v\n", r.Agent, state, r.Episodes, r.Elapsed)
	fmt.Fprintf(l.out, "Best score %s at episode %d | Mean %.2f (var %.2f) | Final eps %.4f | States %d\n",
		l.color.Bold(r.BestScore), r.BestEpisode, r.Mean, r.Variance, r.FinalEpsilon, r.States)
	for _, name := range []string{"wall", "body", "stalled"} {
		fmt.Fprintf(l.out, "  %-8s %d\n", name, r.Outcomes[name])
	}
}
