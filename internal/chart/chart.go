package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"snakerl/internal/agent"
	"snakerl/internal/train"
)

// Training plots score and running mean, and the exploration rate, over
// the episodes of a run
func Training(title string, points []train.Point) []components.Charter {
	episodes := make([]string, len(points))
	scores := make([]opts.LineData, len(points))
	means := make([]opts.LineData, len(points))
	eps := make([]opts.LineData, len(points))
	for i, p := range points {
		episodes[i] = strconv.Itoa(p.Episode)
		scores[i] = opts.LineData{Value: p.Score}
		means[i] = opts.LineData{Value: p.Mean}
		eps[i] = opts.LineData{Value: p.Epsilon}
	}

	score := charts.NewLine()
	score.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "score per episode"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	score.SetXAxis(episodes).
		AddSeries("score", scores).
		AddSeries("mean", means)

	epsilon := charts.NewLine()
	epsilon.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Epsilon"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	epsilon.SetXAxis(episodes).AddSeries("epsilon", eps)

	return []components.Charter{score, epsilon}
}

// EpsilonCurve returns n successive epsilons of the harmonic decay from 1.
// It is empty when n < 1.
func EpsilonCurve(step float64, n int) []float64 {
	p := agent.Policy{Epsilon: 1, Step: step}
	out := make([]float64, max(n, 0))
	for i := range out {
		out[i] = p.Epsilon
		p.Decay()
	}
	return out
}

// EpsilonCurves compares decay schedules for several steps. Every
// sample-th point is plotted.
func EpsilonCurves(steps []float64, n, sample int) *charts.Line {
	if sample < 1 {
		sample = 1
	}
	var xs []string
	for i := 0; i < n; i += sample {
		xs = append(xs, strconv.Itoa(i))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Epsilon decay", Subtitle: "eps' = 1 / (1/eps + step)"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs)
	for _, step := range steps {
		curve := EpsilonCurve(step, n)
		items := make([]opts.LineData, 0, len(xs))
		for i := 0; i < n; i += sample {
			items = append(items, opts.LineData{Value: curve[i]})
		}
		line.AddSeries(strconv.FormatFloat(step, 'g', -1, 64), items)
	}
	return line
}

// Render writes the charts as one HTML page
func Render(path string, cs ...components.Charter) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()

	page := components.NewPage()
	page.AddCharts(cs...)
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
