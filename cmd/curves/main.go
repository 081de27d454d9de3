package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"snakerl/internal/chart"
)

func main() {
	out := flag.String("out", "charts/epsilon.html", "output HTML file")
	n := flag.Int("n", 100000, "number of decay steps to plot")
	sample := flag.Int("sample", 100, "plot every Nth step")
	steps := flag.String("steps", "1,0.1,0.01,0.001,0.0001", "comma separated epsilon steps")
	flag.Parse()

	if err := checkRange(*n, *sample); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	parsed, err := parseSteps(*steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := chart.Render(*out, chart.EpsilonCurves(parsed, *n, *sample)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

func checkRange(n, sample int) error {
	if n < 1 {
		return fmt.Errorf("-n must be at least 1, got %d", n)
	}
	if sample < 1 {
		return fmt.Errorf("-sample must be at least 1, got %d", sample)
	}
	return nil
}

func parseSteps(s string) ([]float64, error) {
	var steps []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("bad epsilon step %q", f)
		}
		steps = append(steps, v)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no epsilon steps given")
	}
	return steps, nil
}
