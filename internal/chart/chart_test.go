package chart

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snakerl/internal/train"
)

func TestEpsilonCurve(t *testing.T) {
	curve := EpsilonCurve(0.1, 4)
	want := []float64{1, 1 / 1.1, 1 / 1.2, 1 / 1.3}
	for i := range want {
		if math.Abs(curve[i]-want[i]) > 1e-12 {
			t.Fatalf("curve[%d] = %v, want %v", i, curve[i], want[i])
		}
	}
}

func TestEpsilonCurveNonPositiveLength(t *testing.T) {
	for _, n := range []int{0, -5} {
		if got := EpsilonCurve(0.1, n); len(got) != 0 {
			t.Fatalf("EpsilonCurve(0.1, %d) = %v", n, got)
		}
	}
	if line := EpsilonCurves([]float64{0.1}, -5, 10); line == nil {
		t.Fatal("expected an empty chart")
	}
}

func TestRenderPages(t *testing.T) {
	dir := t.TempDir()
	points := []train.Point{
		{Episode: 0, Score: 1, Mean: 1, Epsilon: 1},
		{Episode: 1, Score: 3, Mean: 2, Epsilon: 0.9},
	}

	trainingPath := filepath.Join(dir, "charts", "training.html")
	if err := Render(trainingPath, Training("MonteCarlo", points)...); err != nil {
		t.Fatalf("Render: %v", err)
	}
	curvesPath := filepath.Join(dir, "epsilon.html")
	if err := Render(curvesPath, EpsilonCurves([]float64{1, 0.1}, 100, 10)); err != nil {
		t.Fatalf("Render: %v", err)
	}

	for path, wants := range map[string][]string{
		trainingPath: {"MonteCarlo", "score", "mean", "Epsilon"},
		curvesPath:   {"Epsilon decay", "0.1"},
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		html := string(data)
		if !strings.Contains(html, "echarts") {
			t.Fatalf("%s does not look like an echarts page", path)
		}
		for _, w := range wants {
			if !strings.Contains(html, w) {
				t.Errorf("%s missing %q", path, w)
			}
		}
	}
}
