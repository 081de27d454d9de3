package env

import (
	"strings"
	"testing"
)

// dumpGame renders the board for test failure messages
func dumpGame(g *Game) string {
	var sb strings.Builder
	for y := 0; y < g.Grid.Height; y += g.Grid.Cell {
		for x := 0; x < g.Grid.Width; x += g.Grid.Cell {
			c := Coord{X: x, Y: y}
			switch {
			case c == g.Snake.Head():
				sb.WriteByte('H')
			case g.Grid.IsBodyCollision(c, g.Snake.Occupied()):
				sb.WriteByte('o')
			case g.HasFood && c == g.Food:
				sb.WriteByte('*')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func ptr(c Coord) *Coord { return &c }

func TestNewSnakeZigZagLayout(t *testing.T) {
	g := Grid{Width: 3, Height: 3, Cell: 1}
	s := NewSnake(g, 5)

	want := []Coord{{1, 1}, {2, 1}, {2, 0}, {1, 0}, {0, 0}}
	if len(s.Body) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(s.Body))
	}
	for i := range want {
		if s.Body[i] != want[i] {
			t.Fatalf("segment %d: got %v want %v (body %v)", i, s.Body[i], want[i], s.Body)
		}
	}
	if s.Velocity != (Velocity{DX: -1, DY: 0}) {
		t.Fatalf("expected to move away from the neck, got %+v", s.Velocity)
	}

	single := NewSnake(g, 1)
	if !single.Velocity.IsZero() {
		t.Fatalf("single segment snake should not be moving, got %+v", single.Velocity)
	}
}

func TestChangeVelocityRefusesReversal(t *testing.T) {
	g := Grid{Width: 5, Height: 5, Cell: 1}
	s := NewSnake(g, 3) // heading right

	if s.ChangeVelocity(g.Velocity(ActionLeft)) {
		t.Fatal("reversal onto the neck must be refused")
	}
	if s.Velocity != g.Velocity(ActionRight) {
		t.Fatalf("heading changed after refused reversal: %+v", s.Velocity)
	}
	if !s.ChangeVelocity(g.Velocity(ActionDown)) {
		t.Fatal("perpendicular turn must be accepted")
	}

	lone := SpawnSnake(Coord{2, 2})
	lone.ChangeVelocity(g.Velocity(ActionRight))
	if !lone.ChangeVelocity(g.Velocity(ActionLeft)) {
		t.Fatal("a single segment snake may reverse")
	}
}

func TestStepEatsFoodAndGrows(t *testing.T) {
	cfg := GameConfig{Width: 3, Height: 3, Cell: 1, InitialLength: 1, Start: ptr(Coord{1, 1}), FirstFood: ptr(Coord{2, 1})}
	g, err := NewGame(cfg, 1)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	res := g.Step(ActionRight)
	if res.Outcome != OutcomeAteFood {
		t.Fatalf("expected ate_food, got %s\n%s", res.Outcome, dumpGame(g))
	}
	if g.Snake.Len() != 2 {
		t.Fatalf("expected length 2, got %d", g.Snake.Len())
	}
	if g.Done {
		t.Fatal("eating must not end the episode")
	}
	if !g.HasFood || g.Grid.IsBodyCollision(g.Food, g.Snake.Occupied()) {
		t.Fatalf("food respawned inside body or missing\n%s", dumpGame(g))
	}
	if g.StepsWithoutFood != 0 {
		t.Fatalf("expected stall counter reset, got %d", g.StepsWithoutFood)
	}
}

func TestStepWallAndBodyHits(t *testing.T) {
	cfg := GameConfig{Width: 3, Height: 3, Cell: 1, InitialLength: 1, Start: ptr(Coord{2, 1}), FirstFood: ptr(Coord{0, 0})}
	g, err := NewGame(cfg, 1)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	res := g.Step(ActionRight)
	if res.Outcome != OutcomeWallHit || !g.Done {
		t.Fatalf("expected wall hit, got %s", res.Outcome)
	}
	if res.Head != (Coord{3, 1}) {
		t.Fatalf("expected offending cell (3,1), got %v", res.Head)
	}
	if again := g.Step(ActionUp); again.Outcome != OutcomeWallHit {
		t.Fatalf("finished game must keep its last result, got %s", again.Outcome)
	}

	// length 5 snake curled in the top-left of a 3x3 board, heading left
	body, err := NewGame(GameConfig{Width: 3, Height: 3, Cell: 1, InitialLength: 5}, 3)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	res = body.Step(ActionUp) // (1,1) -> (1,0) is a body segment
	if res.Outcome != OutcomeBodyHit {
		t.Fatalf("expected body hit, got %s\n%s", res.Outcome, dumpGame(body))
	}
}

func TestStepStallsAfterCeiling(t *testing.T) {
	cfg := GameConfig{Width: 5, Height: 5, Cell: 1, InitialLength: 1, MissedFoodMaxSteps: 2, Start: ptr(Coord{0, 0}), FirstFood: ptr(Coord{4, 4})}
	g, err := NewGame(cfg, 1)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if res := g.Step(ActionRight); res.Outcome != OutcomeAdvance {
		t.Fatalf("step 1: %s", res.Outcome)
	}
	if res := g.Step(ActionLeft); res.Outcome != OutcomeAdvance {
		t.Fatalf("step 2: %s", res.Outcome)
	}
	if res := g.Step(ActionRight); res.Outcome != OutcomeStalled {
		t.Fatalf("step 3: expected stalled, got %s", res.Outcome)
	}
}

func TestFoodNeverInsideBody(t *testing.T) {
	cfg := GameConfig{Width: 4, Height: 4, Cell: 1, InitialLength: 6}
	for seed := int64(0); seed < 50; seed++ {
		g, err := NewGame(cfg, seed)
		if err != nil {
			t.Fatalf("NewGame: %v", err)
		}
		if g.Grid.IsBodyCollision(g.Food, g.Snake.Occupied()) {
			t.Fatalf("seed %d: food spawned inside body\n%s", seed, dumpGame(g))
		}
		if g.PlaceFood(g.Snake.Head()) {
			t.Fatal("PlaceFood must refuse body cells")
		}
	}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]EpisodeStats{
		{Score: 1, Steps: 10, Outcome: OutcomeWallHit},
		{Score: 3, Steps: 30, Outcome: OutcomeBodyHit},
		{Score: 2, Steps: 20, Outcome: OutcomeWallHit},
	})
	if agg.ScoreMean != 2 || agg.StepsMean != 20 || agg.ScoreMax != 3 {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.ScoreStd != 1 {
		t.Fatalf("expected sample std 1, got %v", agg.ScoreStd)
	}
	if agg.Outcomes[OutcomeWallHit] != 2 {
		t.Fatalf("expected 2 wall outcomes, got %d", agg.Outcomes[OutcomeWallHit])
	}
	if got := agg.RobustnessScore(0.5); got != 1.5 {
		t.Fatalf("robustness = %v", got)
	}
}
