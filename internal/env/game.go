package env

import (
	"math/rand"
)

// GameConfig holds the world parameters of an episode
type GameConfig struct {
	Width              int
	Height             int
	Cell               int
	InitialLength      int
	RandomSpawn        bool
	MissedFoodMaxSteps int // 0 disables stall detection

	// Optional fixed placements, mostly for scripted scenarios
	Start     *Coord
	FirstFood *Coord
}

// StepResult describes what a single step did
type StepResult struct {
	Outcome      Outcome
	Head         Coord   // head after the move, or the offending cell on a collision
	DistBefore   float64 // squared distance head->food before the move
	DistAfter    float64 // squared distance head->food after the move
	Action       Action  // action as requested
	Accepted     bool    // false when the heading change was a refused reversal
	SnakeLength  int
	StepsNoFood  int
	FoodPosition Coord
}

// Game is a single-snake world that advances one step per call
type Game struct {
	Grid  Grid
	Snake *Snake
	Food  Coord

	HasFood          bool
	Steps            int
	StepsWithoutFood int
	FoodEaten        int
	Done             bool
	Last             StepResult

	cfg GameConfig
	rng *rand.Rand
}

// NewGame creates a world seeded with seed and places the snake and food
func NewGame(cfg GameConfig, seed int64) (*Game, error) {
	grid, err := NewGrid(cfg.Width, cfg.Height, cfg.Cell)
	if err != nil {
		return nil, err
	}
	g := &Game{
		Grid: grid,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
	}
	g.reset()
	return g, nil
}

func (g *Game) reset() {
	g.Steps = 0
	g.StepsWithoutFood = 0
	g.FoodEaten = 0
	g.Done = false
	g.Last = StepResult{}

	switch {
	case g.cfg.Start != nil:
		g.Snake = SpawnSnake(*g.cfg.Start)
	case g.cfg.RandomSpawn:
		cells := g.Grid.Cells()
		g.Snake = SpawnSnake(cells[g.rng.Intn(len(cells))])
	default:
		g.Snake = NewSnake(g.Grid, g.cfg.InitialLength)
	}

	if g.cfg.FirstFood != nil {
		g.PlaceFood(*g.cfg.FirstFood)
	} else {
		g.spawnFood()
	}
}

// PlaceFood puts the food at c. Cells inside the body are refused.
func (g *Game) PlaceFood(c Coord) bool {
	if g.Grid.IsWallCollision(c) || g.Grid.IsBodyCollision(c, g.Snake.Occupied()) {
		return false
	}
	g.Food = c
	g.HasFood = true
	return true
}

// spawnFood places food at a uniformly random free cell
func (g *Game) spawnFood() {
	free := g.Grid.AvailableCells(g.Snake.Occupied())
	if len(free) == 0 {
		g.HasFood = false
		return
	}
	g.Food = free[g.rng.Intn(len(free))]
	g.HasFood = true
}

// Step applies the action and advances the world by one tick
func (g *Game) Step(action Action) StepResult {
	if g.Done {
		return g.Last
	}

	g.Steps++
	accepted := g.Snake.ChangeVelocity(g.Grid.Velocity(action))
	head := g.Snake.Head()
	newHead := g.Grid.Translate(head, g.Snake.Velocity)

	res := StepResult{
		Head:       newHead,
		Action:     action,
		Accepted:   accepted,
		DistBefore: g.foodDistance(head),
	}

	switch {
	case g.Grid.IsWallCollision(newHead):
		res.Outcome = OutcomeWallHit
	case g.Grid.IsBodyCollision(newHead, g.Snake.Occupied()):
		res.Outcome = OutcomeBodyHit
	default:
		ate := g.HasFood && newHead == g.Food
		g.Snake.Advance(newHead, ate)
		if ate {
			g.FoodEaten++
			g.StepsWithoutFood = 0
			g.spawnFood()
			res.Outcome = OutcomeAteFood
		} else {
			g.StepsWithoutFood++
			res.Outcome = OutcomeAdvance
			if g.cfg.MissedFoodMaxSteps > 0 && g.StepsWithoutFood > g.cfg.MissedFoodMaxSteps {
				res.Outcome = OutcomeStalled
			}
		}
	}

	res.DistAfter = g.foodDistance(g.Snake.Head())
	res.SnakeLength = g.Snake.Len()
	res.StepsNoFood = g.StepsWithoutFood
	res.FoodPosition = g.Food
	g.Done = res.Outcome.Terminal()
	g.Last = res
	return res
}

func (g *Game) foodDistance(from Coord) float64 {
	if !g.HasFood {
		return 0
	}
	return g.Grid.SquaredDistance(from, g.Food)
}

// State encodes the current situation with enc
func (g *Game) State(enc *Encoder) StateKey {
	food := g.Food
	if !g.HasFood {
		food = g.Snake.Head()
	}
	return enc.Encode(g.Snake, food, g.Grid)
}

// Score returns the number of food items eaten
func (g *Game) Score() int {
	return g.FoodEaten
}

// Stats returns the episode statistics so far
func (g *Game) Stats(seed int64, ret float64) EpisodeStats {
	return EpisodeStats{
		Score:   g.FoodEaten,
		Steps:   g.Steps,
		Return:  ret,
		Outcome: g.Last.Outcome,
		Seed:    seed,
	}
}
