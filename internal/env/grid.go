package env

import (
	"fmt"
	"strings"
)

// Action is an absolute move on the grid
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
)

// NumActions is the size of the action space
const NumActions = 4

// Actions lists every action in table order
var Actions = [NumActions]Action{ActionUp, ActionDown, ActionLeft, ActionRight}

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "UP"
	case ActionDown:
		return "DOWN"
	case ActionLeft:
		return "LEFT"
	case ActionRight:
		return "RIGHT"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the reverse move
func (a Action) Opposite() Action {
	switch a {
	case ActionUp:
		return ActionDown
	case ActionDown:
		return ActionUp
	case ActionLeft:
		return ActionRight
	default:
		return ActionLeft
	}
}

// ParseAction converts a name produced by Action.String back to an Action
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(s) {
	case "UP":
		return ActionUp, nil
	case "DOWN":
		return ActionDown, nil
	case "LEFT":
		return ActionLeft, nil
	case "RIGHT":
		return ActionRight, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Coord is a cell position in screen units (multiples of the cell size)
type Coord struct {
	X, Y int
}

// Velocity is the per-step displacement of the snake head
type Velocity struct {
	DX, DY int
}

// IsZero reports whether the snake has not started moving
func (v Velocity) IsZero() bool {
	return v.DX == 0 && v.DY == 0
}

// Reverse returns the opposite displacement
func (v Velocity) Reverse() Velocity {
	return Velocity{DX: -v.DX, DY: -v.DY}
}

// Grid is the playing field. Width and Height are in screen units and
// every cell is Cell units wide, so the playable area has
// Width/Cell columns and Height/Cell rows.
type Grid struct {
	Width  int
	Height int
	Cell   int
}

// NewGrid validates the dimensions and returns a grid
func NewGrid(width, height, cell int) (Grid, error) {
	if cell <= 0 {
		return Grid{}, fmt.Errorf("cell size must be positive, got %d", cell)
	}
	if width < cell || height < cell {
		return Grid{}, fmt.Errorf("grid %dx%d is smaller than one %d-unit cell", width, height, cell)
	}
	if width%cell != 0 || height%cell != 0 {
		return Grid{}, fmt.Errorf("grid %dx%d is not a multiple of cell size %d", width, height, cell)
	}
	return Grid{Width: width, Height: height, Cell: cell}, nil
}

// Columns returns the number of cells per row
func (g Grid) Columns() int { return g.Width / g.Cell }

// Rows returns the number of cells per column
func (g Grid) Rows() int { return g.Height / g.Cell }

// Velocity returns the displacement for an action at this grid's pitch
func (g Grid) Velocity(a Action) Velocity {
	switch a {
	case ActionUp:
		return Velocity{DX: 0, DY: -g.Cell}
	case ActionDown:
		return Velocity{DX: 0, DY: g.Cell}
	case ActionLeft:
		return Velocity{DX: -g.Cell, DY: 0}
	case ActionRight:
		return Velocity{DX: g.Cell, DY: 0}
	}
	return Velocity{}
}

// ActionOf maps a velocity back to its action. ok is false for the zero
// velocity.
func (g Grid) ActionOf(v Velocity) (Action, bool) {
	for _, a := range Actions {
		if g.Velocity(a) == v {
			return a, true
		}
	}
	return 0, false
}

// Translate moves c by v
func (g Grid) Translate(c Coord, v Velocity) Coord {
	return Coord{X: c.X + v.DX, Y: c.Y + v.DY}
}

// IsWallCollision reports whether c lies outside the playable area or off
// the cell pitch
func (g Grid) IsWallCollision(c Coord) bool {
	if c.X < 0 || c.X >= g.Width || c.Y < 0 || c.Y >= g.Height {
		return true
	}
	return c.X%g.Cell != 0 || c.Y%g.Cell != 0
}

// IsBodyCollision reports whether c is occupied by a body segment
func (g Grid) IsBodyCollision(c Coord, body map[Coord]struct{}) bool {
	_, hit := body[c]
	return hit
}

// Cells returns every cell in row-major order
func (g Grid) Cells() []Coord {
	cells := make([]Coord, 0, g.Columns()*g.Rows())
	for y := 0; y < g.Height; y += g.Cell {
		for x := 0; x < g.Width; x += g.Cell {
			cells = append(cells, Coord{X: x, Y: y})
		}
	}
	return cells
}

// AvailableCells returns the cells not in occupied, row-major so that a
// seeded choice over the result is reproducible
func (g Grid) AvailableCells(occupied map[Coord]struct{}) []Coord {
	free := make([]Coord, 0, g.Columns()*g.Rows()-len(occupied))
	for _, c := range g.Cells() {
		if _, taken := occupied[c]; !taken {
			free = append(free, c)
		}
	}
	return free
}

// SquaredDistance returns the squared Euclidean distance in cell units
func (g Grid) SquaredDistance(a, b Coord) float64 {
	dx := float64(a.X-b.X) / float64(g.Cell)
	dy := float64(a.Y-b.Y) / float64(g.Cell)
	return dx*dx + dy*dy
}
