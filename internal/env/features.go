package env

// StateKey is the compact discrete encoding of a game situation
type StateKey string

// EncodingID names the predicate layout below. It is stored next to every
// persisted table; a table written under another layout cannot be reused.
const EncodingID = "v1-food4-heading4-danger4"

// Predicate indices, in key order
const (
	BitFoodRight = iota
	BitFoodLeft
	BitFoodBelow
	BitFoodAbove
	BitGoingLeft
	BitGoingRight
	BitGoingDown
	BitGoingUp
	BitDangerLeft
	BitDangerRight
	BitDangerDown
	BitDangerUp

	NumBits
)

var predicateNames = [NumBits]string{
	"food_right",
	"food_left",
	"food_below",
	"food_above",
	"going_left",
	"going_right",
	"going_down",
	"going_up",
	"danger_left",
	"danger_right",
	"danger_down",
	"danger_up",
}

// StateNames returns the index -> predicate name dictionary
func StateNames() map[int]string {
	names := make(map[int]string, NumBits)
	for i, n := range predicateNames {
		names[i] = n
	}
	return names
}

// Encoder builds state keys. It reuses an internal buffer, so a single
// Encoder must not be shared between goroutines.
type Encoder struct {
	buffer []byte
}

// NewEncoder creates a state encoder
func NewEncoder() *Encoder {
	return &Encoder{buffer: make([]byte, NumBits)}
}

// Encode computes the predicate bits relative to the snake head. Screen y
// grows downward, so "above" means a smaller y. A food cell on the same
// column or row sets neither bit of that axis.
func (e *Encoder) Encode(s *Snake, food Coord, g Grid) StateKey {
	head := s.Head()
	v := s.Velocity

	e.set(BitFoodRight, food.X > head.X)
	e.set(BitFoodLeft, food.X < head.X)
	e.set(BitFoodBelow, food.Y > head.Y)
	e.set(BitFoodAbove, food.Y < head.Y)

	e.set(BitGoingLeft, v.DX < 0)
	e.set(BitGoingRight, v.DX > 0)
	e.set(BitGoingDown, v.DY > 0)
	e.set(BitGoingUp, v.DY < 0)

	e.set(BitDangerLeft, isDanger(g, s, head, ActionLeft))
	e.set(BitDangerRight, isDanger(g, s, head, ActionRight))
	e.set(BitDangerDown, isDanger(g, s, head, ActionDown))
	e.set(BitDangerUp, isDanger(g, s, head, ActionUp))

	return StateKey(e.buffer)
}

func (e *Encoder) set(bit int, on bool) {
	if on {
		e.buffer[bit] = '1'
	} else {
		e.buffer[bit] = '0'
	}
}

// isDanger checks whether one step toward a would hit a wall or the body
func isDanger(g Grid, s *Snake, head Coord, a Action) bool {
	next := g.Translate(head, g.Velocity(a))
	return g.IsWallCollision(next) || g.IsBodyCollision(next, s.Occupied())
}

// Decode expands a key back into named predicates. Keys of the wrong length
// decode to nil.
func Decode(key StateKey) map[string]bool {
	if len(key) != NumBits {
		return nil
	}
	out := make(map[string]bool, NumBits)
	for i, n := range predicateNames {
		out[n] = key[i] == '1'
	}
	return out
}
