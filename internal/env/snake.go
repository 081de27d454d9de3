package env

// Snake is the ordered body (head first) plus the current heading
type Snake struct {
	Body     []Coord
	Velocity Velocity

	occupied map[Coord]struct{}
}

// NewSnake lays a snake of the given length along the zig-zag path that
// starts at the top-left cell: left to right on even rows, right to left on
// odd rows. The last laid cell becomes the head, and a multi-segment snake
// starts moving away from its neck.
func NewSnake(g Grid, length int) *Snake {
	if length < 1 {
		length = 1
	}
	path := make([]Coord, 0, length)
	for row := 0; row < g.Rows() && len(path) < length; row++ {
		for col := 0; col < g.Columns() && len(path) < length; col++ {
			x := col
			if row%2 == 1 {
				x = g.Columns() - 1 - col
			}
			path = append(path, Coord{X: x * g.Cell, Y: row * g.Cell})
		}
	}

	body := make([]Coord, len(path))
	for i, c := range path {
		body[len(path)-1-i] = c
	}

	s := newSnake(body)
	if len(body) > 1 {
		s.Velocity = Velocity{DX: body[0].X - body[1].X, DY: body[0].Y - body[1].Y}
	}
	return s
}

// SpawnSnake places a single-segment, not yet moving snake at c
func SpawnSnake(c Coord) *Snake {
	return newSnake([]Coord{c})
}

func newSnake(body []Coord) *Snake {
	s := &Snake{
		Body:     body,
		occupied: make(map[Coord]struct{}, len(body)+1),
	}
	for _, c := range body {
		s.occupied[c] = struct{}{}
	}
	return s
}

// Head returns the first body segment
func (s *Snake) Head() Coord {
	return s.Body[0]
}

// Len returns the number of segments
func (s *Snake) Len() int {
	return len(s.Body)
}

// Occupied returns the body as a set. The map is owned by the snake and
// must not be modified.
func (s *Snake) Occupied() map[Coord]struct{} {
	return s.occupied
}

// ChangeVelocity sets a new heading. Reversing onto the neck is refused
// once the body has more than one segment; the return value reports
// whether the heading was accepted.
func (s *Snake) ChangeVelocity(v Velocity) bool {
	if len(s.Body) > 1 && v == s.Velocity.Reverse() {
		return false
	}
	s.Velocity = v
	return true
}

// Advance pushes head and drops the tail unless grow is set
func (s *Snake) Advance(head Coord, grow bool) {
	s.Body = append(s.Body, Coord{})
	copy(s.Body[1:], s.Body[:len(s.Body)-1])
	s.Body[0] = head
	s.occupied[head] = struct{}{}

	if grow {
		return
	}
	tail := s.Body[len(s.Body)-1]
	s.Body = s.Body[:len(s.Body)-1]
	delete(s.occupied, tail)
}
