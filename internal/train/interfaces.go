package train

import "snakerl/internal/env"

// Cell is what occupies a painted grid cell
type Cell int

const (
	CellHead Cell = iota
	CellBody
	CellFood
)

// Renderer draws the world. Implementations swallow their own errors.
type Renderer interface {
	Paint(c env.Coord, kind Cell)
	Erase(c env.Coord)
	Status(line string)
	Flush()
}

// InputKind enumerates the controls a user has during training
type InputKind int

const (
	InputQuit InputKind = iota
	InputPause
	InputFaster
	InputSlower
	InputSteer
)

// InputEvent is a single user request. Action is set for InputSteer.
type InputEvent struct {
	Kind   InputKind
	Action env.Action
}

// Input hands over pending user requests without blocking
type Input interface {
	Poll() []InputEvent
}

// Sink receives a report after every finished episode and once more, with
// Final set, when the run ends
type Sink interface {
	Episode(r Report)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(r Report)

func (f SinkFunc) Episode(r Report) { f(r) }

// NopRenderer draws nothing
type NopRenderer struct{}

func (NopRenderer) Paint(env.Coord, Cell) {}
func (NopRenderer) Erase(env.Coord) {}
func (NopRenderer) Status(string) {}
func (NopRenderer) Flush() {}

// NopInput never has anything to say
type NopInput struct{}

func (NopInput) Poll() []InputEvent { return nil }

// ScriptedInput replays a fixed list of events, one batch per poll
type ScriptedInput struct {
	Batches [][]InputEvent
}

func (s *ScriptedInput) Poll() []InputEvent {
	if len(s.Batches) == 0 {
		return nil
	}
	ev := s.Batches[0]
	s.Batches = s.Batches[1:]
	return ev
}
