package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"snakerl/internal/env"
	"snakerl/internal/train"
)

// Each grid cell is drawn two terminal columns wide so it looks square
const cellWidth = 2

// Screen draws the world in a terminal and turns key presses into
// training controls. It implements train.Renderer and train.Input.
type Screen struct {
	screen tcell.Screen
	grid   env.Grid
	events chan tcell.Event
	styles map[train.Cell]tcell.Style
	border tcell.Style
}

// Open takes over the terminal
func Open(g env.Grid) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return New(s, g), nil
}

// New wraps an initialised tcell screen
func New(s tcell.Screen, g env.Grid) *Screen {
	sc := &Screen{
		screen: s,
		grid:   g,
		events: make(chan tcell.Event, 100),
		styles: map[train.Cell]tcell.Style{
			train.CellHead: tcell.StyleDefault.Foreground(tcell.ColorLime),
			train.CellBody: tcell.StyleDefault.Foreground(tcell.ColorGreen),
			train.CellFood: tcell.StyleDefault.Foreground(tcell.ColorRed),
		},
		border: tcell.StyleDefault.Foreground(tcell.ColorGray),
	}
	s.HideCursor()
	s.Clear()
	sc.drawBorder()

	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				close(sc.events)
				return
			}
			sc.events <- ev
		}
	}()
	return sc
}

// Close restores the terminal
func (s *Screen) Close() {
	s.screen.Fini()
}

// origin maps a world coordinate to its terminal cell. Row 0 holds the
// status line and the border takes one more row and column.
func (s *Screen) origin(c env.Coord) (int, int) {
	return 1 + (c.X/s.grid.Cell)*cellWidth, 2 + c.Y/s.grid.Cell
}

func (s *Screen) drawBorder() {
	w := s.grid.Columns()*cellWidth + 2
	h := s.grid.Rows() + 2
	for x := 0; x < w; x++ {
		s.screen.SetContent(x, 1, '─', nil, s.border)
		s.screen.SetContent(x, h, '─', nil, s.border)
	}
	for y := 1; y <= h; y++ {
		s.screen.SetContent(0, y, '│', nil, s.border)
		s.screen.SetContent(w-1, y, '│', nil, s.border)
	}
	s.screen.SetContent(0, 1, '┌', nil, s.border)
	s.screen.SetContent(w-1, 1, '┐', nil, s.border)
	s.screen.SetContent(0, h, '└', nil, s.border)
	s.screen.SetContent(w-1, h, '┘', nil, s.border)
}

func (s *Screen) Paint(c env.Coord, kind train.Cell) {
	x, y := s.origin(c)
	r := '█'
	if kind == train.CellFood {
		r = '●'
	}
	style := s.styles[kind]
	for i := 0; i < cellWidth; i++ {
		s.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (s *Screen) Erase(c env.Coord) {
	x, y := s.origin(c)
	for i := 0; i < cellWidth; i++ {
		s.screen.SetContent(x+i, y, ' ', nil, tcell.StyleDefault)
	}
}

func (s *Screen) Status(line string) {
	w, _ := s.screen.Size()
	col := 0
	for _, r := range line {
		if col >= w {
			break
		}
		s.screen.SetContent(col, 0, r, nil, tcell.StyleDefault.Bold(true))
		col++
	}
	for ; col < w; col++ {
		s.screen.SetContent(col, 0, ' ', nil, tcell.StyleDefault)
	}
}

func (s *Screen) Flush() {
	s.screen.Show()
}

// Poll returns the controls pressed since the last call without blocking
func (s *Screen) Poll() []train.InputEvent {
	var out []train.InputEvent
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return append(out, train.InputEvent{Kind: train.InputQuit})
			}
			if in, ok := translate(ev); ok {
				out = append(out, in)
			}
		default:
			return out
		}
	}
}

func translate(ev tcell.Event) (train.InputEvent, bool) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return train.InputEvent{}, false
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return train.InputEvent{Kind: train.InputQuit}, true
	case tcell.KeyUp:
		return train.InputEvent{Kind: train.InputSteer, Action: env.ActionUp}, true
	case tcell.KeyDown:
		return train.InputEvent{Kind: train.InputSteer, Action: env.ActionDown}, true
	case tcell.KeyLeft:
		return train.InputEvent{Kind: train.InputSteer, Action: env.ActionLeft}, true
	case tcell.KeyRight:
		return train.InputEvent{Kind: train.InputSteer, Action: env.ActionRight}, true
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return train.InputEvent{Kind: train.InputQuit}, true
		case 'p', ' ':
			return train.InputEvent{Kind: train.InputPause}, true
		case '+', '=':
			return train.InputEvent{Kind: train.InputFaster}, true
		case '-':
			return train.InputEvent{Kind: train.InputSlower}, true
		}
	}
	return train.InputEvent{}, false
}
