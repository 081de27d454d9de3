package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"snakerl/internal/train"
)

const (
	recentEpisodes = 10
	sparkWidth     = 48
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Dashboard is a train.Sink feeding a live terminal view
type Dashboard struct {
	updates chan train.Report
	stop    func()
}

// New creates a dashboard. stop is called when the user quits the view.
func New(stop func()) *Dashboard {
	return &Dashboard{
		updates: make(chan train.Report, 256),
		stop:    stop,
	}
}

// Episode forwards r to the view, dropping it if the view is behind. The
// final report is never dropped.
func (d *Dashboard) Episode(r train.Report) {
	if r.Final {
		select {
		case d.updates <- r:
		case <-time.After(time.Second):
		}
		return
	}
	select {
	case d.updates <- r:
	default:
	}
}

// Run shows the view until training ends or the user quits
func (d *Dashboard) Run() error {
	p := tea.NewProgram(initialModel(d.updates, d.stop), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type model struct {
	latest    train.Report
	scores    []int
	recent    []string
	startTime time.Time
	done      bool
	updates   chan train.Report
	stop      func()
}

func initialModel(updates chan train.Report, stop func()) model {
	return model{
		startTime: time.Now(),
		updates:   updates,
		stop:      stop,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan train.Report) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			if m.stop != nil {
				m.stop()
			}
			return m, tea.Quit
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case train.Report:
		m.latest = msg
		if msg.Final {
			m.done = true
			return m, tea.Quit
		}
		m.scores = append(m.scores, msg.Last.Score)
		if len(m.scores) > sparkWidth {
			m.scores = m.scores[len(m.scores)-sparkWidth:]
		}
		line := fmt.Sprintf("Ep %d: score %d, steps %d, return %.2f, %s",
			msg.Last.Episode, msg.Last.Score, msg.Last.Steps, msg.Last.Return, msg.Last.Outcome)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > recentEpisodes {
			m.recent = m.recent[:recentEpisodes]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	r := m.latest
	duration := time.Since(m.startTime)
	epsPerSec := float64(r.Episodes) / duration.Seconds()
	if duration.Seconds() < 1 {
		epsPerSec = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Agent:          %s\n", r.Agent)
	fmt.Fprintf(&b, "Episodes:       %d\n", r.Episodes)
	fmt.Fprintf(&b, "Best Score:     %d (episode %d)\n", r.BestScore, r.BestEpisode)
	fmt.Fprintf(&b, "Mean Score:     %.2f (var %.2f)\n", r.Mean, r.Variance)
	fmt.Fprintf(&b, "Epsilon:        %.4f\n", r.FinalEpsilon)
	fmt.Fprintf(&b, "States:         %d\n", r.States)
	fmt.Fprintf(&b, "Duration:       %s\n", duration.Round(time.Second))
	fmt.Fprintf(&b, "Episodes/Sec:   %.2f\n\n", epsPerSec)

	b.WriteString("Outcomes:       ")
	names := make([]string, 0, len(r.Outcomes))
	for name := range r.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%d ", name, r.Outcomes[name])
	}
	b.WriteString("\n\n")

	b.WriteString("Scores:         " + sparkline(m.scores) + "\n\n")

	b.WriteString("Recent Episodes:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}

	if m.done {
		b.WriteString("\nTraining finished.\n")
	} else {
		b.WriteString("\nPress q to stop training.\n")
	}
	return b.String()
}

// sparkline scales scores to block heights relative to the largest one
func sparkline(scores []int) string {
	if len(scores) == 0 {
		return ""
	}
	top := 0
	for _, s := range scores {
		top = max(top, s)
	}
	out := make([]rune, len(scores))
	for i, s := range scores {
		idx := 0
		if top > 0 {
			idx = s * (len(sparkRunes) - 1) / top
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}
