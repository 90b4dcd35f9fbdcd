package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gatekeep/gatekeep/internal/domain"
	prog "github.com/gatekeep/gatekeep/internal/domain/progress"
)

type checkEventMsg prog.Event

type progressDoneMsg struct{}

// EventMsg wraps a sink event as a bubbletea message.
func EventMsg(ev prog.Event) tea.Msg { return checkEventMsg(ev) }

// ProgressModel is the live view of a running plan.
type ProgressModel struct {
	spinner spinner.Model
	bar     progress.Model
	states  map[string]domain.CheckState
	order   []string
	total   int
	done    int
	failed  int
	quit    bool
}

// NewProgressModel creates a model expecting total checks.
func NewProgressModel(total int) ProgressModel {
	return ProgressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(warnStyle)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		states:  make(map[string]domain.CheckState),
		total:   total,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkEventMsg:
		m.apply(prog.Event(msg))
		return m, nil
	case progressDoneMsg:
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) apply(ev prog.Event) {
	prev, seen := m.states[ev.Check]
	if !seen {
		m.order = append(m.order, ev.Check)
	}
	m.states[ev.Check] = ev.To
	if ev.To.IsTerminal() && !prev.IsTerminal() {
		m.done++
		if ev.To == domain.StateFailed {
			m.failed++
		}
	}
}

// Done reports how many checks reached a terminal state.
func (m ProgressModel) Done() int { return m.done }

func (m ProgressModel) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	fmt.Fprintf(&b, "  %s %s %s\n", m.spinner.View(), m.bar.ViewAs(pct),
		dimStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	if m.failed > 0 {
		fmt.Fprintf(&b, "  %s\n", failStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	var running []string
	for _, name := range m.order {
		if m.states[name] == domain.StateRunning {
			running = append(running, name)
		}
	}
	if len(running) > 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("running: "+strings.Join(running, ", ")))
	}
	return b.String()
}

// ShowProgress renders live progress for sink on out until the returned
// stop function is called.
func ShowProgress(sink *prog.Sink, total int, out io.Writer) (stop func()) {
	p := tea.NewProgram(NewProgressModel(total), tea.WithOutput(out), tea.WithInput(nil))
	sink.Subscribe(func(ev prog.Event) { p.Send(EventMsg(ev)) })

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = p.Run()
	}()
	return func() {
		p.Send(progressDoneMsg{})
		<-finished
	}
}
