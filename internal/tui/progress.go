// Package tui renders rebase progress to an interactive terminal.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"rebasepr.dev/rebasepr/internal/rebase"
)

// IsTTY reports whether stdin and stdout are both terminals, so the caller
// can choose the interactive progress model over a plain log.
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

// RunProgress drives the interactive progress model to completion, reading
// updates off the channel until it is closed.
func RunProgress(updates <-chan rebase.ProgressUpdate) error {
	m := NewProgressModel(updates)
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	_, err := p.Run()
	return err
}

type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepFailed
)

type step struct {
	item   rebase.ReplayItem
	status stepStatus
	err    error
}

// ProgressModel is a bubbletea model that renders the state of each plan
// item as the replay engine works through it.
type ProgressModel struct {
	steps    []step
	spinner  spinner.Model
	updates  <-chan rebase.ProgressUpdate
	quitting bool
	done     bool
	failed   bool

	pendingStyle lipgloss.Style
	runningStyle lipgloss.Style
	doneStyle    lipgloss.Style
	failedStyle  lipgloss.Style
}

// NewProgressModel creates a model that consumes updates from the given
// channel. Its step list grows to match the Total carried by the first
// update, since the plan size isn't known until replay starts. The caller is
// responsible for closing updates once the rebase completes so the program
// can exit.
func NewProgressModel(updates <-chan rebase.ProgressUpdate) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ProgressModel{
		spinner:      s,
		updates:      updates,
		pendingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		runningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		doneStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		failedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m ProgressModel) poll() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		select {
		case update, ok := <-m.updates:
			if !ok {
				return doneMsg{}
			}
			return update
		default:
			return nil
		}
	})
}

type doneMsg struct{}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(cmd, m.poll())
	case rebase.ProgressUpdate:
		if len(m.steps) < msg.Total {
			grown := make([]step, msg.Total)
			copy(grown, m.steps)
			m.steps = grown
		}
		if msg.Index < len(m.steps) {
			m.steps[msg.Index].item = msg.Item
			switch msg.Status {
			case rebase.StatusRunning:
				m.steps[msg.Index].status = stepRunning
			case rebase.StatusDone:
				m.steps[msg.Index].status = stepDone
			case rebase.StatusFailed:
				m.steps[msg.Index].status = stepFailed
				m.steps[msg.Index].err = msg.Err
				m.failed = true
			}
		}
		return m, m.poll()
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("Rebasing:\n\n")
	for _, s := range m.steps {
		var icon, label string
		switch s.status {
		case stepPending:
			icon = m.pendingStyle.Render("○")
		case stepRunning:
			icon = m.spinner.View()
		case stepDone:
			icon = m.doneStyle.Render("✓")
		case stepFailed:
			icon = m.failedStyle.Render("✗")
		}

		switch s.item.Action {
		case rebase.Pick:
			label = s.item.Subject
		default:
			label = fmt.Sprintf("%s %s", s.item.Action, s.item.Subject)
		}

		b.WriteString(fmt.Sprintf("%s %s\n", icon, label))
		if s.status == stepFailed && s.err != nil {
			b.WriteString(m.failedStyle.Render(fmt.Sprintf("    %v\n", s.err)))
		}
	}

	if m.done && !m.failed {
		b.WriteString(m.doneStyle.Render("\nrebase complete\n"))
	}

	return b.String()
}
