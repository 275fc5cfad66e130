package display

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerShouldShow returns true if the spinner should be displayed.
// The spinner is hidden for quiet mode, machine-readable output, or non-TTY
// (piped) output.
func SpinnerShouldShow(quiet, machine, nonTTY bool) bool {
	return !quiet && !machine && !nonTTY
}

// ErrInterrupted is returned when the user presses ctrl+c while the
// spinner is showing.
var ErrInterrupted = errors.New("interrupted")

// WithSpinner shows a spinner labelled label while fn runs and returns fn's
// error.
func WithSpinner(label string, fn func() error) error {
	p := tea.NewProgram(newSpinnerModel(label))

	errc := make(chan error, 1)
	go func() {
		errc <- fn()
		p.Send(spinnerDoneMsg{})
	}()

	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	if sm, ok := m.(spinnerModel); ok && sm.interrupted {
		return ErrInterrupted
	}
	return <-errc
}

type spinnerDoneMsg struct{}

type spinnerModel struct {
	spinner     spinner.Model
	label       string
	done        bool
	interrupted bool
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return spinnerModel{spinner: s, label: label}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	// The spinner is transient; nothing remains once it finishes.
	if m.done || m.interrupted {
		return ""
	}
	return m.spinner.View() + " " + m.label
}
