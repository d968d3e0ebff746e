package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fetchDoneMsg struct {
	err error
}

// fetchSpinnerModel animates a one-line wait indicator until the fetch
// command reports back, then quits and leaves the frame blank so the
// command's real output starts on a clean line.
type fetchSpinnerModel struct {
	spinner spinner.Model
	label   string
	fetch   tea.Cmd
	err     error
	done    bool
}

var fetchLabelStyle = lipgloss.NewStyle().Faint(true)

func (m fetchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m fetchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fetchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m fetchSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return m.spinner.View() + " " + fetchLabelStyle.Render(m.label)
}

// runFetchSpinner shows the indicator while fetch runs and returns the
// fetch error once it settles.
func runFetchSpinner(ctx context.Context, output io.Writer, label string, fetch func(context.Context) error) error {
	model := fetchSpinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("75"))),
		),
		label: label,
		fetch: func() tea.Msg {
			return fetchDoneMsg{err: fetch(ctx)}
		},
	}

	p := tea.NewProgram(
		model,
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	settled, ok := finalModel.(fetchSpinnerModel)
	if !ok {
		return fmt.Errorf("spinner finished with unexpected model %T", finalModel)
	}

	return settled.err
}
