package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stackgnosis/sg-cli/internal/adapters/channel"
	"github.com/stackgnosis/sg-cli/internal/adapters/render/toast"
	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the live notification channel",
		Long:  "Watch the live notification channel. Incoming notifications appear as transient toasts; press r to reconnect after a dropped channel, q to quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}
			if !app.session.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}

			// Subscribe before the channel opens so the greeting push is
			// not dropped.
			snapshots, unsubscribe := app.bus.Subscribe()
			defer unsubscribe()

			opener, err := channel.NewOpener(app.wsURL, app.bus, app.logger)
			if err != nil {
				return err
			}
			if err := app.session.AttachChannelOpener(ctx, opener); err != nil {
				return err
			}
			defer app.session.Close()

			p := tea.NewProgram(
				newWatchModel(app, snapshots),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithContext(ctx),
			)

			// A logout (forced or explicit) ends the watch; the model
			// shows the channel's final state and a login hint.
			app.session.SetLogoutHook(func() { p.Send(sessionEndedMsg{}) })
			defer app.session.SetLogoutHook(nil)

			_, err = p.Run()
			return err
		},
	}
}

type toastsMsg []domain.Toast

type sessionEndedMsg struct{}

type stateTickMsg struct{}

type reconnectDoneMsg struct {
	err error
}

type watchModel struct {
	app       *app
	snapshots <-chan []domain.Toast

	toasts  []domain.Toast
	state   ports.ChannelState
	lastErr error
	ended   bool

	headerStyle lipgloss.Style
	hintStyle   lipgloss.Style
}

func newWatchModel(app *app, snapshots <-chan []domain.Toast) watchModel {
	return watchModel{
		app:         app,
		snapshots:   snapshots,
		state:       app.session.ChannelState(),
		headerStyle: lipgloss.NewStyle().Bold(true),
		hintStyle:   lipgloss.NewStyle().Faint(true),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(waitForToasts(m.snapshots), stateTick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case toastsMsg:
		m.toasts = msg
		return m, waitForToasts(m.snapshots)
	case sessionEndedMsg:
		m.ended = true
		m.state = m.app.session.ChannelState()
		return m, tea.Quit
	case stateTickMsg:
		m.state = m.app.session.ChannelState()
		return m, stateTick()
	case reconnectDoneMsg:
		m.lastErr = msg.err
		m.state = m.app.session.ChannelState()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.reconnect()
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	lines := []string{
		m.headerStyle.Render(fmt.Sprintf("notification channel: %s", m.state)),
	}
	if m.lastErr != nil {
		lines = append(lines, m.hintStyle.Render("reconnect failed: "+m.lastErr.Error()))
	}
	if stack := toast.Render(m.toasts); stack != "" {
		lines = append(lines, stack)
	}
	if m.ended {
		lines = append(lines, m.hintStyle.Render("session ended, run sg login to sign in again"))
	} else {
		lines = append(lines, m.hintStyle.Render("q quit · r reconnect"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m watchModel) reconnect() tea.Cmd {
	session := m.app.session
	return func() tea.Msg {
		return reconnectDoneMsg{err: session.Reconnect(context.Background())}
	}
}

func waitForToasts(snapshots <-chan []domain.Toast) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snapshots
		if !ok {
			return nil
		}
		return toastsMsg(snap)
	}
}

func stateTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return stateTickMsg{}
	})
}
