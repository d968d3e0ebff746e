package toast

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

type styles struct {
	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	faded   lipgloss.Style
	link    lipgloss.Style
	hint    lipgloss.Style
}

func newStyles() styles {
	return styles{
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		info:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		faded:   lipgloss.NewStyle().Faint(true),
		link:    lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("75")),
		hint:    lipgloss.NewStyle().Faint(true).Italic(true),
	}
}

func (s styles) kind(kind domain.ToastKind) lipgloss.Style {
	switch kind {
	case domain.ToastSuccess:
		return s.success
	case domain.ToastError:
		return s.failure
	case domain.ToastWarning:
		return s.warning
	default:
		return s.info
	}
}
