package entry

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	marker  lipgloss.Style
	body    lipgloss.Style
	meta    lipgloss.Style
	tag     lipgloss.Style
	section lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		header:  lipgloss.NewStyle().Bold(true),
		marker:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		body:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		section: lipgloss.NewStyle().MarginTop(1),
	}
}
