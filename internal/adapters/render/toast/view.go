package toast

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// Render draws the toast stack in display order. Entries outside their
// visible phase (mounting or fading) are dimmed rather than hidden, the
// terminal stand-in for the CSS transition.
func Render(entries []domain.Toast) string {
	if len(entries) == 0 {
		return ""
	}

	s := newStyles()
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, renderToast(entry, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderToast(entry domain.Toast, s styles) string {
	if !entry.Visible {
		return s.faded.Render(plainToast(entry))
	}

	parts := []string{
		fmt.Sprintf("%s %s", s.kind(entry.Kind).Render(fmt.Sprintf("[%s]", entry.Kind)), entry.Message),
	}
	if entry.Link != nil && entry.Link.URL != "" {
		parts = append(parts, s.link.Render(linkText(entry.Link)))
	}
	if entry.Kind == domain.ToastError {
		parts = append(parts, s.hint.Render("press r to retry"))
	}

	return strings.Join(parts, "  ")
}

// plainToast is the unstyled rendering used for dimmed phases, so the
// faint style applies to the whole line instead of fighting nested
// escape codes.
func plainToast(entry domain.Toast) string {
	parts := []string{fmt.Sprintf("[%s] %s", entry.Kind, entry.Message)}
	if entry.Link != nil && entry.Link.URL != "" {
		parts = append(parts, linkText(entry.Link))
	}
	if entry.Kind == domain.ToastError {
		parts = append(parts, "press r to retry")
	}
	return strings.Join(parts, "  ")
}

func linkText(link *domain.ToastLink) string {
	label := link.Label
	if label == "" {
		label = link.URL
	}
	return fmt.Sprintf("%s <%s>", label, link.URL)
}
