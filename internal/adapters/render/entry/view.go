// Package entry renders a knowledge base entry for the terminal. The
// description arrives as an HTML fragment; sections are split on their
// heading boundaries and shown either expanded or as a heading outline.
package entry

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// Options controls how an entry page is laid out.
type Options struct {
	// Collapsed renders only section headings, mirroring a folded page.
	Collapsed bool
}

// Render produces the full terminal page for an entry.
func Render(e domain.Entry, opts Options) string {
	s := newStyles()

	blocks := []string{s.title.Render(e.Title)}

	for sec := range domain.Sections(e.Description) {
		blocks = append(blocks, renderSection(s, sec, opts.Collapsed))
	}

	if meta := renderMeta(s, e); meta != "" {
		blocks = append(blocks, meta)
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderSection(s styles, sec domain.Section, collapsed bool) string {
	heading := strings.TrimSpace(stripTags(sec.Header))
	body := strings.TrimSpace(stripTags(sec.Body))

	switch {
	case heading == "" && body == "":
		return ""
	case heading == "":
		// Leading fragment before the first heading has no fold of its own.
		return s.section.Render(s.body.Render(body))
	case collapsed || body == "":
		return s.section.Render(s.marker.Render("▸ ") + s.header.Render(heading))
	default:
		return s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			s.marker.Render("▾ ")+s.header.Render(heading),
			s.body.Render(body),
		))
	}
}

func renderMeta(s styles, e domain.Entry) string {
	var parts []string
	if created := formatDate(e.DateCreated); created != "" {
		parts = append(parts, s.meta.Render("created "+created))
	}
	if updated := formatDate(e.DateUpdated); updated != "" {
		parts = append(parts, s.meta.Render("updated "+updated))
	}
	if len(e.Related) > 0 {
		refs := make([]string, 0, len(e.Related))
		for _, r := range e.Related {
			refs = append(refs, s.tag.Render(r.Slug))
		}
		parts = append(parts, s.meta.Render("related ")+strings.Join(refs, " "))
	}
	if len(parts) == 0 {
		return ""
	}
	return s.section.Render(strings.Join(parts, s.meta.Render("  ·  ")))
}

func formatDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return raw
}

// stripTags removes HTML tags and decodes entities so fragments read as
// plain text. Block-level closers become line breaks to keep paragraph
// structure legible.
func stripTags(fragment string) string {
	var b strings.Builder
	b.Grow(len(fragment))

	inTag := false
	var tag strings.Builder
	for _, r := range fragment {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
				if isBlockBreak(tag.String()) {
					b.WriteByte('\n')
				}
				tag.Reset()
			} else {
				tag.WriteRune(r)
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}

	out := html.UnescapeString(b.String())
	lines := strings.Split(out, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

func isBlockBreak(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, name := range []string{"/p", "/div", "/li", "/ul", "/ol", "br", "br/", "br /"} {
		if tag == name {
			return true
		}
	}
	return false
}

// Summary renders a one-line listing row for an entry reference.
func Summary(ref domain.EntryRef) string {
	s := newStyles()
	return fmt.Sprintf("%s  %s", s.tag.Render(ref.Slug), ref.Title)
}
