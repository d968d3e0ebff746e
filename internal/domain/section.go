package domain

import (
	"iter"
	"slices"
	"strings"
)

const (
	sectionOpenTag  = "<h3>"
	sectionCloseTag = "</h3>"
)

// Section is one header/body pair cut from an entry description, in
// document order. Both fields are raw HTML fragments; rendering safety is
// the consumer's concern.
type Section struct {
	Header string
	Body   string
}

// Sections splits an HTML description into collapsible header/body pairs.
// A fragment boundary sits immediately before each "<h3>" opening tag, so
// text preceding the first heading becomes a headerless leading fragment.
// Within a fragment the header runs through the first "</h3>" and the body
// is everything after it, verbatim; stray later closing tags are not
// re-split. A fragment with no closing tag is all body. The sequence is
// lazy, finite and restartable; an empty description yields no sections.
func Sections(description string) iter.Seq[Section] {
	return func(yield func(Section) bool) {
		rest := description
		for rest != "" {
			fragment := rest
			// Look for the next opener past position 0 so a fragment that
			// itself starts with "<h3>" stays whole.
			if i := strings.Index(rest[1:], sectionOpenTag); i >= 0 {
				fragment = rest[:i+1]
				rest = rest[i+1:]
			} else {
				rest = ""
			}
			if !yield(splitSection(fragment)) {
				return
			}
		}
	}
}

// SplitSections collects Sections into a slice.
func SplitSections(description string) []Section {
	return slices.Collect(Sections(description))
}

func splitSection(fragment string) Section {
	i := strings.Index(fragment, sectionCloseTag)
	if i < 0 {
		return Section{Body: fragment}
	}
	cut := i + len(sectionCloseTag)
	return Section{Header: fragment[:cut], Body: fragment[cut:]}
}
