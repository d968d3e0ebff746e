package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsEmptyDescription(t *testing.T) {
	assert.Empty(t, SplitSections(""))
}

func TestSectionsNoHeadings(t *testing.T) {
	input := "<p>plain prose with <b>markup</b> but no headings</p>"

	sections := SplitSections(input)

	require.Len(t, sections, 1)
	assert.Equal(t, "", sections[0].Header)
	assert.Equal(t, input, sections[0].Body)
}

func TestSectionsHeaderBodyPairs(t *testing.T) {
	sections := SplitSections("<h3>A</h3>body1<h3>B</h3>body2")

	require.Equal(t, []Section{
		{Header: "<h3>A</h3>", Body: "body1"},
		{Header: "<h3>B</h3>", Body: "body2"},
	}, sections)
}

func TestSectionsHeaderlessLeadingFragment(t *testing.T) {
	sections := SplitSections("intro text<h3>First</h3>body")

	require.Len(t, sections, 2)
	assert.Equal(t, Section{Header: "", Body: "intro text"}, sections[0])
	assert.Equal(t, Section{Header: "<h3>First</h3>", Body: "body"}, sections[1])
}

func TestSectionsOpenerWithoutCloserIsAllBody(t *testing.T) {
	sections := SplitSections("<h3>never closed")

	require.Len(t, sections, 1)
	assert.Equal(t, "", sections[0].Header)
	assert.Equal(t, "<h3>never closed", sections[0].Body)
}

func TestSectionsStrayClosingTagStaysInBody(t *testing.T) {
	// Only the first closing tag ends the header; later ones pass through.
	sections := SplitSections("<h3>A</h3>x</h3>y")

	require.Len(t, sections, 1)
	assert.Equal(t, "<h3>A</h3>", sections[0].Header)
	assert.Equal(t, "x</h3>y", sections[0].Body)
}

func TestSectionsCountMatchesHeadingPairs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "one pair", input: "<h3>A</h3>", want: 1},
		{name: "two pairs", input: "<h3>A</h3>x<h3>B</h3>y", want: 2},
		{name: "three pairs no bodies", input: "<h3>A</h3><h3>B</h3><h3>C</h3>", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := SplitSections(tt.input)
			require.Len(t, sections, tt.want)
			for _, s := range sections {
				assert.Equal(t, 1, strings.Count(s.Header, "<h3>"))
				assert.Equal(t, 1, strings.Count(s.Header, "</h3>"))
			}
		})
	}
}

func TestSectionsRoundTripReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"no headings at all",
		"<h3>A</h3>body1<h3>B</h3>body2",
		"lead-in<h3>A</h3><h3>B</h3>tail",
		"<h3>open only",
		"<h3>A</h3>x</h3>y<h3>B</h3>",
	}

	for _, input := range inputs {
		var rebuilt strings.Builder
		for section := range Sections(input) {
			rebuilt.WriteString(section.Header)
			rebuilt.WriteString(section.Body)
		}
		assert.Equal(t, input, rebuilt.String())
	}
}

func TestSectionsSequenceIsRestartable(t *testing.T) {
	seq := Sections("<h3>A</h3>body1<h3>B</h3>body2")

	var first, second []Section
	for s := range seq {
		first = append(first, s)
	}
	for s := range seq {
		second = append(second, s)
	}

	assert.Equal(t, first, second)
}

func TestSectionsEarlyBreakStopsIteration(t *testing.T) {
	var got []Section
	for s := range Sections("<h3>A</h3>x<h3>B</h3>y<h3>C</h3>z") {
		got = append(got, s)
		if len(got) == 2 {
			break
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, "<h3>A</h3>", got[0].Header)
	assert.Equal(t, "<h3>B</h3>", got[1].Header)
}
