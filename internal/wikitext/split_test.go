package wikitext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const osmosisMarkup = `{{Short description|Diffusion of water}}
'''Osmosis''' is the net movement of [[solvent]] molecules through a [[semipermeable membrane|membrane]].<ref>Smith 2001</ref>

== Mechanism ==
Water moves toward the region of higher [[solute]] concentration.

=== Pressure ===
The pressure needed to stop the flow is the ''osmotic pressure''.

== Applications ==
Osmosis is used in [[desalination]] and food preservation.
[[Category:Physical chemistry]]
`

func descriptor(raw string, level int, title string) HeadingDescriptor {
	line := strings.Repeat("=", level) + " " + title + " " + strings.Repeat("=", level)
	return HeadingDescriptor{Level: level, Title: title, ByteOffset: strings.Index(raw, line)}
}

func titles(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Title
	}
	return out
}

func TestSplit_MatchingHeadings(t *testing.T) {
	headings := []HeadingDescriptor{
		descriptor(osmosisMarkup, 2, "Mechanism"),
		descriptor(osmosisMarkup, 3, "Pressure"),
		descriptor(osmosisMarkup, 2, "Applications"),
	}

	sections := Split(osmosisMarkup, headings)

	require.Len(t, sections, 4)
	assert.Equal(t, []string{IntroductionTitle, "Mechanism", "Pressure", "Applications"}, titles(sections))
	assert.Equal(t, []int{1, 2, 3, 2}, []int{sections[0].Level, sections[1].Level, sections[2].Level, sections[3].Level})
	assert.Equal(t, "Osmosis is the net movement of solvent molecules through a membrane.", sections[0].Content)
	assert.Equal(t, "Water moves toward the region of higher solute concentration.", sections[1].Content)
	assert.Equal(t, "The pressure needed to stop the flow is the osmotic pressure.", sections[2].Content)
	assert.Equal(t, "Osmosis is used in desalination and food preservation.", sections[3].Content)
}

func TestSplit_NoHeadings(t *testing.T) {
	sections := Split("Just an [[intro]].\n\nSecond paragraph.", nil)

	require.Len(t, sections, 1)
	assert.Equal(t, IntroductionTitle, sections[0].Title)
	assert.Equal(t, 1, sections[0].Level)
	assert.Equal(t, "Just an intro.\n\nSecond paragraph.", sections[0].Content)
}

func TestSplit_EmptyIntroductionDropped(t *testing.T) {
	raw := "{{Infobox}}\n== Body ==\nText of the body."
	sections := Split(raw, []HeadingDescriptor{descriptor(raw, 2, "Body")})

	require.Len(t, sections, 1)
	assert.Equal(t, "Body", sections[0].Title)
	assert.Equal(t, "Text of the body.", sections[0].Content)
}

func TestSplit_EmptySectionSkippedButCursorAdvances(t *testing.T) {
	raw := "Intro.\n== References ==\n{{reflist}}\n== Notes ==\nA note."
	headings := []HeadingDescriptor{
		descriptor(raw, 2, "References"),
		descriptor(raw, 2, "Notes"),
	}

	sections := Split(raw, headings)

	assert.Equal(t, []string{IntroductionTitle, "Notes"}, titles(sections))
}

func TestSplit_UnlocatableHeadingRecoversByOffset(t *testing.T) {
	headings := []HeadingDescriptor{
		// Title altered after the offset was computed.
		{Level: 2, Title: "Mechanisms", ByteOffset: strings.Index(osmosisMarkup, "== Mechanism ==")},
		descriptor(osmosisMarkup, 3, "Pressure"),
		descriptor(osmosisMarkup, 2, "Applications"),
	}

	var sections []Section
	require.NotPanics(t, func() { sections = Split(osmosisMarkup, headings) })

	assert.Equal(t, []string{IntroductionTitle, "Pressure", "Applications"}, titles(sections))
	assert.Equal(t, "Osmosis is used in desalination and food preservation.", sections[2].Content)
}

func TestSplit_UnlocatableHeadingFallsBackToNextOffset(t *testing.T) {
	raw := "Intro.\n== A ==\nAlpha text.\n== B ==\nBeta text."
	headings := []HeadingDescriptor{
		{Level: 2, Title: "Renamed", ByteOffset: 0},
		{Level: 2, Title: "B", ByteOffset: strings.Index(raw, "== B ==")},
	}

	sections := Split(raw, headings)

	assert.Equal(t, []string{IntroductionTitle, "B"}, titles(sections))
	assert.Equal(t, "Beta text.", sections[1].Content)
}

func TestSplit_UnknownOffsetsLeaveCursor(t *testing.T) {
	raw := "Intro.\n== A ==\nAlpha text.\n== B ==\nBeta text."
	headings := []HeadingDescriptor{
		{Level: 2, Title: "Missing", ByteOffset: -1},
		{Level: 2, Title: "A", ByteOffset: -1},
		{Level: 2, Title: "B", ByteOffset: -1},
	}

	sections := Split(raw, headings)

	assert.Equal(t, []string{IntroductionTitle, "A", "B"}, titles(sections))
	assert.Equal(t, "Alpha text.", sections[1].Content)
}

func TestSplit_OffsetsBeyondDocumentAreClamped(t *testing.T) {
	raw := "Intro.\n== A ==\nAlpha text."
	headings := []HeadingDescriptor{
		{Level: 2, Title: "Gone", ByteOffset: 10_000},
		{Level: 2, Title: "A", ByteOffset: 7},
	}

	var sections []Section
	require.NotPanics(t, func() { sections = Split(raw, headings) })
	assert.Equal(t, []string{IntroductionTitle}, titles(sections))
}

func TestSplit_DuplicateHeadingsFirstOccurrenceWins(t *testing.T) {
	raw := "Intro.\n== History ==\nFirst history.\n== History ==\nSecond history."
	headings := []HeadingDescriptor{
		{Level: 2, Title: "History", ByteOffset: 7},
		{Level: 2, Title: "History", ByteOffset: 37},
	}

	sections := Split(raw, headings)

	require.Len(t, sections, 3)
	assert.Equal(t, "First history.", sections[1].Content)
	assert.Equal(t, "Second history.", sections[2].Content)
}

func TestSplit_NextHeadingMissingStopsAtAnyMarker(t *testing.T) {
	raw := "Intro.\n== A ==\nAlpha text.\n== Not listed ==\nHidden.\n== C ==\nGamma."
	headings := []HeadingDescriptor{
		{Level: 2, Title: "A", ByteOffset: 7},
		{Level: 2, Title: "Renamed C", ByteOffset: -1},
	}

	sections := Split(raw, headings)

	require.Len(t, sections, 2)
	assert.Equal(t, "Alpha text.", sections[1].Content)
}

func TestSplit_MultiByteTitles(t *testing.T) {
	raw := "Überblick über Osmose.\n== Geschichte und Kultur ==\nDie Entdeckung.\n== Anwendungen in der Ernährung ==\nLebensmittel."
	headings := []HeadingDescriptor{
		descriptor(raw, 2, "Geschichte und Kultur"),
		descriptor(raw, 2, "Anwendungen in der Ernährung"),
	}

	sections := Split(raw, headings)

	assert.Equal(t, []string{IntroductionTitle, "Geschichte und Kultur", "Anwendungen in der Ernährung"}, titles(sections))
	assert.Equal(t, "Lebensmittel.", sections[2].Content)
}

func TestSplit_TitleWithRegexMetacharacters(t *testing.T) {
	raw := "Intro.\n== C++ (language) ==\nA language.\n== Uses? ==\nMany."
	headings := []HeadingDescriptor{
		descriptor(raw, 2, "C++ (language)"),
		descriptor(raw, 2, "Uses?"),
	}

	sections := Split(raw, headings)

	assert.Equal(t, []string{IntroductionTitle, "C++ (language)", "Uses?"}, titles(sections))
}

func TestSplit_Reentrant(t *testing.T) {
	headings := []HeadingDescriptor{
		descriptor(osmosisMarkup, 2, "Mechanism"),
		descriptor(osmosisMarkup, 3, "Pressure"),
		descriptor(osmosisMarkup, 2, "Applications"),
	}
	first := Split(osmosisMarkup, headings)
	second := Split(osmosisMarkup, headings)
	assert.Equal(t, first, second)
}
