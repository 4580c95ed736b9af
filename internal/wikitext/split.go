package wikitext

import (
	"fmt"
	"regexp"
	"strings"
)

// IntroductionTitle is the synthetic title of the span before the first heading.
const IntroductionTitle = "Introduction"

// headingMarkerPattern matches any heading line: a run of 2-6 '=' at the
// start of a line.
var headingMarkerPattern = regexp.MustCompile(`(?m)^={2,6}`)

// HeadingDescriptor describes one heading as reported by the parse API.
// ByteOffset is approximate and may be -1 when unknown.
type HeadingDescriptor struct {
	Level      int    `json:"level" yaml:"level"`
	Title      string `json:"title" yaml:"title"`
	ByteOffset int    `json:"byteOffset" yaml:"byte_offset"`
}

// Section is one contiguous span of cleaned article text.
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Level   int    `json:"level" yaml:"level"`
	Content string `json:"content" yaml:"content"`
}

// splitState holds the per-call cursor and accumulated output.
type splitState struct {
	raw      string
	headings []HeadingDescriptor
	cursor   int
	sections []Section
}

// Split reconstructs the ordered sections of an article from its raw markup
// and the heading descriptors reported for it. Heading lines are located by
// exact text search from a moving cursor; when a heading cannot be found the
// cursor is advanced using the declared byte offsets and that heading is
// skipped.
func Split(raw string, headings []HeadingDescriptor) []Section {
	st := &splitState{raw: raw, headings: headings}
	st.introduction()
	for i := range headings {
		st.heading(i)
	}
	return st.sections
}

func (st *splitState) introduction() {
	end := len(st.raw)
	if loc := headingMarkerPattern.FindStringIndex(st.raw); loc != nil {
		end = loc[0]
	}
	st.emit(IntroductionTitle, 1, st.raw[:end])
	st.cursor = end
}

func (st *splitState) heading(i int) {
	h := st.headings[i]
	loc := st.find(h, st.cursor)
	if loc == nil {
		st.recover(i)
		return
	}

	start := loc[1]
	end := st.contentEnd(i, start)
	st.emit(h.Title, h.Level, st.raw[start:end])
	st.cursor = end
}

// contentEnd returns where the body starting at start stops: at the next
// descriptor's heading line, else at any heading marker, else at the end.
func (st *splitState) contentEnd(i, start int) int {
	if i+1 < len(st.headings) {
		if loc := st.find(st.headings[i+1], start); loc != nil {
			return loc[0]
		}
	}
	if loc := headingMarkerPattern.FindStringIndex(st.raw[start:]); loc != nil {
		return start + loc[0]
	}
	return len(st.raw)
}

// recover advances the cursor past a heading that could not be located.
func (st *splitState) recover(i int) {
	if off := st.clamp(st.headings[i].ByteOffset); off > st.cursor {
		st.cursor = off
		return
	}
	if i+1 < len(st.headings) {
		if off := st.clamp(st.headings[i+1].ByteOffset); off > st.cursor {
			st.cursor = off
		}
	}
}

// find locates the heading line for h at or after from, returning absolute
// [start, end) offsets of the line without its trailing newline.
func (st *splitState) find(h HeadingDescriptor, from int) []int {
	if from > len(st.raw) {
		return nil
	}
	loc := headingPattern(h).FindStringIndex(st.raw[from:])
	if loc == nil {
		return nil
	}
	return []int{from + loc[0], from + loc[1]}
}

func (st *splitState) clamp(off int) int {
	if off < 0 {
		return -1
	}
	if off > len(st.raw) {
		return len(st.raw)
	}
	return off
}

func (st *splitState) emit(title string, level int, span string) {
	content := Clean(span)
	if content == "" {
		return
	}
	st.sections = append(st.sections, Section{Title: title, Level: level, Content: content})
}

// headingPattern builds the line pattern for an exact heading, e.g.
// "== Mechanism ==" for level 2.
func headingPattern(h HeadingDescriptor) *regexp.Regexp {
	level := h.Level
	if level < 1 {
		level = 1
	}
	eq := strings.Repeat("=", level)
	expr := fmt.Sprintf(`(?m)^%s[ \t]*%s[ \t]*%s[ \t\r]*$`, eq, regexp.QuoteMeta(strings.TrimSpace(h.Title)), eq)
	return regexp.MustCompile(expr)
}
