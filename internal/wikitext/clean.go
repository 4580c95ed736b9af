// Package wikitext turns raw MediaWiki markup into learner-readable text and
// splits an article into its introduction and heading-delimited sections.
package wikitext

import (
	"regexp"
	"strings"
)

// maxCleanPasses bounds the fixpoint loop in Clean.
const maxCleanPasses = 8

var (
	commentPattern       = regexp.MustCompile(`(?s)<!--.*?-->`)
	refSelfClosePattern  = regexp.MustCompile(`(?is)<ref\b[^>]*?/\s*>`)
	refPairedPattern     = regexp.MustCompile(`(?is)<ref\b[^>]*>.*?</ref\s*>`)
	innerTemplatePattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	anyTemplatePattern   = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	fileLinkPattern      = regexp.MustCompile(`(?i)\[\[\s*(?:File|Image|Category)\s*:[^\[\]]*(?:\[\[[^\[\]]*\]\][^\[\]]*)*\]\]`)
	pipedLinkPattern     = regexp.MustCompile(`\[\[[^\[\]|]*\|([^\[\]]*)\]\]`)
	plainLinkPattern     = regexp.MustCompile(`\[\[([^\[\]|]*)\]\]`)
	emphasisPattern      = regexp.MustCompile(`'{2,}`)
	blankRunPattern      = regexp.MustCompile(`\n{3,}`)
)

// Clean strips markup noise from a wikitext fragment: comments, references,
// templates, file and category links, link brackets and emphasis quotes.
// Malformed markup degrades to partially cleaned text; Clean never fails.
//
// The passes repeat until the output stops changing, so cleaning already
// cleaned text returns it unchanged.
func Clean(raw string) string {
	text := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanPass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanPass(text string) string {
	text = commentPattern.ReplaceAllString(text, "")
	text = refSelfClosePattern.ReplaceAllString(text, "")
	text = refPairedPattern.ReplaceAllString(text, "")
	text = stripTemplates(text)
	text = fileLinkPattern.ReplaceAllString(text, "")
	text = pipedLinkPattern.ReplaceAllString(text, "$1")
	text = plainLinkPattern.ReplaceAllString(text, "$1")
	text = emphasisPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripTemplates removes nested templates innermost-first, then sweeps any
// unbalanced remainder with a non-greedy match.
func stripTemplates(text string) string {
	for strings.Contains(text, "{{") {
		next := innerTemplatePattern.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return anyTemplatePattern.ReplaceAllString(text, "")
}
