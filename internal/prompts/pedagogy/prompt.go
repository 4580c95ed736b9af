// Package pedagogy holds the prompt that turns one article section into a
// structured explanation and a scaffolded quiz.
package pedagogy

import (
	_ "embed"

	"github.com/jackzampolin/wikitutor/internal/prompts"
)

//go:embed prompt.tmpl
var promptTmpl string

// PromptKey identifies the section prompt in a prompts.Resolver.
const PromptKey = "explain.pedagogy"

// DefaultMaxContentChars is how much section text is sent to the model.
const DefaultMaxContentChars = 7000

// defaultSectionTitle is used when a section arrives without a title.
const defaultSectionTitle = "Introduction"

// Data is the template input for the section prompt.
type Data struct {
	SectionTitle string
	PageTitle    string
	Content      string
}

// NewData builds prompt input, truncating content to maxChars runes.
// A non-positive maxChars disables truncation.
func NewData(sectionTitle, content, pageTitle string, maxChars int) Data {
	if sectionTitle == "" {
		sectionTitle = defaultSectionTitle
	}
	if maxChars > 0 {
		if runes := []rune(content); len(runes) > maxChars {
			content = string(runes[:maxChars])
		}
	}
	return Data{SectionTitle: sectionTitle, PageTitle: pageTitle, Content: content}
}

// Prompt returns the embedded template text.
func Prompt() string {
	return promptTmpl
}

// RegisterPrompts registers the section prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        promptTmpl,
		Description: "Section explanation prompt - inquiry question, structured explanation and scaffolded quiz",
	})
}
