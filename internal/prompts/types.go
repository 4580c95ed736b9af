// Package prompts manages prompt templates: embedded defaults compiled into
// the binary, with optional operator overrides loaded from files.
//
// Resolution order for a key:
//  1. Override (set from config, e.g. a tuned prompt file)
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries the hash of its text so model call records
// can be traced back to the exact prompt version.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: explain.pedagogy
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Hash       string   `json:"hash" yaml:"hash"`
}
