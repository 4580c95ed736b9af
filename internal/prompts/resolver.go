package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// Resolver resolves prompts with operator overrides.
// Resolution order: override > embedded default
type Resolver struct {
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		logger:    logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each prompt package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// SetOverride replaces the text used for key. The key must be registered
// and the text must parse as a template.
func (r *Resolver) SetOverride(key, text string) error {
	if _, err := Parse(key, text); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.embedded[key]; !ok {
		return fmt.Errorf("prompt not found: %s", key)
	}
	r.overrides[key] = text
	r.logger.Info("prompt override set", "key", key, "hash", HashText(text))
	return nil
}

// ClearOverrides drops every override, restoring the embedded defaults.
func (r *Resolver) ClearOverrides() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = make(map[string]string)
}

// LoadOverrides reads override files keyed by prompt key. Existing overrides
// are replaced as a set; on error none of them change.
func (r *Resolver) LoadOverrides(files map[string]string) error {
	texts := make(map[string]string, len(files))
	for key, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read prompt override %s: %w", key, err)
		}
		texts[key] = string(data)
	}

	r.mu.RLock()
	for key, text := range texts {
		if _, ok := r.embedded[key]; !ok {
			r.mu.RUnlock()
			return fmt.Errorf("prompt not found: %s", key)
		}
		if _, err := Parse(key, text); err != nil {
			r.mu.RUnlock()
			return err
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	r.overrides = texts
	r.mu.Unlock()

	if len(texts) > 0 {
		r.logger.Info("loaded prompt overrides", "count", len(texts))
	}
	return nil
}

// Resolve returns the override for key if one is set, otherwise the
// embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       text,
			Variables:  ExtractVariables(text),
			IsOverride: true,
			Hash:       HashText(text),
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}
	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Render resolves key and executes it against data.
func (r *Resolver) Render(key string, data any) (string, *ResolvedPrompt, error) {
	resolved, err := r.Resolve(key)
	if err != nil {
		return "", nil, err
	}
	text, err := Render(key, resolved.Text, data)
	if err != nil {
		return "", nil, err
	}
	return text, resolved, nil
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
