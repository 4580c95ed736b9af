package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds references to LLM clients.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
//
// Providers are configured by name. A provider whose config has no API key
// is still known to the registry (so callers may supply their own key via
// ForCredential) but has no shared client.
type Registry struct {
	mu          sync.RWMutex
	llmClients  map[string]LLMClient
	configs     map[string]LLMProviderConfig
	limiters    map[string]*RateLimiter
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		configs:    make(map[string]LLMProviderConfig),
		limiters:   make(map[string]*RateLimiter),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// UnregisterLLM removes an LLM client by name.
func (r *Registry) UnregisterLLM(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.llmClients, name)
	if r.logger != nil {
		r.logger.Info("unregistered LLM client", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// Default returns the name of the default provider.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// SetDefault sets the name of the default provider.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// HasDefault reports whether the default provider has a shared client.
func (r *Registry) HasDefault() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[r.defaultName]
	return r.defaultName != "" && ok
}

// LimiterStatus returns the state of every provider rate limiter.
func (r *Registry) LimiterStatus() map[string]RateLimiterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]RateLimiterStatus, len(r.limiters))
	for name, l := range r.limiters {
		out[name] = l.Status()
	}
	return out
}

// ForCredential returns a client for provider name (the default when empty).
// With an empty apiKey the shared client is returned. Otherwise a new client
// is built from the provider's config with apiKey substituted; it shares the
// provider's rate limiter but nothing else.
func (r *Registry) ForCredential(ctx context.Context, name, apiKey string) (LLMClient, error) {
	r.mu.RLock()
	if name == "" {
		name = r.defaultName
	}
	cfg, known := r.configs[name]
	shared, hasShared := r.llmClients[name]
	limiter := r.limiters[name]
	r.mu.RUnlock()

	if name == "" {
		return nil, fmt.Errorf("no model provider configured")
	}
	if apiKey == "" {
		if !hasShared {
			return nil, fmt.Errorf("no API key configured for provider %s", name)
		}
		return shared, nil
	}

	if !known {
		// Unconfigured names are accepted when they are a known provider type.
		cfg = LLMProviderConfig{Type: name, Enabled: true}
	}
	cfg.APIKey = apiKey

	client, err := createLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		return NewRateLimitedClient(client, limiter), nil
	}
	return client, nil
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	// Default names the provider used when a request does not pick one.
	Default string

	// LLMProviders maps provider names to their config
	LLMProviders map[string]LLMProviderConfig
}

// LLMProviderConfig matches config.LLMProviderCfg with resolved API key.
type LLMProviderConfig struct {
	Type            string        // "gemini", "openai"
	Model           string        // Model name
	APIKey          string        // Resolved API key
	BaseURL         string        // Optional endpoint override (OpenAI-compatible)
	RateLimit       int           // Requests per minute
	MaxRetries      int           // SDK transport retries
	Timeout         time.Duration // HTTP timeout
	SafetyThreshold string        // Gemini harm block threshold
	Enabled         bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys get a shared client.
func NewRegistryFromConfig(ctx context.Context, cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(ctx, cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(ctx context.Context, cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultName = cfg.Default
	wantLLM := make(map[string]bool)

	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled {
			continue
		}

		prevCfg, hadCfg := r.configs[name]
		r.configs[name] = provCfg

		limiter, ok := r.limiters[name]
		if !ok || limiter.RequestsPerMinute() != effectiveRPM(provCfg.RateLimit) {
			limiter = NewRateLimiter(provCfg.RateLimit)
			r.limiters[name] = limiter
		}

		if provCfg.APIKey == "" {
			continue
		}
		wantLLM[name] = true

		_, hasExisting := r.llmClients[name]
		if hasExisting && hadCfg && prevCfg == provCfg {
			continue
		}

		client, err := createLLMClient(ctx, provCfg)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("failed to create LLM client", "name", name, "type", provCfg.Type, "error", err)
			}
			continue
		}
		r.llmClients[name] = NewRateLimitedClient(client, limiter)
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
			}
		}
	}

	// Remove providers that are no longer configured
	for name := range r.configs {
		if pc, ok := cfg.LLMProviders[name]; !ok || !pc.Enabled {
			delete(r.configs, name)
			delete(r.limiters, name)
		}
	}
	for name := range r.llmClients {
		if !wantLLM[name] {
			delete(r.llmClients, name)
			if r.logger != nil {
				r.logger.Info("unregistered LLM client", "name", name)
			}
		}
	}
}

func effectiveRPM(rpm int) int {
	if rpm <= 0 {
		return DefaultRequestsPerMinute
	}
	return rpm
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(ctx context.Context, cfg LLMProviderConfig) (LLMClient, error) {
	switch cfg.Type {
	case GeminiName:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:          cfg.APIKey,
			DefaultModel:    cfg.Model,
			Timeout:         cfg.Timeout,
			SafetyThreshold: cfg.SafetyThreshold,
		})
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			BaseURL:      cfg.BaseURL,
			MaxRetries:   cfg.MaxRetries,
			Timeout:      cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
}
