package config

// Config holds wikitutor configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers" validate:"dive"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Wikipedia    WikipediaCfg              `mapstructure:"wikipedia" yaml:"wikipedia"`
	Explain      ExplainCfg                `mapstructure:"explain" yaml:"explain"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	// Type is "gemini" or "openai" (any OpenAI-compatible endpoint).
	Type  string `mapstructure:"type" yaml:"type" validate:"required,oneof=gemini openai"`
	Model string `mapstructure:"model" yaml:"model"`

	// APIKey supports ${ENV_VAR} syntax.
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`

	// RateLimit is in requests per minute.
	RateLimit      int `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	MaxRetries     int `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty" validate:"gte=0"`

	// SafetyThreshold applies to Gemini only.
	SafetyThreshold string `mapstructure:"safety_threshold" yaml:"safety_threshold,omitempty"`
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
}

// ServerCfg holds the HTTP listen address.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// WikipediaCfg configures the MediaWiki API client.
type WikipediaCfg struct {
	APIURL         string `mapstructure:"api_url" yaml:"api_url" validate:"omitempty,url"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0"`
	RetryDelayMs   int    `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms" validate:"gte=0"`
	ThumbnailSize  int    `mapstructure:"thumbnail_size" yaml:"thumbnail_size" validate:"gte=0"`
}

// ExplainCfg tunes section selection and model calls.
type ExplainCfg struct {
	MaxContentChars int      `mapstructure:"max_content_chars" yaml:"max_content_chars" validate:"gte=0"`
	MinSectionChars int      `mapstructure:"min_section_chars" yaml:"min_section_chars" validate:"gte=0"`
	SkipTitles      []string `mapstructure:"skip_titles" yaml:"skip_titles"`
	Model           string   `mapstructure:"model" yaml:"model,omitempty"`
	Temperature     float64  `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens       int      `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	CallHistory     int      `mapstructure:"call_history" yaml:"call_history" validate:"gte=0"`

	// PromptFiles maps prompt keys to template files that replace the
	// embedded default.
	PromptFiles map[string]string `mapstructure:"prompt_files" yaml:"prompt_files,omitempty"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"gemini": {
				Type:      "gemini",
				Model:     "gemini-2.5-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 60,
				Enabled:   true,
			},
			"openrouter": {
				Type:      "openai",
				Model:     "google/gemini-2.5-flash",
				APIKey:    "${OPENROUTER_API_KEY}",
				BaseURL:   "https://openrouter.ai/api/v1",
				RateLimit: 60,
				Enabled:   true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "gemini",
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Wikipedia: WikipediaCfg{
			APIURL:         "https://en.wikipedia.org/w/api.php",
			TimeoutSeconds: 30,
			MaxRetries:     3,
			RetryDelayMs:   500,
			ThumbnailSize:  500,
		},
		Explain: ExplainCfg{
			MaxContentChars: 7000,
			MinSectionChars: 20,
			SkipTitles: []string{
				"References", "External links", "See also", "Further reading",
				"Notes", "Bibliography", "Sources", "Citations",
			},
			Temperature:    0.4,
			MaxTokens:      8192,
			TimeoutSeconds: 120,
			CallHistory:    100,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
