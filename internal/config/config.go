package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/wikitutor/internal/explain"
	"github.com/jackzampolin/wikitutor/internal/providers"
	"github.com/jackzampolin/wikitutor/internal/stream"
	"github.com/jackzampolin/wikitutor/internal/wikipedia"
)

// EnvPrefix is prepended to environment overrides, e.g. WIKITUTOR_SERVER_PORT.
const EnvPrefix = "WIKITUTOR"

var (
	envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	validate      = validator.New()
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile searches ./config.yaml then $HOME/.wikitutor/config.yaml;
// a missing file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used to report reload failures.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	defaults := DefaultConfig()
	v.SetDefault("llm_providers", defaults.LLMProviders)
	v.SetDefault("defaults.llm_provider", defaults.Defaults.LLMProvider)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("wikipedia.api_url", defaults.Wikipedia.APIURL)
	v.SetDefault("wikipedia.user_agent", defaults.Wikipedia.UserAgent)
	v.SetDefault("wikipedia.timeout_seconds", defaults.Wikipedia.TimeoutSeconds)
	v.SetDefault("wikipedia.max_retries", defaults.Wikipedia.MaxRetries)
	v.SetDefault("wikipedia.retry_delay_ms", defaults.Wikipedia.RetryDelayMs)
	v.SetDefault("wikipedia.thumbnail_size", defaults.Wikipedia.ThumbnailSize)
	v.SetDefault("explain.max_content_chars", defaults.Explain.MaxContentChars)
	v.SetDefault("explain.min_section_chars", defaults.Explain.MinSectionChars)
	v.SetDefault("explain.skip_titles", defaults.Explain.SkipTitles)
	v.SetDefault("explain.model", defaults.Explain.Model)
	v.SetDefault("explain.temperature", defaults.Explain.Temperature)
	v.SetDefault("explain.max_tokens", defaults.Explain.MaxTokens)
	v.SetDefault("explain.timeout_seconds", defaults.Explain.TimeoutSeconds)
	v.SetDefault("explain.call_history", defaults.Explain.CallHistory)

	// Environment variables with WIKITUTOR_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.wikitutor")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A file that fails to
// load or validate leaves the previous configuration in place.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cm.reload(e.Name)
	})
	cm.v.WatchConfig()
}

func (cm *Manager) reload(source string) {
	cfg, err := cm.load()
	if err != nil {
		cm.mu.RLock()
		logger := cm.logger
		cm.mu.RUnlock()
		logger.Warn("ignoring invalid config change", "file", source, "error", err)
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Validate checks field constraints and that the default provider exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if name := c.Defaults.LLMProvider; name != "" {
		if _, ok := c.LLMProviders[name]; !ok {
			return fmt.Errorf("invalid config: default llm provider %q is not configured", name)
		}
	}
	return nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Default:      c.Defaults.LLMProvider,
		LLMProviders: make(map[string]providers.LLMProviderConfig),
	}

	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:            llm.Type,
			Model:           llm.Model,
			APIKey:          ResolveEnvVars(llm.APIKey),
			BaseURL:         llm.BaseURL,
			RateLimit:       llm.RateLimit,
			MaxRetries:      llm.MaxRetries,
			Timeout:         seconds(llm.TimeoutSeconds),
			SafetyThreshold: llm.SafetyThreshold,
			Enabled:         llm.Enabled,
		}
	}

	return cfg
}

// ToWikipediaConfig converts the wikipedia section for wikipedia.NewClient.
func (c *Config) ToWikipediaConfig() wikipedia.Config {
	return wikipedia.Config{
		APIURL:        c.Wikipedia.APIURL,
		UserAgent:     c.Wikipedia.UserAgent,
		Timeout:       seconds(c.Wikipedia.TimeoutSeconds),
		MaxRetries:    c.Wikipedia.MaxRetries,
		RetryDelay:    time.Duration(c.Wikipedia.RetryDelayMs) * time.Millisecond,
		ThumbnailSize: c.Wikipedia.ThumbnailSize,
	}
}

// ToExplainConfig converts the explain section. The caller supplies the
// prompt resolver, recorder and logger.
func (c *Config) ToExplainConfig() explain.Config {
	return explain.Config{
		MaxContentChars: c.Explain.MaxContentChars,
		Model:           c.Explain.Model,
		Temperature:     c.Explain.Temperature,
		MaxTokens:       c.Explain.MaxTokens,
		Timeout:         seconds(c.Explain.TimeoutSeconds),
	}
}

// ToStreamConfig converts the section filtering settings.
func (c *Config) ToStreamConfig() stream.Config {
	return stream.Config{
		MinSectionChars: c.Explain.MinSectionChars,
		SkipTitles:      c.Explain.SkipTitles,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wikitutor configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export GEMINI_API_KEY=xxx OPENROUTER_API_KEY=xxx
# Any setting can be overridden with WIKITUTOR_<SECTION>_<KEY>, e.g. WIKITUTOR_SERVER_PORT=9090

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
