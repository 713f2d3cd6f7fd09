package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all LLM provider configuration. API keys never come from
// the config file; they are read from the environment.
type Config struct {
	// Provider selects which LLM provider to use. Empty disables content
	// generation.
	// Values: "anthropic", "openai", "gemini", "openrouter", "auto", "mock"
	Provider string `toml:"provider"`

	Anthropic  AnthropicConfig  `toml:"anthropic"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Gemini     GeminiConfig     `toml:"gemini"`
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Retry      RetryConfig      `toml:"retry"`

	// Timeout bounds a single generation including retries.
	Timeout time.Duration `toml:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `toml:"-"`
	Model  string `toml:"model"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `toml:"-"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"` // Optional. Any OpenAI-compatible API.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `toml:"-"`
	Model  string `toml:"model"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `toml:"-"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts"`
	InitialWait time.Duration `toml:"initial_wait"`
	MaxWait     time.Duration `toml:"max_wait"`
	Multiplier  float64       `toml:"multiplier"`
}

// DefaultConfig returns a Config with generation disabled and sensible
// per-provider defaults.
func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// ApplyEnv overlays LEXIQUEST_* environment variables onto c. API keys
// are only ever read from the environment.
func (c *Config) ApplyEnv() {
	bindings := []struct {
		key string
		dst *string
	}{
		{"LEXIQUEST_LLM_PROVIDER", &c.Provider},
		{"LEXIQUEST_ANTHROPIC_API_KEY", &c.Anthropic.APIKey},
		{"LEXIQUEST_ANTHROPIC_MODEL", &c.Anthropic.Model},
		{"LEXIQUEST_OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"LEXIQUEST_OPENAI_MODEL", &c.OpenAI.Model},
		{"LEXIQUEST_OPENAI_BASE_URL", &c.OpenAI.BaseURL},
		{"LEXIQUEST_GEMINI_API_KEY", &c.Gemini.APIKey},
		{"LEXIQUEST_GEMINI_MODEL", &c.Gemini.Model},
		{"LEXIQUEST_OPENROUTER_API_KEY", &c.OpenRouter.APIKey},
		{"LEXIQUEST_OPENROUTER_MODEL", &c.OpenRouter.Model},
	}
	for _, b := range bindings {
		if v := os.Getenv(b.key); v != "" {
			*b.dst = v
		}
	}
}

// DiscoverConfig backs the "auto" provider: it picks the first provider
// whose conventional API key variable is set, in the order Gemini, OpenAI,
// Anthropic, OpenRouter.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = "gemini", os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = "openai", os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = "anthropic", os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider, cfg.OpenRouter.APIKey = "openrouter", os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	keys := map[string]string{
		"anthropic":  c.Anthropic.APIKey,
		"openai":     c.OpenAI.APIKey,
		"gemini":     c.Gemini.APIKey,
		"openrouter": c.OpenRouter.APIKey,
	}
	switch key, known := keys[c.Provider]; {
	case c.Provider == "", c.Provider == "mock", c.Provider == "auto":
	case !known:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	case key == "":
		return fmt.Errorf("LEXIQUEST_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max_attempts must be at least 1")
	}
	return nil
}
