package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names, matching the platform's ai-providers resource.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Providers lists the providers the platform accepts, in display order.
var Providers = []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter}

// defaultModels is used when a provider is configured without a model.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
}

// keyEnv is the conventional API key variable per provider.
var keyEnv = map[string]string{
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderGemini:     "GEMINI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// Config holds the settings for one provider.
type Config struct {
	// Provider selects the backend: anthropic, openai, gemini or openrouter.
	Provider string

	APIKey string
	Model  string

	// BaseURL overrides the provider endpoint. Optional.
	BaseURL string

	Retry RetryConfig

	// Timeout bounds one probe including its retries. Default: 30s.
	Timeout time.Duration
}

// RetryConfig configures retries of rate-limited and unavailable calls.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration

	// MaxWait caps the backoff. A provider asking for a longer pause
	// fails the call instead.
	MaxWait    time.Duration
	Multiplier float64
}

// DefaultRetry is the backoff used unless overridden.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
	}
}

// NewConfig returns a Config for provider with defaults filled in. An empty
// model selects the provider default.
func NewConfig(provider, model, apiKey string) Config {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if model == "" {
		model = defaultModels[provider]
	}
	return Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
		Retry:    DefaultRetry(),
		Timeout:  30 * time.Second,
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// KeyFromEnv looks up an API key for provider: NUTRIFY_<PROVIDER>_API_KEY
// first, then the provider's conventional variable.
func KeyFromEnv(provider string) string {
	if k := os.Getenv("NUTRIFY_" + strings.ToUpper(provider) + "_API_KEY"); k != "" {
		return k
	}
	if name, ok := keyEnv[provider]; ok {
		return os.Getenv(name)
	}
	return ""
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	for _, p := range []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter} {
		if k := KeyFromEnv(p); k != "" {
			return NewConfig(p, "", k), true
		}
	}
	return Config{}, false
}

var (
	ErrUnknownProvider = errors.New("unknown AI provider")
	ErrMissingKey      = errors.New("API key is required")
)

// SettingsError reports provider settings that cannot be probed.
// Err is ErrUnknownProvider or ErrMissingKey.
type SettingsError struct {
	Provider string
	Err      error
}

func (e *SettingsError) Error() string {
	if errors.Is(e.Err, ErrMissingKey) {
		if env, ok := keyEnv[e.Provider]; ok {
			return fmt.Sprintf("%s: an API key is required (set %s or pass --api-key)", e.Provider, env)
		}
	}
	return fmt.Sprintf("%q: %v", e.Provider, e.Err)
}

func (e *SettingsError) Unwrap() error { return e.Err }

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	if !IsKnown(c.Provider) {
		return &SettingsError{Provider: c.Provider, Err: ErrUnknownProvider}
	}
	if c.APIKey == "" {
		return &SettingsError{Provider: c.Provider, Err: ErrMissingKey}
	}
	return nil
}

// IsKnown reports whether name is a provider the platform accepts.
func IsKnown(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}
