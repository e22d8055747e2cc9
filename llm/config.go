package llm

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration: which adapter variant to build
// and everything that parameterizes it. Loaded once at startup; never
// mutated afterwards.
type Config struct {
	// Provider selects the adapter variant ("openai", "openai-responses",
	// "anthropic"). The set is closed; see llm/factory.
	Provider string `yaml:"provider"`

	ProviderConfig `yaml:",inline"`

	// Timeout is the transport deadline applied to every call, covering
	// all retry attempts of that call together.
	Timeout time.Duration `yaml:"timeout"`

	Retry RetryPolicy `yaml:"retry"`

	// RateLimit throttles outgoing calls per second; zero disables it.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// DefaultConfig returns the baseline every load starts from.
func DefaultConfig() *Config {
	return &Config{
		Provider: "openai",
		Timeout:  60 * time.Second,
		Retry:    DefaultRetryPolicy(),
	}
}

// envAPIKey overrides the configured credential when set, so keys can stay
// out of config files.
const envAPIKey = "LLMBRIDGE_API_KEY"

// LoadConfig loads configuration in three layers: defaults, then the YAML
// file (when path is non-empty and exists), then environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file falls through to defaults.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if key := os.Getenv(envAPIKey); key != "" {
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("config: provider must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry.max_retries must not be negative")
	}
	if c.Retry.BaseBackoff < 0 {
		return fmt.Errorf("config: retry.base_backoff must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative")
	}
	return nil
}
