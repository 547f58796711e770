// Package config handles dossier configuration loading: TOML file, defaults,
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Agent    AgentConfig    `toml:"agent"`
}

// ProviderConfig configures the completion provider client.
type ProviderConfig struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
}

// AgentConfig configures the orchestration loop.
type AgentConfig struct {
	MaxTurns     int    `toml:"max_turns"`
	SystemPrompt string `toml:"system_prompt"` // empty keeps the built-in default
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			MaxRetries:     0,
			Temperature:    0,
			MaxTokens:      0,
		},
		Agent: AgentConfig{
			MaxTurns: 8,
		},
	}
}

// Load reads configuration from path on top of defaults, then applies
// environment overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables. The API key in
// particular should come from the environment rather than a file on disk.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DOSSIER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("DOSSIER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("DOSSIER_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
}

// Timeout returns the provider timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required (or set DOSSIER_API_KEY)")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Agent.MaxTurns <= 0 {
		return fmt.Errorf("agent.max_turns must be positive, got %d", c.Agent.MaxTurns)
	}
	return nil
}
