package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 60*time.Second, cfg.Provider.Timeout())
	assert.Equal(t, 8, cfg.Agent.MaxTurns)
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dossier.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[provider]
api_key = "file-key"
model = "gpt-4o"
timeout_seconds = 30
max_retries = 2
temperature = 0.3

[agent]
max_turns = 12
system_prompt = "You track people."
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Provider.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout())
	assert.Equal(t, 2, cfg.Provider.MaxRetries)
	assert.InDelta(t, 0.3, cfg.Provider.Temperature, 1e-9)
	assert.Equal(t, 12, cfg.Agent.MaxTurns)
	assert.Equal(t, "You track people.", cfg.Agent.SystemPrompt)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider.BaseURL, "missing keys keep defaults")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dossier.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[provider`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dossier.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[provider]
api_key = "file-key"
model = "gpt-4o"
`), 0o600))
	t.Setenv("DOSSIER_API_KEY", "env-key")
	t.Setenv("DOSSIER_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("DOSSIER_MODEL", "local-model")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider.APIKey, "environment wins over file")
	assert.Equal(t, "http://localhost:8080/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "local-model", cfg.Provider.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) { c.Provider.APIKey = "k" }},
		{name: "missing api key", mutate: func(*Config) {}, wantErr: "api_key"},
		{
			name: "missing base url",
			mutate: func(c *Config) {
				c.Provider.APIKey = "k"
				c.Provider.BaseURL = ""
			},
			wantErr: "base_url",
		},
		{
			name: "non-positive max turns",
			mutate: func(c *Config) {
				c.Provider.APIKey = "k"
				c.Agent.MaxTurns = 0
			},
			wantErr: "max_turns",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
