package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/sola"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, aikit.DefaultMaxRoundTrips, cfg.Engine.MaxRoundTrips)
	assert.True(t, cfg.Engine.Orchestrate)
	assert.Equal(t, sola.DefaultConfig(), cfg.Sola.Config)
	assert.Empty(t, cfg.MCP)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  name: google
  model: gemini-2.0-flash
  project: my-project
  location: us-central1
engine:
  max_round_trips: 5
  orchestrate: false
sola:
  data_url: http://localhost:8080/
  auth_token: abc
mcp:
  - name: fs
    description: Filesystem tools
    transport: stdio
    command: mcp-fs
    args: ["--root", "/tmp"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, cfg.Provider.Name)
	assert.Equal(t, "gemini-2.0-flash", cfg.Provider.Model)
	assert.Equal(t, "my-project", cfg.Provider.Project)
	assert.Equal(t, 5, cfg.Engine.MaxRoundTrips)
	assert.False(t, cfg.Engine.Orchestrate)
	assert.Equal(t, "http://localhost:8080/", cfg.Sola.DataURL)
	assert.Equal(t, sola.DefaultConfig().WalletURL, cfg.Sola.WalletURL)
	assert.Equal(t, "abc", cfg.Sola.AuthToken)
	require.Len(t, cfg.MCP, 1)
	assert.Equal(t, "fs", cfg.MCP[0].Name)
	assert.Equal(t, "Filesystem tools", cfg.MCP[0].Description)
	assert.Equal(t, []string{"--root", "/tmp"}, cfg.MCP[0].Args)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("AIKIT_PROVIDER_MODEL", "gpt-4.1")
	t.Setenv("AIKIT_SOLA_AUTH_TOKEN", "from-env")
	t.Setenv("AIKIT_ENGINE_MAX_ROUND_TRIPS", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Provider.Model)
	assert.Equal(t, "from-env", cfg.Sola.AuthToken)
	assert.Equal(t, 7, cfg.Engine.MaxRoundTrips)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unterminated"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{name: "default", modify: func(*Config) {}, ok: true},
		{name: "unknown provider", modify: func(c *Config) { c.Provider.Name = "anthropic" }},
		{name: "missing model", modify: func(c *Config) { c.Provider.Model = "" }},
		{name: "zero attempts", modify: func(c *Config) { c.Provider.Attempts = 0 }},
		{name: "zero round trips", modify: func(c *Config) { c.Engine.MaxRoundTrips = 0 }},
		{name: "unnamed mcp server", modify: func(c *Config) { c.MCP = []MCPServer{{Description: "x"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Sola.AuthToken = "secret"
	require.NoError(t, Write(path, cfg, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.Error(t, Write(path, cfg, false))
	require.NoError(t, Write(path, cfg, true))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Provider, loaded.Provider)
	assert.Equal(t, cfg.Engine, loaded.Engine)
	assert.Equal(t, cfg.Sola, loaded.Sola)
}
