// Package config loads the aikit binary configuration from YAML and AIKIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/aikit/contrib/mcp"
	"github.com/go-kratos/aikit/sola"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AIKIT_PROVIDER_MODEL.
const EnvPrefix = "AIKIT"

// Supported model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Config is the root configuration of the aikit binary.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Sola     SolaConfig     `mapstructure:"sola" yaml:"sola"`
	MCP      []MCPServer    `mapstructure:"mcp" yaml:"mcp,omitempty"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ProviderConfig selects and configures the model provider.
type ProviderConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// Project, Location and CredentialsFile select Vertex AI for the google provider.
	Project         string  `mapstructure:"project" yaml:"project,omitempty"`
	Location        string  `mapstructure:"location" yaml:"location,omitempty"`
	CredentialsFile string  `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	// Attempts is the number of tries for each model call.
	Attempts int `mapstructure:"attempts" yaml:"attempts"`
}

// EngineConfig configures the capability engine.
type EngineConfig struct {
	Instructions       string `mapstructure:"instructions" yaml:"instructions"`
	MaxRoundTrips      int    `mapstructure:"max_round_trips" yaml:"max_round_trips"`
	Manifest           bool   `mapstructure:"manifest" yaml:"manifest"`
	Orchestrate        bool   `mapstructure:"orchestrate" yaml:"orchestrate"`
	OrchestratorModel  string `mapstructure:"orchestrator_model" yaml:"orchestrator_model,omitempty"`
	OrchestratorPrompt string `mapstructure:"orchestrator_prompt" yaml:"orchestrator_prompt,omitempty"`
	Tracing            bool   `mapstructure:"tracing" yaml:"tracing"`
}

// SolaConfig configures the Sola capability groups.
type SolaConfig struct {
	sola.Config     `mapstructure:",squash" yaml:",inline"`
	AuthToken       string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
	WalletPublicKey string `mapstructure:"wallet_public_key" yaml:"wallet_public_key,omitempty"`
}

// MCPServer exposes the tools of an MCP server as a capability group.
type MCPServer struct {
	mcp.ClientConfig `mapstructure:",squash" yaml:",inline"`
	Description      string `mapstructure:"description" yaml:"description"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Attempts:    3,
		},
		Engine: EngineConfig{
			Instructions:  "You are Sola, a helpful assistant for the Solana ecosystem.",
			MaxRoundTrips: aikit.DefaultMaxRoundTrips,
			Manifest:      true,
			Orchestrate:   true,
		},
		Sola: SolaConfig{Config: sola.DefaultConfig()},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Path returns the default config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "aikit.yaml"
	}
	return filepath.Join(home, ".config", "aikit", "config.yaml")
}

// Load reads the config file at path, or the default locations when path is empty,
// and applies AIKIT_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(Path()))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the binary cannot run without.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderOpenAI, ProviderGoogle:
	default:
		return fmt.Errorf("invalid provider: %q (must be %s or %s)", c.Provider.Name, ProviderOpenAI, ProviderGoogle)
	}
	if c.Provider.Model == "" {
		return errors.New("provider model is required")
	}
	if c.Provider.Attempts < 1 {
		return fmt.Errorf("provider attempts must be positive, got %d", c.Provider.Attempts)
	}
	if c.Engine.MaxRoundTrips < 1 {
		return fmt.Errorf("engine max_round_trips must be positive, got %d", c.Engine.MaxRoundTrips)
	}
	for _, server := range c.MCP {
		if server.Name == "" {
			return errors.New("mcp server name is required")
		}
	}
	return nil
}

// Write stores cfg as YAML at path, creating parent directories.
// It refuses to overwrite an existing file unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.project", d.Provider.Project)
	v.SetDefault("provider.location", d.Provider.Location)
	v.SetDefault("provider.credentials_file", d.Provider.CredentialsFile)
	v.SetDefault("provider.temperature", d.Provider.Temperature)
	v.SetDefault("provider.attempts", d.Provider.Attempts)
	v.SetDefault("engine.instructions", d.Engine.Instructions)
	v.SetDefault("engine.max_round_trips", d.Engine.MaxRoundTrips)
	v.SetDefault("engine.manifest", d.Engine.Manifest)
	v.SetDefault("engine.orchestrate", d.Engine.Orchestrate)
	v.SetDefault("engine.orchestrator_model", d.Engine.OrchestratorModel)
	v.SetDefault("engine.orchestrator_prompt", d.Engine.OrchestratorPrompt)
	v.SetDefault("engine.tracing", d.Engine.Tracing)
	v.SetDefault("sola.data_url", d.Sola.DataURL)
	v.SetDefault("sola.wallet_url", d.Sola.WalletURL)
	v.SetDefault("sola.goat_index_url", d.Sola.GoatIndexURL)
	v.SetDefault("sola.nextjs_url", d.Sola.NextJSURL)
	v.SetDefault("sola.dexscreener_url", d.Sola.DexScreenerURL)
	v.SetDefault("sola.auth_token", d.Sola.AuthToken)
	v.SetDefault("sola.wallet_public_key", d.Sola.WalletPublicKey)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
