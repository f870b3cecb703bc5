// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// EnabledEnvVar overrides the subagents.enabled setting when set.
// Accepts the usual boolean spellings (1/0, true/false, t/f).
const EnabledEnvVar = "DELEGATE_SUBAGENTS_ENABLED"

// Config represents the delegate configuration.
type Config struct {
	Subagents SubagentsConfig `toml:"subagents"`
	LLM       LLMConfig       `toml:"llm"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Events    EventsConfig    `toml:"events"`
	Session   SessionConfig   `toml:"session"`
}

// SubagentsConfig gates and scopes delegation.
type SubagentsConfig struct {
	Enabled        bool   `toml:"enabled"`
	ProjectDir     string `toml:"project_dir"`     // Per-project agent specs (default .delegate/agents)
	UserDir        string `toml:"user_dir"`        // Per-user agent specs (default ~/.delegate/agents)
	TimeoutSeconds int    `toml:"timeout_seconds"` // Per-run deadline (default 300)
	MaxRetries     int    `toml:"max_retries"`     // Extra attempts after a failed run (default 2)
	Watch          bool   `toml:"watch"`           // Reload specs on file changes
}

// LLMConfig contains default LLM provider settings, used when an
// agent spec carries no model binding of its own.
type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
	BaseURL   string `toml:"base_url"` // Custom API endpoint (OpenRouter, LiteLLM, Ollama)
}

// TelemetryConfig controls the in-memory usage recorder and tracing.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Capacity int    `toml:"capacity"` // Retained run records (default 256)
	Endpoint string `toml:"endpoint"` // OTLP endpoint (e.g., localhost:4317)
	Protocol string `toml:"protocol"` // grpc (default) or http
	Insecure bool   `toml:"insecure"` // Disable TLS (default false)
}

// EventsConfig controls the external lifecycle event bridge.
type EventsConfig struct {
	NATSEnabled bool   `toml:"nats_enabled"`
	NATSURL     string `toml:"nats_url"`
	Subject     string `toml:"subject"` // Base subject (default delegate.events)
}

// SessionConfig controls the persisted run log.
type SessionConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // Run log directory (default .delegate/runs)
}

// New creates a new config with defaults. Delegation itself defaults
// to off; everything under it defaults to useful values so enabling
// is a one-line change.
func New() *Config {
	return &Config{
		Subagents: SubagentsConfig{
			ProjectDir:     filepath.Join(".delegate", "agents"),
			UserDir:        userAgentsDir(),
			TimeoutSeconds: 300,
			MaxRetries:     2,
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Telemetry: TelemetryConfig{
			Capacity: 256,
			Protocol: "noop",
		},
		Events: EventsConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "delegate.events",
		},
		Session: SessionConfig{
			Enabled: true,
			Dir:     filepath.Join(".delegate", "runs"),
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from delegate.toml in the current
// directory, falling back to defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, "delegate.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// SubagentTimeout returns the per-run deadline as a duration.
func (c *Config) SubagentTimeout() time.Duration {
	return time.Duration(c.Subagents.TimeoutSeconds) * time.Second
}

// DelegationEnabled resolves the feature gate: the environment
// variable wins over the file setting in both directions.
func (c *Config) DelegationEnabled() bool {
	if v := os.Getenv(EnabledEnvVar); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return c.Subagents.Enabled
}

// GetAPIKey returns the default LLM API key from the configured
// environment variable, falling back to the provider's usual one.
func (c *Config) GetAPIKey() string {
	envVar := c.LLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

func userAgentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".delegate", "agents")
}
