package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Subagents.Enabled {
		t.Error("delegation must default to off")
	}
	if cfg.Subagents.TimeoutSeconds != 300 {
		t.Errorf("expected 300s timeout, got %d", cfg.Subagents.TimeoutSeconds)
	}
	if cfg.Subagents.MaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.Subagents.MaxRetries)
	}
	if cfg.Telemetry.Capacity != 256 {
		t.Errorf("expected telemetry capacity 256, got %d", cfg.Telemetry.Capacity)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "delegate.toml")
	content := `
[subagents]
enabled = true
project_dir = "agents"
timeout_seconds = 60
max_retries = 1

[llm]
provider = "anthropic"
model = "claude-sonnet-4-5"

[events]
nats_enabled = true
subject = "ci.delegate"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Subagents.Enabled || cfg.Subagents.TimeoutSeconds != 60 {
		t.Errorf("subagents section not applied: %+v", cfg.Subagents)
	}
	if cfg.LLM.Model != "claude-sonnet-4-5" {
		t.Errorf("llm section not applied: %+v", cfg.LLM)
	}
	if cfg.Events.Subject != "ci.delegate" || !cfg.Events.NATSEnabled {
		t.Errorf("events section not applied: %+v", cfg.Events)
	}
	// Unset fields keep defaults.
	if cfg.Session.Dir != filepath.Join(".delegate", "runs") {
		t.Errorf("expected default session dir, got %q", cfg.Session.Dir)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delegate.toml")
	os.WriteFile(path, []byte("[subagents\nenabled ="), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDelegationEnabled_EnvOverride(t *testing.T) {
	cfg := New()

	t.Setenv(EnabledEnvVar, "1")
	if !cfg.DelegationEnabled() {
		t.Error("env var should force-enable")
	}

	cfg.Subagents.Enabled = true
	t.Setenv(EnabledEnvVar, "false")
	if cfg.DelegationEnabled() {
		t.Error("env var should force-disable")
	}

	// Unparseable values fall back to the file setting.
	t.Setenv(EnabledEnvVar, "maybe")
	if !cfg.DelegationEnabled() {
		t.Error("bad env value should fall back to config")
	}
}
