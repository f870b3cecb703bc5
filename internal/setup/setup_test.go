package setup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestDefaultModelFor(t *testing.T) {
	if m := defaultModelFor(ProviderAnthropic); m == "" {
		t.Error("expected a default anthropic model")
	}
	if m := defaultModelFor(ProviderOpenRouter); m != "" {
		t.Errorf("openrouter has no default model, got %q", m)
	}
}

func TestWriteFiles(t *testing.T) {
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg := Config{
		Provider:  ProviderAnthropic,
		Model:     "claude-sonnet-4-5",
		Enabled:   true,
		AgentsDir: filepath.Join(".delegate", "agents"),
	}

	msg := writeFiles(cfg)()
	written, ok := msg.(filesWrittenMsg)
	if !ok {
		t.Fatalf("expected filesWrittenMsg, got %#v", msg)
	}
	if len(written.files) != 2 {
		t.Fatalf("expected sample agent and config, got %v", written.files)
	}

	var decoded struct {
		Subagents struct {
			Enabled    bool   `toml:"enabled"`
			ProjectDir string `toml:"project_dir"`
		} `toml:"subagents"`
		LLM struct {
			Model string `toml:"model"`
		} `toml:"llm"`
	}
	if _, err := toml.DecodeFile("delegate.toml", &decoded); err != nil {
		t.Fatalf("decode delegate.toml: %v", err)
	}
	if !decoded.Subagents.Enabled {
		t.Error("enabled flag not persisted")
	}
	if decoded.LLM.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q", decoded.LLM.Model)
	}

	sample, err := os.ReadFile(filepath.Join(cfg.AgentsDir, "reviewer.md"))
	if err != nil {
		t.Fatalf("sample agent missing: %v", err)
	}
	if !strings.Contains(string(sample), "name: reviewer") {
		t.Error("sample agent lacks a name field")
	}
}

func TestWriteFiles_KeepsExistingSample(t *testing.T) {
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	agentsDir := filepath.Join(".delegate", "agents")
	if err := os.MkdirAll(agentsDir, 0755); err != nil {
		t.Fatal(err)
	}
	custom := "---\nname: reviewer\ntools: [read]\n---\nMy own reviewer.\n"
	samplePath := filepath.Join(agentsDir, "reviewer.md")
	if err := os.WriteFile(samplePath, []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	msg := writeFiles(Config{Provider: ProviderAnthropic, AgentsDir: agentsDir})()
	if _, ok := msg.(filesWrittenMsg); !ok {
		t.Fatalf("expected filesWrittenMsg, got %#v", msg)
	}

	got, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != custom {
		t.Error("existing reviewer.md was overwritten")
	}
}
