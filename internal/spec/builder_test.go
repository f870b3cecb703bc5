package spec

import (
	"strings"
	"testing"
)

func TestBuilder_Minimal(t *testing.T) {
	s, err := NewBuilder("helper").Instructions("Do the thing.").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "helper" {
		t.Errorf("expected helper, got %q", s.Name)
	}
	if len(s.Tools) != 0 {
		t.Errorf("expected empty allowlist, got %v", s.Tools)
	}
	if s.Fingerprint == "" {
		t.Error("expected fingerprint to be set")
	}
}

func TestBuilder_InvalidNames(t *testing.T) {
	bad := []string{"", "UPPER", "1starts-with-digit", "ab", "has space", "-leading"}
	for _, name := range bad {
		if _, err := NewBuilder(name).Instructions("x").Build(); err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}

func TestBuilder_DuplicateTools(t *testing.T) {
	_, err := NewBuilder("dup").Instructions("x").Tools("read", "read").Build()
	if err == nil || !strings.Contains(err.Error(), "duplicate tool") {
		t.Fatalf("expected duplicate tool error, got %v", err)
	}
}

func TestBuilder_EmptyKeyword(t *testing.T) {
	_, err := NewBuilder("kw").Instructions("x").Keywords("  ").Build()
	if err == nil {
		t.Fatal("expected error for blank keyword")
	}
}

func TestBuilder_ModelShorthand(t *testing.T) {
	s, err := NewBuilder("shorty").Instructions("x").Model("claude-sonnet").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ModelConfig == nil || s.ModelConfig.Model != "claude-sonnet" {
		t.Fatalf("expected shorthand expanded to binding, got %+v", s.ModelConfig)
	}
	if s.ModelConfig.Provider != "" {
		t.Error("shorthand must leave provider unchanged")
	}
	if s.ModelLabel() != "claude-sonnet" {
		t.Errorf("unexpected model label %q", s.ModelLabel())
	}
}

func TestBuilder_FingerprintChangesWithContent(t *testing.T) {
	a, _ := NewBuilder("finger").Instructions("one").Build()
	b, _ := NewBuilder("finger").Instructions("two").Build()
	if a.Fingerprint == b.Fingerprint {
		t.Error("expected different fingerprints for different instructions")
	}
}

func TestSpec_AllowsTool(t *testing.T) {
	s, _ := NewBuilder("gate").Instructions("x").Tools("read", "write").Build()
	if !s.AllowsTool("read") {
		t.Error("expected read to be allowed")
	}
	if s.AllowsTool("bash") {
		t.Error("expected bash to be denied")
	}
}
