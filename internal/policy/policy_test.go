package policy

import (
	"errors"
	"strings"
	"testing"

	"github.com/vinayprograms/delegate/internal/spec"
)

func mustSpec(t *testing.T, name string, tools ...string) *spec.Spec {
	t.Helper()
	s, err := spec.NewBuilder(name).Instructions("Do the thing.").Tools(tools...).Build()
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}
	return s
}

func TestAuthorize_Allowed(t *testing.T) {
	s := mustSpec(t, "reviewer", "read", "grep")
	if err := Authorize(s, "read"); err != nil {
		t.Errorf("expected read allowed: %v", err)
	}
}

func TestAuthorize_NotInAllowlist(t *testing.T) {
	s := mustSpec(t, "reviewer", "read", "grep")
	err := Authorize(s, "bash")
	if err == nil {
		t.Fatal("expected denial")
	}
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %T", err)
	}
	if !strings.Contains(err.Error(), "grep") || !strings.Contains(err.Error(), "read") {
		t.Errorf("denial should list permitted tools, got %q", err.Error())
	}
}

func TestAuthorize_NoToolsConfigured(t *testing.T) {
	s := mustSpec(t, "thinker")
	err := Authorize(s, "read")
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if len(denied.Permitted) != 0 {
		t.Errorf("expected empty permitted list, got %v", denied.Permitted)
	}
	if !strings.Contains(err.Error(), "no tools configured") {
		t.Errorf("message should say no tools configured, got %q", err.Error())
	}
}

func TestAuthorize_UnknownTool(t *testing.T) {
	s := mustSpec(t, "reviewer", "read")
	if err := Authorize(s, "teleport"); err == nil {
		t.Fatal("expected unknown-tool error")
	}
}

func TestValidate_RejectsUnknownDeclaredTool(t *testing.T) {
	s := mustSpec(t, "reviewer", "read", "teleport")
	if err := Validate(s); err == nil {
		t.Fatal("expected validation failure for unknown tool")
	}
	good := mustSpec(t, "reviewer", "read", "grep", "bash")
	if err := Validate(good); err != nil {
		t.Errorf("expected valid tools to pass: %v", err)
	}
}

func TestDescriptorTable(t *testing.T) {
	d, ok := Lookup("bash")
	if !ok || d.Kind != KindMutating {
		t.Errorf("expected bash to be mutating, got %v/%v", d, ok)
	}
	d, ok = Lookup("spawn_agent")
	if !ok || d.Kind != KindSpawn {
		t.Errorf("expected spawn_agent to be spawn, got %v/%v", d, ok)
	}
	all := All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("All() not sorted at %d: %s >= %s", i, all[i-1].Name, all[i].Name)
		}
	}
}
