package agents

import (
	"testing"

	"github.com/vinayprograms/delegate/internal/policy"
	"github.com/vinayprograms/delegate/internal/spec"
)

func TestBuiltins(t *testing.T) {
	roster := Builtins()
	if len(roster) != 3 {
		t.Fatalf("expected 3 builtin agents, got %d", len(roster))
	}
	seen := make(map[string]bool)
	for _, s := range roster {
		if seen[s.Name] {
			t.Errorf("duplicate builtin name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Source != spec.SourceBuiltin {
			t.Errorf("%s: expected builtin source, got %v", s.Name, s.Source)
		}
		if err := policy.Validate(s); err != nil {
			t.Errorf("%s declares unknown tools: %v", s.Name, err)
		}
		if len(s.Keywords) == 0 {
			t.Errorf("%s: builtin agents must be routable by keyword", s.Name)
		}
	}
	for _, name := range []string{"reviewer", "tester", "code-writer"} {
		if !seen[name] {
			t.Errorf("missing builtin %q", name)
		}
	}
}

func TestBuiltins_FreshCopies(t *testing.T) {
	a := Builtins()
	b := Builtins()
	if a[0] == b[0] {
		t.Error("expected fresh specs per call")
	}
}
