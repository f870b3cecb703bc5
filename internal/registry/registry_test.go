package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/delegate/internal/spec"
)

func writeSpec(t *testing.T, dir, file, content string) string {
	t.Helper()
	os.MkdirAll(dir, 0755)
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRegistry_ProjectOverridesUser(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")
	userDir := filepath.Join(tmp, "user")

	writeSpec(t, userDir, "reviewer.md", `---
name: reviewer
model: user-model
tools: [read, grep]
---
User reviewer instructions.
`)
	writeSpec(t, projectDir, "reviewer.md", `---
name: reviewer
model: project-model
tools: [read, grep, bash]
---
Project reviewer instructions.
`)

	r := New(projectDir, userDir)
	report := r.Reload()
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if report.Loaded != 1 {
		t.Fatalf("expected 1 agent, got %d", report.Loaded)
	}

	s, err := r.Resolve("reviewer")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Model != "project-model" {
		t.Errorf("expected project-model, got %q", s.Model)
	}
	if s.Source != spec.SourceProject {
		t.Errorf("expected project source, got %v", s.Source)
	}
}

func TestRegistry_RemovingProjectRevealsUser(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")
	userDir := filepath.Join(tmp, "user")

	writeSpec(t, userDir, "helper.md", "---\nname: helper\n---\nUser helper.")
	projectPath := writeSpec(t, projectDir, "helper.md", "---\nname: helper\n---\nProject helper.")

	r := New(projectDir, userDir)
	r.Reload()

	s, _ := r.Resolve("helper")
	if s.Source != spec.SourceProject {
		t.Fatalf("expected project spec first, got %v", s.Source)
	}

	os.Remove(projectPath)
	r.Reload()

	s, err := r.Resolve("helper")
	if err != nil {
		t.Fatalf("resolve after removal: %v", err)
	}
	if s.Source != spec.SourceUser {
		t.Errorf("expected user spec revealed, got %v", s.Source)
	}
}

func TestRegistry_BadFileDoesNotHideOthers(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")

	writeSpec(t, projectDir, "bad.md", "---\nname: \"\"\n---\nbody")
	writeSpec(t, projectDir, "good.md", "---\nname: good-agent\n---\nDo good work.")

	r := New(projectDir, "")
	report := r.Reload()

	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 parse error, got %v", report.Errors)
	}
	if !strings.Contains(report.Errors[0].Path, "bad.md") {
		t.Errorf("expected error attributed to bad.md, got %q", report.Errors[0].Path)
	}
	if _, err := r.Resolve("good-agent"); err != nil {
		t.Errorf("expected good-agent to load: %v", err)
	}
}

func TestRegistry_DuplicateWithinScope(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")

	writeSpec(t, projectDir, "a.md", "---\nname: twin\n---\nFirst.")
	writeSpec(t, projectDir, "b.md", "---\nname: twin\n---\nSecond.")

	r := New(projectDir, "")
	report := r.Reload()

	var dupErr bool
	for _, e := range report.Errors {
		if strings.Contains(e.Message, "duplicate agent name") {
			dupErr = true
		}
	}
	if !dupErr {
		t.Fatalf("expected duplicate-name error, got %v", report.Errors)
	}
	if _, err := r.Resolve("twin"); err != nil {
		t.Error("first occurrence should still resolve")
	}
}

func TestRegistry_CacheSkipsUnchangedFiles(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")
	path := writeSpec(t, projectDir, "cached.md", "---\nname: cached\n---\nStable.")

	r := New(projectDir, "")
	r.Reload()
	first, _ := r.Resolve("cached")

	// Unchanged mtime+size, second reload must serve the same parse.
	r.Reload()
	second, _ := r.Resolve("cached")
	if first != second {
		t.Error("expected cached spec pointer to be reused")
	}

	// Touch with new content, reload must pick it up.
	os.WriteFile(path, []byte("---\nname: cached\n---\nChanged body."), 0644)
	now := time.Now().Add(2 * time.Second)
	os.Chtimes(path, now, now)
	r.Reload()
	third, _ := r.Resolve("cached")
	if third.Instructions != "Changed body." {
		t.Errorf("expected reparsed instructions, got %q", third.Instructions)
	}
}

func TestRegistry_BuiltinLowestPrecedence(t *testing.T) {
	tmp := t.TempDir()
	userDir := filepath.Join(tmp, "user")
	writeSpec(t, userDir, "reviewer.md", "---\nname: reviewer\n---\nUser override.")

	builtin, _ := spec.NewBuilder("reviewer").Instructions("Builtin.").Source(spec.SourceBuiltin).Build()
	other, _ := spec.NewBuilder("tester").Instructions("Builtin tester.").Source(spec.SourceBuiltin).Build()

	r := New("", userDir).WithBuiltins(builtin, other)
	r.Reload()

	s, _ := r.Resolve("reviewer")
	if s.Source != spec.SourceUser {
		t.Errorf("expected user spec to override builtin, got %v", s.Source)
	}
	s, err := r.Resolve("tester")
	if err != nil || s.Source != spec.SourceBuiltin {
		t.Errorf("expected builtin tester, got %v / %v", s, err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "project")
	writeSpec(t, projectDir, "z.md", "---\nname: zeta\n---\nZ.")
	writeSpec(t, projectDir, "a.md", "---\nname: alpha\n---\nA.")

	r := New(projectDir, "")
	r.Reload()

	list := r.List()
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "zeta" {
		t.Errorf("expected sorted [alpha zeta], got %v", list)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := New("", "")
	r.Reload()
	if _, err := r.Resolve("ghost"); err == nil {
		t.Fatal("expected not-found error")
	}
}
