// Package policy decides which tools a subagent may invoke.
//
// Every tool a subagent can reference is enumerated in a descriptor
// table tagged with its effect kind. Authorization is a pure lookup
// against the agent's allowlist, so denials can report exactly which
// tools the agent was permitted to use.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vinayprograms/delegate/internal/spec"
)

// Kind classifies what a tool does to the workspace.
type Kind int

const (
	// KindRead tools only inspect state.
	KindRead Kind = iota
	// KindMutating tools change files or repository state.
	KindMutating
	// KindSpawn tools start further delegated work.
	KindSpawn
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindMutating:
		return "mutating"
	case KindSpawn:
		return "spawn"
	default:
		return "unknown"
	}
}

// Descriptor describes one tool known to the policy layer.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string
}

// descriptors is the single table of tools subagents may reference.
// Adding a tool means adding a row here; nothing else enumerates them.
var descriptors = []Descriptor{
	{Name: "read", Kind: KindRead, Description: "Read the contents of a file"},
	{Name: "glob", Kind: KindRead, Description: "Find files matching a pattern"},
	{Name: "grep", Kind: KindRead, Description: "Search file contents by pattern"},
	{Name: "ls", Kind: KindRead, Description: "List directory contents"},
	{Name: "web_fetch", Kind: KindRead, Description: "Fetch a URL and return its content"},
	{Name: "web_search", Kind: KindRead, Description: "Search the web"},
	{Name: "write", Kind: KindMutating, Description: "Create or overwrite a file"},
	{Name: "edit", Kind: KindMutating, Description: "Apply a targeted edit to a file"},
	{Name: "bash", Kind: KindMutating, Description: "Run a shell command in the workspace"},
	{Name: "spawn_agent", Kind: KindSpawn, Description: "Delegate a task to another agent"},
}

var byName = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = d
	}
	return m
}()

// Lookup returns the descriptor for a tool name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := byName[name]
	return d, ok
}

// Known reports whether the name identifies a tool in the table.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// All returns the descriptor table sorted by name.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeniedError reports a tool invocation the policy refused.
type DeniedError struct {
	Agent     string
	Tool      string
	Permitted []string
}

func (e *DeniedError) Error() string {
	if len(e.Permitted) == 0 {
		return fmt.Sprintf("agent %q has no tools configured; %q is not available", e.Agent, e.Tool)
	}
	return fmt.Sprintf("tool %q is not allowed for agent %q (permitted: %s)",
		e.Tool, e.Agent, strings.Join(e.Permitted, ", "))
}

// Authorize checks whether the agent's allowlist permits the tool.
// Unknown tool names are denied even when listed, so a typo in a
// specification surfaces at call time instead of silently no-opping.
func Authorize(s *spec.Spec, tool string) error {
	if !Known(tool) {
		return fmt.Errorf("unknown tool %q", tool)
	}
	if len(s.Tools) == 0 {
		return &DeniedError{Agent: s.Name, Tool: tool}
	}
	if !s.AllowsTool(tool) {
		permitted := make([]string, len(s.Tools))
		copy(permitted, s.Tools)
		sort.Strings(permitted)
		return &DeniedError{Agent: s.Name, Tool: tool, Permitted: permitted}
	}
	return nil
}

// Validate checks that every tool an agent declares exists in the
// descriptor table. Used at load time so bad specs fail early.
func Validate(s *spec.Spec) error {
	for _, t := range s.Tools {
		if !Known(t) {
			return fmt.Errorf("agent %q declares unknown tool %q", s.Name, t)
		}
	}
	return nil
}
