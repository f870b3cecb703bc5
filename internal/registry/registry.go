// Package registry discovers and caches subagent specifications.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/delegate/internal/spec"
)

// ErrNotFound is returned by Resolve for unknown agent names.
var ErrNotFound = errors.New("agent not found")

// ParseError is a per-file load failure. One bad file never hides the
// rest of the registry.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ReloadReport summarizes a Reload pass.
type ReloadReport struct {
	Loaded int
	Errors []ParseError
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	spec    *spec.Spec
}

// Registry loads specifications from a project directory (overrides) and
// a user directory (fallback). Builtin specs sit below both.
type Registry struct {
	projectDir string
	userDir    string
	builtins   []*spec.Spec
	logger     *logging.Logger

	mu          sync.RWMutex
	cache       map[string]cacheEntry
	agents      map[string]*spec.Spec
	parseErrors []ParseError
}

// New creates a registry over explicit project and user agent directories.
func New(projectDir, userDir string) *Registry {
	return &Registry{
		projectDir: projectDir,
		userDir:    userDir,
		logger:     logging.New().WithComponent("registry"),
		cache:      make(map[string]cacheEntry),
		agents:     make(map[string]*spec.Spec),
	}
}

// WithBuiltins registers programmatic specs at builtin scope. Any user
// or project spec with the same name wins.
func (r *Registry) WithBuiltins(specs ...*spec.Spec) *Registry {
	r.builtins = append(r.builtins, specs...)
	return r
}

// Reload rescans both directories. Unchanged files (same mtime and size)
// are served from cache and not re-parsed. Precedence is resolved after
// the scan: builtin first, then user, then project overwrites.
func (r *Registry) Reload() *ReloadReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents := make(map[string]*spec.Spec)
	cache := make(map[string]cacheEntry)
	var parseErrors []ParseError

	for _, s := range r.builtins {
		agents[s.Name] = s
	}
	r.scanDir(r.userDir, spec.SourceUser, agents, cache, &parseErrors)
	r.scanDir(r.projectDir, spec.SourceProject, agents, cache, &parseErrors)

	r.agents = agents
	r.cache = cache
	r.parseErrors = parseErrors

	return &ReloadReport{Loaded: len(agents), Errors: parseErrors}
}

// scanDir loads every spec file in dir, respecting the cache and
// collecting per-file errors. A missing directory is not an error.
func (r *Registry) scanDir(dir string, source spec.Source, agents map[string]*spec.Spec, cache map[string]cacheEntry, parseErrors *[]ParseError) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			*parseErrors = append(*parseErrors, ParseError{Path: dir, Message: err.Error()})
		}
		return
	}

	seen := make(map[string]string) // name → path, duplicate detection within one scope
	for _, entry := range entries {
		if entry.IsDir() || !isSpecFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		s, err := r.loadFile(path, source, cache)
		if err != nil {
			*parseErrors = append(*parseErrors, ParseError{Path: path, Message: err.Error()})
			continue
		}

		if prev, dup := seen[s.Name]; dup {
			*parseErrors = append(*parseErrors, ParseError{
				Path:    path,
				Message: fmt.Sprintf("duplicate agent name %q (already defined in %s)", s.Name, prev),
			})
			continue
		}
		seen[s.Name] = path
		agents[s.Name] = s
	}
}

// loadFile parses path, reusing the previous parse when the file's
// mtime and size are unchanged.
func (r *Registry) loadFile(path string, source spec.Source, cache map[string]cacheEntry) (*spec.Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if prev, ok := r.cache[path]; ok && prev.modTime.Equal(info.ModTime()) && prev.size == info.Size() {
		cache[path] = prev
		return prev.spec, nil
	}

	s, err := spec.ParseFile(path, source)
	if err != nil {
		return nil, err
	}
	cache[path] = cacheEntry{modTime: info.ModTime(), size: info.Size(), spec: s}
	return s, nil
}

// Resolve returns the winning spec for name, or ErrNotFound.
func (r *Registry) Resolve(name string) (*spec.Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s, nil
}

// List returns all loaded specs ordered by name.
func (r *Registry) List() []*spec.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*spec.Spec, 0, len(r.agents))
	for _, s := range r.agents {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Errors returns the parse errors from the last Reload.
func (r *Registry) Errors() []ParseError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ParseError(nil), r.parseErrors...)
}

func isSpecFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
