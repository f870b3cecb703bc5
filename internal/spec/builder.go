package spec

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// nameRe matches valid agent names: lowercase start, then lowercase
// letters, digits, hyphen, or underscore, 3-64 characters total.
var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{2,63}$`)

// ValidateName checks an agent name against the identifier rules.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid agent name %q: must start with a lowercase letter, use only lowercase letters, digits, hyphen, or underscore, and be 3-64 characters", name)
	}
	return nil
}

// Builder constructs validated specifications from parsed or inline data.
type Builder struct {
	name         string
	description  string
	model        string
	modelConfig  *ModelBinding
	tools        []string
	keywords     []string
	instructions string
	source       Source
	sourcePath   string
}

// NewBuilder starts a builder for the named agent.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, source: SourceInline}
}

func (b *Builder) Description(d string) *Builder  { b.description = d; return b }
func (b *Builder) Model(m string) *Builder        { b.model = strings.TrimSpace(m); return b }
func (b *Builder) Tools(t ...string) *Builder     { b.tools = append(b.tools, t...); return b }
func (b *Builder) Keywords(k ...string) *Builder  { b.keywords = append(b.keywords, k...); return b }
func (b *Builder) Instructions(i string) *Builder { b.instructions = i; return b }
func (b *Builder) Source(s Source) *Builder       { b.source = s; return b }
func (b *Builder) SourcePath(p string) *Builder   { b.sourcePath = p; return b }
func (b *Builder) ModelConfig(m *ModelBinding) *Builder {
	b.modelConfig = m
	return b
}

// Build validates the accumulated fields and returns an immutable Spec.
func (b *Builder) Build() (*Spec, error) {
	if err := ValidateName(b.name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(b.instructions) == "" {
		return nil, fmt.Errorf("missing required field: instructions")
	}

	tools, err := normalizeUnique(b.tools, "tool")
	if err != nil {
		return nil, err
	}
	keywords, err := normalizeUnique(b.keywords, "keyword")
	if err != nil {
		return nil, err
	}

	binding := b.modelConfig
	if binding != nil {
		if binding.Provider != "" && strings.TrimSpace(binding.Provider) == "" {
			return nil, fmt.Errorf("model_config.provider must not be blank")
		}
		if b.model != "" && binding.Model != "" && binding.Model != b.model {
			return nil, fmt.Errorf("conflicting model declarations: model=%q but model_config.model=%q", b.model, binding.Model)
		}
		if binding.Model == "" {
			bc := *binding
			bc.Model = b.model
			binding = &bc
		}
	} else if b.model != "" {
		binding = &ModelBinding{Model: b.model}
	}

	display := b.model
	if display == "" && binding != nil {
		display = binding.Model
	}

	s := &Spec{
		Name:         b.name,
		Description:  b.description,
		Model:        display,
		ModelConfig:  binding,
		Tools:        tools,
		Keywords:     keywords,
		Instructions: b.instructions,
		Source:       b.source,
		SourcePath:   b.sourcePath,
	}
	s.Fingerprint = fingerprint(s)
	return s, nil
}

// normalizeUnique trims entries, rejecting empties and duplicates.
func normalizeUnique(items []string, kind string) ([]string, error) {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, raw := range items {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, fmt.Errorf("%ss must be non-empty strings", kind)
		}
		if seen[trimmed] {
			return nil, fmt.Errorf("duplicate %s entry %q", kind, trimmed)
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out, nil
}

// fingerprint hashes the fields that affect execution behavior.
func fingerprint(s *Spec) string {
	h := sha1.New()
	h.Write([]byte(s.Name))
	h.Write([]byte(s.Instructions))
	h.Write([]byte(s.Model))
	if c := s.ModelConfig; c != nil {
		h.Write([]byte(c.Provider))
		h.Write([]byte(c.Model))
		h.Write([]byte(c.Endpoint))
		keys := make([]string, 0, len(c.Parameters))
		for k := range c.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			if data, err := json.Marshal(c.Parameters[k]); err == nil {
				h.Write(data)
			}
		}
	}
	for _, t := range s.Tools {
		h.Write([]byte(t))
	}
	for _, k := range s.Keywords {
		h.Write([]byte(k))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
