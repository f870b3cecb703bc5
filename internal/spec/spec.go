// Package spec defines subagent specifications and their file format.
package spec

// Source identifies where a specification was loaded from.
// Precedence when names collide: Project > User > Builtin.
type Source int

const (
	SourceInline Source = iota
	SourceBuiltin
	SourceUser
	SourceProject
)

// String returns a human-readable scope name.
func (s Source) String() string {
	switch s {
	case SourceProject:
		return "project"
	case SourceUser:
		return "user"
	case SourceBuiltin:
		return "builtin"
	default:
		return "inline"
	}
}

// ModelBinding overrides the model used for a subagent's sub-session.
// A bare `model: x` in frontmatter is shorthand for a binding with only
// Model set (provider unchanged).
type ModelBinding struct {
	Provider   string                 `yaml:"provider,omitempty"`
	Model      string                 `yaml:"model,omitempty"`
	Endpoint   string                 `yaml:"endpoint,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// Spec is an immutable, validated subagent specification.
// Construct via Builder or Parse; do not mutate after creation.
type Spec struct {
	Name        string
	Description string

	// Model is the display model label (shorthand or binding model).
	Model       string
	ModelConfig *ModelBinding

	// Tools is the closed allowlist. Empty means no tools are permitted.
	Tools    []string
	Keywords []string

	// Instructions is the task body handed verbatim to the sub-session.
	Instructions string

	Source     Source
	SourcePath string

	// Fingerprint is a content hash used for change detection.
	Fingerprint string
}

// AllowsTool reports whether the tool identifier is in the allowlist.
func (s *Spec) AllowsTool(name string) bool {
	for _, t := range s.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// ModelLabel returns the display model, or empty when the parent
// session's model applies.
func (s *Spec) ModelLabel() string {
	if s.Model != "" {
		return s.Model
	}
	if s.ModelConfig != nil {
		return s.ModelConfig.Model
	}
	return ""
}
