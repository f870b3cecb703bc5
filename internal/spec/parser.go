package spec

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML metadata block at the top of a spec file.
type frontmatter struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Model       string        `yaml:"model"`
	ModelConfig *ModelBinding `yaml:"model_config"`
	Tools       []string      `yaml:"tools"`
	Keywords    []string      `yaml:"keywords"`
}

// ParseFile loads and parses a specification file.
func ParseFile(path string, source Source) (*Spec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	s, err := Parse(string(content), source)
	if err != nil {
		return nil, err
	}
	s.SourcePath = path
	return s, nil
}

// Parse parses spec file content: a `---`-delimited YAML frontmatter
// block followed by the free-text instruction body. The body is trimmed
// of surrounding blank lines and stored verbatim.
func Parse(content string, source Source) (*Spec, error) {
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	b := NewBuilder(fm.Name).
		Description(fm.Description).
		Model(fm.Model).
		ModelConfig(fm.ModelConfig).
		Instructions(strings.TrimSpace(body)).
		Source(source)
	if fm.Tools != nil {
		b = b.Tools(fm.Tools...)
	}
	if fm.Keywords != nil {
		b = b.Keywords(fm.Keywords...)
	}
	return b.Build()
}

// splitFrontmatter extracts the YAML metadata block from spec markdown.
func splitFrontmatter(content string) (meta, body string, err error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", fmt.Errorf("missing frontmatter delimiter")
	}

	var metaLines []string
	bodyStart := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			bodyStart = i + 1
			break
		}
		metaLines = append(metaLines, lines[i])
	}
	if bodyStart < 0 {
		return "", "", fmt.Errorf("unclosed frontmatter")
	}

	meta = strings.Join(metaLines, "\n")
	if bodyStart < len(lines) {
		body = strings.Join(lines[bodyStart:], "\n")
	}
	return meta, body, nil
}
