package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vinayprograms/delegate/internal/spec"
)

// Suggestion is one candidate agent for a task, with the keywords
// that matched.
type Suggestion struct {
	Agent   *spec.Spec
	Score   int
	Matched []string
}

// Route suggests agents for a task by keyword overlap. Matching is
// plain substring search over the lowercased task; agents without
// keywords never match. Results are ordered best-first.
func (o *Orchestrator) Route(task string) []Suggestion {
	lowered := strings.ToLower(task)
	var out []Suggestion
	for _, s := range o.registry.List() {
		var matched []string
		for _, kw := range s.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, Suggestion{Agent: s, Score: len(matched), Matched: matched})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Agent.Name < out[j].Agent.Name
	})
	return out
}

// RouteOne returns the single best match, or an error naming the
// agents that were considered.
func (o *Orchestrator) RouteOne(task string) (*spec.Spec, error) {
	suggestions := o.Route(task)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("no agent matches the task; define keywords on your agents or name one explicitly")
	}
	return suggestions[0].Agent, nil
}
