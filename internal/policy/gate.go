package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/agentkit/tools"

	"github.com/vinayprograms/delegate/internal/spec"
)

// Gate fronts a tool registry with an agent's allowlist. Definitions
// only advertises permitted tools, and Execute re-checks at call time
// so a model cannot invoke a tool it was never offered.
type Gate struct {
	spec     *spec.Spec
	registry *tools.Registry
	logger   *logging.Logger
}

// NewGate wraps the registry for the given agent specification.
func NewGate(s *spec.Spec, registry *tools.Registry) *Gate {
	return &Gate{
		spec:     s,
		registry: registry,
		logger:   logging.New().WithComponent("policy"),
	}
}

// Definitions returns LLM-facing definitions for the tools this agent
// may use. Tools in the allowlist but absent from the registry are
// skipped rather than failing the whole set.
func (g *Gate) Definitions() []llm.ToolDef {
	if g.registry == nil {
		return nil
	}
	var defs []llm.ToolDef
	for _, def := range g.registry.Definitions() {
		if err := Authorize(g.spec, def.Name); err != nil {
			continue
		}
		defs = append(defs, llm.ToolDef{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}
	return defs
}

// Execute authorizes and runs a single tool call.
func (g *Gate) Execute(ctx context.Context, tc llm.ToolCallResponse) (interface{}, error) {
	start := time.Now()

	if err := Authorize(g.spec, tc.Name); err != nil {
		g.logger.Warn("tool call denied", map[string]interface{}{
			"agent": g.spec.Name,
			"tool":  tc.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	if g.registry == nil {
		return nil, fmt.Errorf("no tool registry")
	}
	tool := g.registry.Get(tc.Name)
	if tool == nil {
		return nil, fmt.Errorf("tool not found: %s", tc.Name)
	}

	result, err := tool.Execute(ctx, tc.Args)
	g.logger.ToolResult(tc.Name, time.Since(start), err)
	return result, err
}
