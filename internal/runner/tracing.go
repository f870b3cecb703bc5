// Tracing instrumentation for delegated runs.
package runner

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startRunSpan starts a span covering one delegated run.
func (r *Runner) startRunSpan(ctx context.Context, agent, model string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "subagent."+agent)
	span.SetAttributes(
		attribute.String("subagent.name", agent),
		attribute.String("subagent.model", model),
	)
	return ctx, span
}

// endRunSpan ends the run span with output info.
func (r *Runner) endRunSpan(span trace.Span, output string, err error) {
	tracer := telemetry.GetTracer()
	if tracer.Debug() && output != "" {
		span.SetAttributes(attribute.String("subagent.output", truncate(output, 2000)))
	}
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
