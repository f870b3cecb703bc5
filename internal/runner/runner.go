// Package runner executes one delegated task against an LLM provider,
// dispatching tool calls through the agent's policy gate.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/credentials"
	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/agentkit/tools"

	"github.com/vinayprograms/delegate/internal/conflict"
	"github.com/vinayprograms/delegate/internal/events"
	"github.com/vinayprograms/delegate/internal/policy"
	"github.com/vinayprograms/delegate/internal/session"
	"github.com/vinayprograms/delegate/internal/spec"
)

// Request describes one delegated task to execute.
type Request struct {
	Spec            *spec.Spec
	Task            string
	SubSessionID    string
	ParentRequestID string
}

// Result is the output of a completed run.
type Result struct {
	Output    string
	Model     string
	ToolsUsed []string
	TokensIn  int
	TokensOut int
}

// Runner drives the chat loop for delegated tasks. It is safe to
// share one Runner across runs; per-run state lives on the stack.
type Runner struct {
	registry        *tools.Registry
	conflicts       *conflict.Tracker
	sink            events.Sink
	sessions        *session.Manager
	creds           *credentials.Credentials
	defaultProvider llm.Provider
	maxTokens       int
	logger          *logging.Logger
}

// New creates a runner. registry may be nil for tool-less agents;
// sink and sessions may be nil to disable event delivery and the
// run log respectively.
func New(registry *tools.Registry, conflicts *conflict.Tracker, sink events.Sink, sessions *session.Manager) *Runner {
	return &Runner{
		registry:  registry,
		conflicts: conflicts,
		sink:      sink,
		sessions:  sessions,
		logger:    logging.New().WithComponent("runner"),
	}
}

// SetDefaultProvider sets the provider used when a spec carries no
// model binding or its binding cannot be constructed.
func (r *Runner) SetDefaultProvider(p llm.Provider) { r.defaultProvider = p }

// SetCredentials supplies API keys for per-spec providers.
func (r *Runner) SetCredentials(c *credentials.Credentials) { r.creds = c }

// SetMaxTokens caps response size for per-spec providers.
func (r *Runner) SetMaxTokens(n int) { r.maxTokens = n }

// Run executes the request's chat loop until the model stops calling
// tools, then returns its final message as the result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	s := req.Spec
	start := time.Now()
	stepID := fmt.Sprintf("subagent:%s", s.Name)
	r.logger.PhaseStart("EXECUTE", s.Name, stepID)

	provider := r.providerFor(s)
	if provider == nil {
		r.logger.PhaseComplete("EXECUTE", s.Name, stepID, time.Since(start), "error")
		return nil, fmt.Errorf("no LLM provider available for agent %q", s.Name)
	}

	ctx, span := r.startRunSpan(ctx, s.Name, s.ModelLabel())

	var sess *session.Session
	if r.sessions != nil {
		var err error
		sess, err = r.sessions.Create(req.SubSessionID, s.Name, req.Task)
		if err != nil {
			r.logger.Warn("run log unavailable", map[string]interface{}{
				"agent": s.Name,
				"error": err.Error(),
			})
			sess = nil
		}
	}

	gate := policy.NewGate(s, r.registry)
	messages := []llm.Message{
		{Role: "system", Content: s.Instructions},
		{Role: "user", Content: req.Task},
	}
	if sess != nil {
		sess.AddEvent(session.Event{Type: session.EventUser, Agent: s.Name, Content: req.Task})
	}

	// Depth is capped at one: delegated agents never spawn further.
	var toolDefs []llm.ToolDef
	for _, def := range gate.Definitions() {
		if def.Name != "spawn_agent" {
			toolDefs = append(toolDefs, def)
		}
	}

	result := &Result{}
	toolsUsed := make(map[string]bool)

	for {
		resp, err := provider.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    toolDefs,
		})
		if err != nil {
			r.logger.PhaseComplete("EXECUTE", s.Name, stepID, time.Since(start), "error")
			r.finishSession(sess, statusForErr(err), "", err)
			r.endRunSpan(span, "", err)
			return nil, fmt.Errorf("agent %q LLM error: %w", s.Name, err)
		}

		result.Model = resp.Model
		result.TokensIn += resp.InputTokens
		result.TokensOut += resp.OutputTokens

		if resp.Content != "" {
			r.emitMessage(s.Name, req.SubSessionID, resp.Content)
		}
		if sess != nil {
			sess.AddEvent(session.Event{
				Type:    session.EventAssistant,
				Agent:   s.Name,
				Content: resp.Content,
				Meta: &session.EventMeta{
					Model:     resp.Model,
					TokensIn:  resp.InputTokens,
					TokensOut: resp.OutputTokens,
				},
			})
		}

		if len(resp.ToolCalls) == 0 {
			for tool := range toolsUsed {
				result.ToolsUsed = append(result.ToolsUsed, tool)
			}
			result.Output = resp.Content
			r.logger.PhaseComplete("EXECUTE", s.Name, stepID, time.Since(start), "complete")
			r.finishSession(sess, session.StatusComplete, resp.Content, nil)
			r.endRunSpan(span, resp.Content, nil)
			return result, nil
		}

		for _, tc := range resp.ToolCalls {
			toolsUsed[tc.Name] = true
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			messages = append(messages, r.dispatchTool(ctx, gate, sess, req, tc))
		}
	}
}

// dispatchTool runs one tool call and renders its outcome as a tool
// message for the conversation.
func (r *Runner) dispatchTool(ctx context.Context, gate *policy.Gate, sess *session.Session, req Request, tc llm.ToolCallResponse) llm.Message {
	start := time.Now()
	agent := req.Spec.Name

	if sess != nil {
		sess.AddEvent(session.Event{Type: session.EventToolCall, Agent: agent, Tool: tc.Name, Args: tc.Args})
	}

	// Denied calls must leave no trace in the conflict tracker, so the
	// allowlist check comes before any attribution is recorded. The gate
	// re-checks on Execute and produces the denial message.
	if policy.Authorize(req.Spec, tc.Name) == nil {
		if msg, stop := r.checkConflict(sess, req, tc); stop {
			return msg
		}
	}

	result, err := gate.Execute(ctx, tc)
	content := renderToolResult(result, err)

	if sess != nil {
		ok := err == nil
		evt := session.Event{
			Type:       session.EventToolResult,
			Agent:      agent,
			Tool:       tc.Name,
			Success:    &ok,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			evt.Error = err.Error()
		}
		sess.AddEvent(evt)
	}

	return llm.Message{Role: "tool", ToolCallID: tc.ID, Content: content}
}

// checkConflict records mutating writes with the conflict tracker.
// Blocked writes are refused and reported back to the model.
func (r *Runner) checkConflict(sess *session.Session, req Request, tc llm.ToolCallResponse) (llm.Message, bool) {
	d, ok := policy.Lookup(tc.Name)
	if !ok || d.Kind != policy.KindMutating || r.conflicts == nil {
		return llm.Message{}, false
	}
	path, _ := tc.Args["path"].(string)
	if path == "" {
		return llm.Message{}, false
	}

	c := r.conflicts.RecordAndClassify(path, req.Spec.Name, req.SubSessionID)
	if c.Severity == conflict.Clear {
		return llm.Message{}, false
	}

	if sess != nil {
		sess.AddEvent(session.Event{
			Type:  session.EventConflict,
			Agent: req.Spec.Name,
			Tool:  tc.Name,
			Meta: &session.EventMeta{
				Path:          path,
				Severity:      c.Severity.String(),
				PreviousAgent: c.PreviousAgent,
			},
		})
	}

	if c.Severity == conflict.Blocked {
		content := fmt.Sprintf("Error: %s is currently being modified by agent %q; leave it alone and work around it", path, c.PreviousAgent)
		return llm.Message{Role: "tool", ToolCallID: tc.ID, Content: content}, true
	}
	return llm.Message{}, false
}

func (r *Runner) emitMessage(agent, subSession, content string) {
	if r.sink == nil {
		return
	}
	r.sink.Emit(events.Wrap(events.Message{
		AgentName:    agent,
		SubSessionID: subSession,
		Content:      content,
	}))
}

func statusForErr(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return session.StatusTimedOut
	case errors.Is(err, context.Canceled):
		return session.StatusCancelled
	default:
		return session.StatusFailed
	}
}

func (r *Runner) finishSession(sess *session.Session, status, result string, err error) {
	if sess == nil || r.sessions == nil {
		return
	}
	sess.Status = status
	sess.Result = result
	if err != nil {
		sess.Error = err.Error()
	}
	if saveErr := r.sessions.Update(sess); saveErr != nil {
		r.logger.Warn("failed to save run log", map[string]interface{}{
			"run":   sess.ID,
			"error": saveErr.Error(),
		})
	}
}

func renderToolResult(result interface{}, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	switch v := result.(type) {
	case string:
		return v
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}
