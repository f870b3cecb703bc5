// Package orchestrator coordinates delegated runs: it resolves the
// requested agent, enforces one run at a time, applies the deadline
// and retry budget, and emits the lifecycle event stream.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/delegate/internal/events"
	"github.com/vinayprograms/delegate/internal/registry"
	"github.com/vinayprograms/delegate/internal/runner"
	"github.com/vinayprograms/delegate/internal/spec"
	"github.com/vinayprograms/delegate/internal/telemetry"
)

// Defaults for the run budget.
const (
	DefaultTimeout    = 300 * time.Second
	DefaultMaxRetries = 2
)

// Phase is the orchestrator's position in the run state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhaseExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

// Options configures an Orchestrator.
type Options struct {
	// Enabled gates all delegation. Disabled is the default posture;
	// callers resolve config and environment before constructing.
	Enabled bool
	// Timeout bounds one run including retries of the initial attempt.
	// Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is how many extra attempts a failed run gets.
	// Negative means DefaultMaxRetries; zero disables retries.
	MaxRetries int
}

// Request asks for one delegated run.
type Request struct {
	AgentName       string
	Task            string
	ParentRequestID string
}

// Result reports a finished run.
type Result struct {
	AgentName    string
	SubSessionID string
	Outcome      events.Outcome
	Output       string
	Duration     time.Duration
}

// running tracks the single in-flight run.
type running struct {
	agent      string
	subSession string
	phase      Phase
}

// Orchestrator is safe for concurrent use; concurrent Delegate calls
// beyond the first are rejected, not queued.
type Orchestrator struct {
	registry *registry.Registry
	runner   *runner.Runner
	recorder *telemetry.Recorder
	sink     events.Sink
	opts     Options
	logger   *logging.Logger

	mu      sync.Mutex
	current *running
}

// New creates an orchestrator. sink and recorder may be nil.
func New(reg *registry.Registry, run *runner.Runner, recorder *telemetry.Recorder, sink events.Sink, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Orchestrator{
		registry: reg,
		runner:   run,
		recorder: recorder,
		sink:     sink,
		opts:     opts,
		logger:   logging.New().WithComponent("orchestrator"),
	}
}

// Enable turns delegation on after construction, for callers that
// resolve an explicit override (a CLI flag) later than config.
func (o *Orchestrator) Enable() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts.Enabled = true
}

// SetTimeout overrides the per-run deadline. Non-positive values are
// ignored.
func (o *Orchestrator) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts.Timeout = d
}

func (o *Orchestrator) enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts.Enabled
}

func (o *Orchestrator) timeout() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts.Timeout
}

// Phase reports the current position in the state machine.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return PhaseIdle
	}
	return o.current.phase
}

// RunActive reports whether the given sub-session is in flight. This
// is the liveness source the conflict tracker consults.
func (o *Orchestrator) RunActive(subSessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil && o.current.subSession == subSessionID
}

// Delegate runs one task on the named agent. Exactly one Started and
// one Completed event bracket every run that gets past admission.
func (o *Orchestrator) Delegate(ctx context.Context, req Request) (*Result, error) {
	if !o.enabled() {
		return nil, ErrDisabled
	}

	subSession := uuid.NewString()
	if err := o.admit(req.AgentName, subSession); err != nil {
		return nil, err
	}
	defer o.release()

	s, err := o.resolve(req.AgentName)
	if err != nil {
		return nil, err
	}

	o.setPhase(PhaseExecuting)
	o.logger.ExecutionStart(s.Name)
	start := time.Now()

	o.emit(events.Started{
		AgentName:       s.Name,
		SubSessionID:    subSession,
		ModelLabel:      s.ModelLabel(),
		ParentRequestID: req.ParentRequestID,
	})

	out, runErr := o.runWithRetries(ctx, s, req, subSession)
	duration := time.Since(start)

	result := &Result{
		AgentName:    s.Name,
		SubSessionID: subSession,
		Duration:     duration,
	}

	completed := events.Completed{
		AgentName:    s.Name,
		SubSessionID: subSession,
		DurationMs:   duration.Milliseconds(),
	}

	switch {
	case runErr == nil:
		result.Outcome = events.OutcomeSuccess
		result.Output = out
		completed.Outcome = events.OutcomeSuccess
		completed.Output = out
	case errors.Is(runErr, context.DeadlineExceeded):
		result.Outcome = events.OutcomeTimeout
		completed.Outcome = events.OutcomeTimeout
		runErr = &TimeoutError{Agent: s.Name, Seconds: int(o.timeout().Seconds())}
		completed.Error = runErr.Error()
	case errors.Is(runErr, context.Canceled):
		result.Outcome = events.OutcomeCancelled
		completed.Outcome = events.OutcomeCancelled
		completed.Error = runErr.Error()
	default:
		result.Outcome = events.OutcomeFailure
		completed.Outcome = events.OutcomeFailure
		completed.Error = runErr.Error()
	}

	o.emit(completed)
	o.observe(s.Name, s.ModelLabel(), result.Outcome, duration)
	o.logger.ExecutionComplete(s.Name, duration, string(result.Outcome))

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// runWithRetries executes the task, retrying failed and timed-out
// attempts until the budget is spent. Each attempt gets its own
// deadline; cancellation of the parent context is never retried.
func (o *Orchestrator) runWithRetries(ctx context.Context, s *spec.Spec, req Request, subSession string) (string, error) {
	attempts := 0
	var lastErr error
	for attempts <= o.opts.MaxRetries {
		attempts++
		if attempts > 1 {
			// Pick up spec edits between attempts.
			if fresh, err := o.registry.Resolve(s.Name); err == nil {
				s = fresh
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout())
		res, err := o.runner.Run(attemptCtx, runner.Request{
			Spec:            s,
			Task:            req.Task,
			SubSessionID:    subSession,
			ParentRequestID: req.ParentRequestID,
		})
		cancel()
		if err == nil {
			return res.Output, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			// The caller cancelled (or its own deadline passed);
			// retrying would run against a dead context.
			return "", err
		}
		if attempts <= o.opts.MaxRetries {
			o.logger.Warn("run attempt failed, retrying", map[string]interface{}{
				"agent":   s.Name,
				"attempt": attempts,
				"error":   err.Error(),
			})
		}
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		return "", lastErr
	}
	return "", &SpawnError{Agent: s.Name, Attempts: attempts, Err: lastErr}
}

// admit claims the single run slot or rejects with the holder's name.
func (o *Orchestrator) admit(agent, subSession string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil {
		return &ConcurrentExecutionError{Running: o.current.agent, Requested: agent}
	}
	o.current = &running{agent: agent, subSession: subSession, phase: PhaseResolving}
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = nil
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil {
		o.current.phase = p
	}
}

func (o *Orchestrator) resolve(name string) (*spec.Spec, error) {
	s, err := o.registry.Resolve(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			var available []string
			for _, a := range o.registry.List() {
				available = append(available, a.Name)
			}
			return nil, &UnknownAgentError{Name: name, Available: available}
		}
		return nil, err
	}
	return s, nil
}

func (o *Orchestrator) emit(ev interface{}) {
	if o.sink != nil {
		o.sink.Emit(events.Wrap(ev))
	}
}

func (o *Orchestrator) observe(agent, model string, outcome events.Outcome, d time.Duration) {
	if o.recorder == nil {
		return
	}
	o.recorder.Observe(telemetry.Record{
		Agent:      agent,
		Model:      model,
		Outcome:    string(outcome),
		DurationMs: d.Milliseconds(),
	})
}
