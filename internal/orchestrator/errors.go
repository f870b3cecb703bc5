package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDisabled is returned when delegation has not been enabled.
var ErrDisabled = errors.New("subagent delegation is disabled")

// UnknownAgentError reports a delegation to a name no scope defines.
type UnknownAgentError struct {
	Name      string
	Available []string
}

func (e *UnknownAgentError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown agent %q (no agents are defined)", e.Name)
	}
	return fmt.Sprintf("unknown agent %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// ConcurrentExecutionError reports a delegation rejected because
// another run is already in flight.
type ConcurrentExecutionError struct {
	Running   string
	Requested string
}

func (e *ConcurrentExecutionError) Error() string {
	return fmt.Sprintf("agent %q is already running; cannot start %q until it finishes", e.Running, e.Requested)
}

// TimeoutError reports a run cancelled for exceeding its deadline.
type TimeoutError struct {
	Agent   string
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent %q timed out after %ds", e.Agent, e.Seconds)
}

// SpawnError reports a run that failed before or during execution,
// after retries were exhausted.
type SpawnError struct {
	Agent    string
	Attempts int
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("agent %q failed after %d attempt(s): %v", e.Agent, e.Attempts, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
