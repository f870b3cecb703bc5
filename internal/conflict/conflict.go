// Package conflict attributes workspace writes to the agent that made
// them and classifies contention when two agents touch the same path.
package conflict

import (
	"sync"

	"github.com/vinayprograms/agentkit/logging"
)

// Severity ranks how serious a detected overlap is.
type Severity int

const (
	// Clear means the path is unclaimed or last written by the same agent.
	Clear Severity = iota
	// Warning means a different agent wrote the path earlier but its
	// run has finished; the change may still be stepped on.
	Warning
	// Blocked means a different agent with a live run owns the path.
	Blocked
)

func (s Severity) String() string {
	switch s {
	case Clear:
		return "clear"
	case Warning:
		return "warning"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Classification is the outcome of recording one write attempt.
type Classification struct {
	Severity      Severity
	Path          string
	PreviousAgent string
	PreviousRun   string
}

// ActivitySource reports whether a delegated run is still in flight.
// The orchestrator implements this; tests substitute a stub.
type ActivitySource interface {
	RunActive(subSessionID string) bool
}

type record struct {
	agent      string
	subSession string
}

// Tracker remembers the last agent to write each path.
type Tracker struct {
	mu       sync.Mutex
	touched  map[string]record
	activity ActivitySource
	logger   *logging.Logger
}

// NewTracker creates a tracker that consults src for run liveness.
func NewTracker(src ActivitySource) *Tracker {
	return &Tracker{
		touched:  make(map[string]record),
		activity: src,
		logger:   logging.New().WithComponent("conflict"),
	}
}

// RecordAndClassify notes that agent (in run subSession) is writing
// path and reports how that overlaps with previous writers. A Blocked
// result leaves the existing claim in place so the live owner keeps
// attribution; Clear and Warning transfer the claim to the new writer.
func (t *Tracker) RecordAndClassify(path, agent, subSession string) Classification {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, seen := t.touched[path]
	if !seen || prev.agent == agent {
		t.touched[path] = record{agent: agent, subSession: subSession}
		return Classification{Severity: Clear, Path: path}
	}

	c := Classification{
		Path:          path,
		PreviousAgent: prev.agent,
		PreviousRun:   prev.subSession,
	}
	if t.activity != nil && t.activity.RunActive(prev.subSession) {
		c.Severity = Blocked
		t.logger.Warn("write blocked by active run", map[string]interface{}{
			"path":   path,
			"agent":  agent,
			"holder": prev.agent,
		})
		return c
	}

	c.Severity = Warning
	t.touched[path] = record{agent: agent, subSession: subSession}
	t.logger.Warn("overlapping write", map[string]interface{}{
		"path":     path,
		"agent":    agent,
		"previous": prev.agent,
	})
	return c
}

// Touched returns the agent currently credited with a path, if any.
func (t *Tracker) Touched(path string) (agent string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.touched[path]
	return r.agent, ok
}

// ReleaseRun drops claims held by a finished run so later writers are
// classified against history, not a dead owner.
func (t *Tracker) ReleaseRun(subSession string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, r := range t.touched {
		if r.subSession == subSession {
			t.touched[path] = record{agent: r.agent, subSession: ""}
		}
	}
}

// Reset clears all recorded claims.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched = make(map[string]record)
}
