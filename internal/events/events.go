// Package events defines the lifecycle notifications emitted while a
// delegated run executes. Every run produces exactly one Started, any
// number of Message events, then exactly one Completed.
package events

import (
	"sync"
	"time"
)

// Outcome is the terminal status of a delegated run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// Started announces that a delegated run has begun.
type Started struct {
	AgentName       string `json:"agent_name"`
	SubSessionID    string `json:"sub_session_id"`
	ModelLabel      string `json:"model_label,omitempty"`
	ParentRequestID string `json:"parent_request_id,omitempty"`
}

// Message carries one assistant turn produced during the run.
type Message struct {
	AgentName    string `json:"agent_name"`
	SubSessionID string `json:"sub_session_id"`
	Content      string `json:"content"`
}

// Completed closes a run with its outcome and final output.
type Completed struct {
	AgentName    string  `json:"agent_name"`
	SubSessionID string  `json:"sub_session_id"`
	Outcome      Outcome `json:"outcome"`
	Output       string  `json:"output,omitempty"`
	Error        string  `json:"error,omitempty"`
	DurationMs   int64   `json:"duration_ms"`
}

// Envelope wraps any event with its kind and timestamp for transport
// and persistence.
type Envelope struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Event     interface{} `json:"event"`
}

// Sink receives lifecycle events in emission order. Implementations
// must tolerate being called from the run's goroutine.
type Sink interface {
	Emit(e Envelope)
}

// kindOf names the event type on the wire.
func kindOf(ev interface{}) string {
	switch ev.(type) {
	case Started, *Started:
		return "started"
	case Message, *Message:
		return "message"
	case Completed, *Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Wrap stamps an event into an Envelope.
func Wrap(ev interface{}) Envelope {
	return Envelope{Kind: kindOf(ev), Timestamp: time.Now().UTC(), Event: ev}
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Emit(e Envelope) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Collector is an in-memory sink used by tests and the session log.
type Collector struct {
	mu     sync.Mutex
	events []Envelope
}

func (c *Collector) Emit(e Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a snapshot of everything emitted so far.
func (c *Collector) Events() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.events))
	copy(out, c.events)
	return out
}
