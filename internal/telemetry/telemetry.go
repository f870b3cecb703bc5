// Package telemetry keeps a bounded in-memory record of delegated
// runs for usage summaries. The buffer is a fixed-size ring: once
// full, the oldest record is dropped for each new one.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity bounds the ring when no explicit size is given.
const DefaultCapacity = 256

// Record captures the outcome of one delegated run.
type Record struct {
	Agent      string    `json:"agent"`
	Model      string    `json:"model,omitempty"`
	Outcome    string    `json:"outcome"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary aggregates the retained records for one agent.
type Summary struct {
	Agent         string  `json:"agent"`
	Count         int     `json:"count"`
	Successes     int     `json:"successes"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs int64   `json:"avg_duration_ms"`
}

// Recorder is a fixed-capacity ring of run records.
type Recorder struct {
	mu    sync.Mutex
	buf   []Record
	start int
	count int
}

// NewRecorder creates a recorder holding at most capacity records.
// Non-positive capacities fall back to DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{buf: make([]Record, capacity)}
}

// Observe appends a record, evicting the oldest when full. Negative
// durations are clamped to zero so clock skew cannot poison averages.
func (r *Recorder) Observe(rec Record) {
	if rec.DurationMs < 0 {
		rec.DurationMs = 0
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = rec
		r.count++
		return
	}
	r.buf[r.start] = rec
	r.start = (r.start + 1) % len(r.buf)
}

// Len reports how many records are currently retained.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Snapshot returns retained records oldest-first.
func (r *Recorder) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// Summarize aggregates the retained records for one agent. A zero
// Count means no records survive for that agent.
func (r *Recorder) Summarize(agent string) Summary {
	s := Summary{Agent: agent}
	var totalMs int64
	for _, rec := range r.Snapshot() {
		if rec.Agent != agent {
			continue
		}
		s.Count++
		totalMs += rec.DurationMs
		if rec.Outcome == "success" {
			s.Successes++
		}
	}
	if s.Count > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Count)
		s.AvgDurationMs = totalMs / int64(s.Count)
	}
	return s
}

// Ranking returns per-agent summaries ordered by run count, then
// name for a stable tiebreak.
func (r *Recorder) Ranking() []Summary {
	agents := make(map[string]bool)
	for _, rec := range r.Snapshot() {
		agents[rec.Agent] = true
	}
	out := make([]Summary, 0, len(agents))
	for agent := range agents {
		out = append(out, r.Summarize(agent))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Agent < out[j].Agent
	})
	return out
}
