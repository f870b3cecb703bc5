package telemetry

import (
	"fmt"
	"testing"
)

func TestRecorder_EvictsOldestWhenFull(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Observe(Record{Agent: fmt.Sprintf("agent-%d", i), Outcome: "success"})
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 retained, got %d", r.Len())
	}
	snap := r.Snapshot()
	if snap[0].Agent != "agent-2" || snap[2].Agent != "agent-4" {
		t.Errorf("expected oldest-first [agent-2..agent-4], got %v", snap)
	}
}

func TestRecorder_NegativeDurationClamped(t *testing.T) {
	r := NewRecorder(4)
	r.Observe(Record{Agent: "reviewer", Outcome: "success", DurationMs: -50})
	if got := r.Snapshot()[0].DurationMs; got != 0 {
		t.Errorf("expected clamped duration 0, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	r := NewRecorder(8)
	r.Observe(Record{Agent: "reviewer", Outcome: "success", DurationMs: 100})
	r.Observe(Record{Agent: "reviewer", Outcome: "failure", DurationMs: 300})
	r.Observe(Record{Agent: "tester", Outcome: "success", DurationMs: 50})

	s := r.Summarize("reviewer")
	if s.Count != 2 || s.Successes != 1 {
		t.Fatalf("expected 2 runs / 1 success, got %+v", s)
	}
	if s.SuccessRate != 0.5 {
		t.Errorf("expected rate 0.5, got %f", s.SuccessRate)
	}
	if s.AvgDurationMs != 200 {
		t.Errorf("expected avg 200ms, got %d", s.AvgDurationMs)
	}

	if empty := r.Summarize("ghost"); empty.Count != 0 {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}

func TestSummariesRespectEviction(t *testing.T) {
	r := NewRecorder(2)
	r.Observe(Record{Agent: "reviewer", Outcome: "failure"})
	r.Observe(Record{Agent: "reviewer", Outcome: "success"})
	r.Observe(Record{Agent: "reviewer", Outcome: "success"})

	s := r.Summarize("reviewer")
	if s.Count != 2 || s.SuccessRate != 1.0 {
		t.Errorf("expected evicted failure to drop out, got %+v", s)
	}
}

func TestRanking(t *testing.T) {
	r := NewRecorder(8)
	r.Observe(Record{Agent: "tester", Outcome: "success"})
	r.Observe(Record{Agent: "reviewer", Outcome: "success"})
	r.Observe(Record{Agent: "reviewer", Outcome: "success"})

	ranked := r.Ranking()
	if len(ranked) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(ranked))
	}
	if ranked[0].Agent != "reviewer" || ranked[1].Agent != "tester" {
		t.Errorf("expected reviewer first, got %v", ranked)
	}
}

func TestNewRecorder_DefaultCapacity(t *testing.T) {
	r := NewRecorder(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		r.Observe(Record{Agent: "reviewer", Outcome: "success"})
	}
	if r.Len() != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, r.Len())
	}
}
