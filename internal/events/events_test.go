package events

import (
	"encoding/json"
	"testing"
)

func TestWrap_Kinds(t *testing.T) {
	cases := []struct {
		ev   interface{}
		kind string
	}{
		{Started{AgentName: "reviewer"}, "started"},
		{Message{AgentName: "reviewer", Content: "looking"}, "message"},
		{Completed{AgentName: "reviewer", Outcome: OutcomeSuccess}, "completed"},
	}
	for _, c := range cases {
		env := Wrap(c.ev)
		if env.Kind != c.kind {
			t.Errorf("Wrap(%T).Kind = %q, want %q", c.ev, env.Kind, c.kind)
		}
		if env.Timestamp.IsZero() {
			t.Errorf("Wrap(%T) left timestamp unset", c.ev)
		}
	}
}

// The wire shape consumed by external subscribers: kind and timestamp
// at the top level, the event payload nested under "event".
func TestEnvelope_WireShape(t *testing.T) {
	env := Wrap(Completed{
		AgentName:    "reviewer",
		SubSessionID: "run-1",
		Outcome:      OutcomeTimeout,
		Error:        "deadline exceeded",
		DurationMs:   300000,
	})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Kind  string `json:"kind"`
		Event struct {
			AgentName  string `json:"agent_name"`
			Outcome    string `json:"outcome"`
			DurationMs int64  `json:"duration_ms"`
		} `json:"event"`
	}
	// Decoding into a narrower struct mirrors subscribers that ignore
	// fields they do not know.
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != "completed" {
		t.Errorf("kind = %q", decoded.Kind)
	}
	if decoded.Event.Outcome != "timeout" {
		t.Errorf("outcome = %q", decoded.Event.Outcome)
	}
	if decoded.Event.DurationMs != 300000 {
		t.Errorf("duration_ms = %d", decoded.Event.DurationMs)
	}
}

func TestMulti_FansOut(t *testing.T) {
	var a, b Collector
	m := Multi{&a, &b}

	m.Emit(Wrap(Started{AgentName: "tester", SubSessionID: "run-2"}))

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("fan-out missed a sink: %d, %d", len(a.Events()), len(b.Events()))
	}
	if a.Events()[0].Kind != "started" {
		t.Errorf("kind = %q", a.Events()[0].Kind)
	}
}

func TestCollector_SnapshotIsolated(t *testing.T) {
	var c Collector
	c.Emit(Wrap(Message{AgentName: "tester", Content: "one"}))

	snap := c.Events()
	c.Emit(Wrap(Message{AgentName: "tester", Content: "two"}))

	if len(snap) != 1 {
		t.Errorf("snapshot grew after later emits: %d", len(snap))
	}
	if len(c.Events()) != 2 {
		t.Errorf("collector lost an event: %d", len(c.Events()))
	}
}
