package main

import (
	"fmt"

	"github.com/vinayprograms/delegate/internal/events"
)

// consoleSink prints lifecycle events as they arrive so a long run is
// visible before its final output. Completed is skipped; the run
// command prints the outcome summary itself.
type consoleSink struct{}

func (consoleSink) Emit(e events.Envelope) {
	switch ev := e.Event.(type) {
	case events.Started:
		line := agentStyle.Render(ev.AgentName) + dimStyle.Render(" started")
		if ev.ModelLabel != "" {
			line += dimStyle.Render(" (model: " + ev.ModelLabel + ")")
		}
		fmt.Println(line)
	case events.Message:
		fmt.Println(dimStyle.Render(ev.Content))
	}
}
