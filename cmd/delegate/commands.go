package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/vinayprograms/delegate/internal/events"
	"github.com/vinayprograms/delegate/internal/orchestrator"
	"github.com/vinayprograms/delegate/internal/policy"
	"github.com/vinayprograms/delegate/internal/registry"
	"github.com/vinayprograms/delegate/internal/session"
	"github.com/vinayprograms/delegate/internal/setup"
	"github.com/vinayprograms/delegate/internal/telemetry"
)

// Run implements the list command.
func (c *ListCmd) Run(app *App) error {
	specs := app.Registry.List()

	if c.JSON {
		type entry struct {
			Name        string   `json:"name"`
			Description string   `json:"description,omitempty"`
			Model       string   `json:"model,omitempty"`
			Tools       []string `json:"tools"`
			Keywords    []string `json:"keywords,omitempty"`
			Source      string   `json:"source"`
			Path        string   `json:"path,omitempty"`
		}
		type parseError struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		}
		type listing struct {
			Agents      []entry      `json:"agents"`
			ParseErrors []parseError `json:"parse_errors,omitempty"`
		}
		out := listing{Agents: make([]entry, 0, len(specs))}
		for _, s := range specs {
			out.Agents = append(out.Agents, entry{
				Name:        s.Name,
				Description: s.Description,
				Model:       s.ModelLabel(),
				Tools:       s.Tools,
				Keywords:    s.Keywords,
				Source:      s.Source.String(),
				Path:        s.SourcePath,
			})
		}
		for _, e := range app.Registry.Errors() {
			out.ParseErrors = append(out.ParseErrors, parseError{Path: e.Path, Message: e.Message})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(specs) == 0 {
		fmt.Println("No agents found.")
		return nil
	}

	fmt.Println(titleStyle.Render("Available agents"))
	for _, s := range specs {
		line := fmt.Sprintf("  %s %s",
			agentStyle.Render(s.Name),
			dimStyle.Render("["+s.Source.String()+"]"))
		if s.Description != "" {
			line += "  " + s.Description
		}
		fmt.Println(line)
		if len(s.Tools) > 0 {
			fmt.Printf("    %s %s\n",
				labelStyle.Render("tools:"),
				toolStyle.Render(strings.Join(s.Tools, ", ")))
		}
	}

	if errs := app.Registry.Errors(); len(errs) > 0 {
		fmt.Println()
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d spec file(s) failed to parse:", len(errs))))
		for _, e := range errs {
			fmt.Printf("  %s: %s\n", e.Path, errorStyle.Render(e.Message))
		}
	}
	return nil
}

// Run implements the run command.
func (c *RunCmd) Run(app *App) error {
	if c.Enable {
		app.Orch.Enable()
	}
	if c.Timeout > 0 {
		app.Orch.SetTimeout(time.Duration(c.Timeout) * time.Second)
	}

	agent := c.Agent
	if c.Route {
		s, err := app.Orch.RouteOne(c.Task)
		if err != nil {
			return err
		}
		agent = s.Name
		fmt.Printf("%s %s\n", labelStyle.Render("routed to:"), agentStyle.Render(agent))
	}
	if agent == "" {
		return fmt.Errorf("name an agent or pass --route")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.Config.Subagents.Watch {
		go app.Registry.Watch(ctx, nil)
	}

	res, err := app.Orch.Delegate(ctx, orchestrator.Request{
		AgentName: agent,
		Task:      c.Task,
	})
	if res != nil {
		app.Conflicts.ReleaseRun(res.SubSessionID)
	}
	if err != nil {
		return err
	}

	fmt.Println(res.Output)
	fmt.Printf("\n%s %s %s\n",
		labelStyle.Render("outcome:"),
		outcomeStyle(res.Outcome).Render(string(res.Outcome)),
		dimStyle.Render(fmt.Sprintf("(%s, run %s)", res.Duration.Round(time.Millisecond), res.SubSessionID)))
	return nil
}

func outcomeStyle(o events.Outcome) lipgloss.Style {
	switch o {
	case events.OutcomeSuccess:
		return successStyle
	case events.OutcomeTimeout, events.OutcomeCancelled:
		return warnStyle
	default:
		return errorStyle
	}
}

// Run implements the validate command.
func (c *ValidateCmd) Run(app *App) error {
	reg := app.Registry
	if c.Dir != "" {
		reg = registry.New(c.Dir, "")
	}
	report := reg.Reload()

	failures := len(report.Errors)
	fmt.Printf("%s agent(s) loaded\n", successStyle.Render(fmt.Sprintf("%d", report.Loaded)))
	for _, e := range report.Errors {
		fmt.Printf("  %s: %s\n", e.Path, errorStyle.Render(e.Message))
	}
	for _, s := range reg.List() {
		if err := policy.Validate(s); err != nil {
			failures++
			label := s.SourcePath
			if label == "" {
				label = s.Name
			}
			fmt.Printf("  %s: %s\n", label, errorStyle.Render(err.Error()))
		}
	}
	if failures == 0 {
		return nil
	}
	return fmt.Errorf("%d spec file(s) failed validation", failures)
}

// Run implements the show command.
func (c *ShowCmd) Run(app *App) error {
	s, err := app.Registry.Resolve(c.Agent)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(s.Name))
	if s.Description != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("description:"), s.Description)
	}
	fmt.Printf("%s %s\n", labelStyle.Render("source:"), s.Source.String())
	if s.SourcePath != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("path:"), s.SourcePath)
	}
	if m := s.ModelLabel(); m != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("model:"), m)
	}
	if len(s.Tools) > 0 {
		fmt.Printf("%s %s\n", labelStyle.Render("tools:"), toolStyle.Render(strings.Join(s.Tools, ", ")))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("tools:"), dimStyle.Render("none"))
	}
	if len(s.Keywords) > 0 {
		fmt.Printf("%s %s\n", labelStyle.Render("keywords:"), strings.Join(s.Keywords, ", "))
	}
	fmt.Printf("%s %s\n", labelStyle.Render("fingerprint:"), dimStyle.Render(s.Fingerprint))

	fmt.Println()
	fmt.Println(titleStyle.Render("Instructions"))
	fmt.Println(wordwrap.String(s.Instructions, c.Width))
	return nil
}

// Run implements the route command.
func (c *RouteCmd) Run(app *App) error {
	suggestions := app.Orch.Route(c.Task)
	if len(suggestions) == 0 {
		fmt.Println("No agent matches the task.")
		return nil
	}
	for _, sug := range suggestions {
		fmt.Printf("  %s %s %s\n",
			agentStyle.Render(sug.Agent.Name),
			dimStyle.Render(fmt.Sprintf("(score %d)", sug.Score)),
			labelStyle.Render("matched: ")+strings.Join(sug.Matched, ", "))
	}
	return nil
}

// Run implements the stats command. The recorder is per-process, so
// statistics are rebuilt from the persisted run logs.
func (c *StatsCmd) Run(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("session persistence is disabled; no run history to summarize")
	}

	ids, err := app.Store.List()
	if err != nil {
		return fmt.Errorf("listing run logs: %w", err)
	}
	for _, id := range ids {
		sess, err := app.Store.Load(id)
		if err != nil {
			continue
		}
		app.Recorder.Observe(telemetry.Record{
			Agent:      sess.Agent,
			Outcome:    string(outcomeForStatus(sess.Status)),
			DurationMs: sess.UpdatedAt.Sub(sess.CreatedAt).Milliseconds(),
			Timestamp:  sess.CreatedAt,
		})
	}

	ranking := app.Recorder.Ranking()
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	}

	if len(ranking) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	fmt.Println(titleStyle.Render("Usage by agent"))
	for _, s := range ranking {
		fmt.Printf("  %s %s\n",
			agentStyle.Render(s.Agent),
			dimStyle.Render(fmt.Sprintf("%d run(s), %.0f%% success, avg %dms",
				s.Count, s.SuccessRate*100, s.AvgDurationMs)))
	}
	return nil
}

func outcomeForStatus(status string) events.Outcome {
	switch status {
	case session.StatusComplete:
		return events.OutcomeSuccess
	case session.StatusTimedOut:
		return events.OutcomeTimeout
	case session.StatusCancelled:
		return events.OutcomeCancelled
	default:
		return events.OutcomeFailure
	}
}

// Run implements the setup command.
func (c *SetupCmd) Run(app *App) error {
	return setup.Run()
}
