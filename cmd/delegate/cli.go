// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config string `help:"Config file path (default: ./delegate.toml)"`

	List     ListCmd     `cmd:"" help:"List available agents"`
	Run      RunCmd      `cmd:"" help:"Delegate a task to an agent"`
	Validate ValidateCmd `cmd:"" help:"Validate agent spec files"`
	Show     ShowCmd     `cmd:"" help:"Show one agent's full specification"`
	Route    RouteCmd    `cmd:"" help:"Suggest agents for a task by keyword"`
	Stats    StatsCmd    `cmd:"" help:"Show usage statistics for recent runs"`
	Setup    SetupCmd    `cmd:"" help:"Interactive setup wizard"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// ListCmd lists agents from every scope.
type ListCmd struct {
	JSON bool `help:"Emit machine-readable JSON"`
}

// RunCmd delegates one task to an agent.
type RunCmd struct {
	Agent   string `arg:"" optional:"" help:"Agent name (omit with --route to pick by keyword)"`
	Task    string `short:"t" required:"" help:"Task for the agent"`
	Route   bool   `help:"Pick the agent by keyword match instead of naming one"`
	Timeout int    `help:"Per-run timeout in seconds (overrides config)"`
	Enable  bool   `help:"Enable delegation for this invocation even if config disables it"`
}

// ValidateCmd parses every spec file and reports errors.
type ValidateCmd struct {
	Dir string `arg:"" optional:"" help:"Directory to validate (default: configured scopes)"`
}

// ShowCmd prints one agent's resolved specification.
type ShowCmd struct {
	Agent string `arg:"" help:"Agent name"`
	Width int    `default:"80" help:"Wrap instructions at this column"`
}

// RouteCmd suggests agents for a task.
type RouteCmd struct {
	Task string `arg:"" help:"Task text to match against agent keywords"`
}

// StatsCmd summarizes persisted run logs.
type StatsCmd struct {
	JSON bool `help:"Emit machine-readable JSON"`
}

// SetupCmd runs the interactive setup wizard.
type SetupCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
