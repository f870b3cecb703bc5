package main

import (
	"fmt"
	"os"

	"github.com/vinayprograms/agentkit/llm"
	akpolicy "github.com/vinayprograms/agentkit/policy"
	"github.com/vinayprograms/agentkit/tools"

	"github.com/vinayprograms/delegate/internal/agents"
	"github.com/vinayprograms/delegate/internal/config"
	"github.com/vinayprograms/delegate/internal/conflict"
	"github.com/vinayprograms/delegate/internal/events"
	"github.com/vinayprograms/delegate/internal/orchestrator"
	"github.com/vinayprograms/delegate/internal/registry"
	"github.com/vinayprograms/delegate/internal/runner"
	"github.com/vinayprograms/delegate/internal/session"
	"github.com/vinayprograms/delegate/internal/telemetry"
)

// App holds the wired components shared by all commands.
type App struct {
	Config    *config.Config
	Registry  *registry.Registry
	Conflicts *conflict.Tracker
	Recorder  *telemetry.Recorder
	Sessions  *session.Manager
	Store     *session.FileStore
	Runner    *runner.Runner
	Orch      *orchestrator.Orchestrator

	nats *events.NATSPublisher
}

// liveRuns defers the activity lookup to the orchestrator, which is
// constructed after the conflict tracker it feeds.
type liveRuns struct {
	orch *orchestrator.Orchestrator
}

func (l *liveRuns) RunActive(subSessionID string) bool {
	if l.orch == nil {
		return false
	}
	return l.orch.RunActive(subSessionID)
}

func newApp(configPath string) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.Subagents.ProjectDir, cfg.Subagents.UserDir).
		WithBuiltins(agents.Builtins()...)
	reg.Reload()

	pol := akpolicy.New()
	if wd, err := os.Getwd(); err == nil {
		pol.Workspace = wd
	}
	toolReg := tools.NewRegistry(pol)

	activity := &liveRuns{}
	tracker := conflict.NewTracker(activity)

	sinks := events.Multi{consoleSink{}}
	var natsPub *events.NATSPublisher
	if cfg.Events.NATSEnabled {
		natsPub, err = events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}
		sinks = append(sinks, natsPub)
	}
	var sink events.Sink = sinks

	var sessions *session.Manager
	var store *session.FileStore
	if cfg.Session.Enabled {
		store, err = session.NewFileStore(cfg.Session.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		sessions = session.NewManager(store)
	}

	run := runner.New(toolReg, tracker, sink, sessions)
	run.SetCredentials(globalCreds)
	run.SetMaxTokens(cfg.LLM.MaxTokens)
	if p, err := defaultProvider(cfg); err == nil {
		run.SetDefaultProvider(p)
	}

	recorder := telemetry.NewRecorder(cfg.Telemetry.Capacity)

	orch := orchestrator.New(reg, run, recorder, sink, orchestrator.Options{
		Enabled:    cfg.DelegationEnabled(),
		Timeout:    cfg.SubagentTimeout(),
		MaxRetries: cfg.Subagents.MaxRetries,
	})
	activity.orch = orch

	return &App{
		Config:    cfg,
		Registry:  reg,
		Conflicts: tracker,
		Recorder:  recorder,
		Sessions:  sessions,
		Store:     store,
		Runner:    run,
		Orch:      orch,
		nats:      natsPub,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// defaultProvider builds the provider used when an agent carries no
// model binding of its own.
func defaultProvider(cfg *config.Config) (llm.Provider, error) {
	providerName := cfg.LLM.Provider
	if providerName == "" && cfg.LLM.Model != "" {
		providerName = llm.InferProviderFromModel(cfg.LLM.Model)
	}

	apiKey := cfg.GetAPIKey()
	if apiKey == "" && globalCreds != nil {
		apiKey = globalCreds.GetAPIKey(providerName)
	}

	return llm.NewProvider(llm.ProviderConfig{
		Provider:  providerName,
		Model:     cfg.LLM.Model,
		APIKey:    apiKey,
		MaxTokens: cfg.LLM.MaxTokens,
		BaseURL:   cfg.LLM.BaseURL,
	})
}

// Close releases external connections.
func (a *App) Close() {
	if a.nats != nil {
		a.nats.Close()
	}
}
