// Package setup provides the interactive setup wizard for delegate.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Provider options for the default model.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderGroq       = "groq"
	ProviderMistral    = "mistral"
	ProviderOpenRouter = "openrouter"
)

var providerOptions = []string{
	ProviderAnthropic,
	ProviderOpenAI,
	ProviderGoogle,
	ProviderGroq,
	ProviderMistral,
	ProviderOpenRouter,
}

// Config holds the choices made during setup.
type Config struct {
	Provider  string
	Model     string
	Enabled   bool
	AgentsDir string
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Step represents a setup wizard step.
type Step int

const (
	StepWelcome Step = iota
	StepProvider
	StepModel
	StepEnable
	StepAgentsDir
	StepConfirm
	StepWriteFiles
	StepComplete
)

// Model is the bubbletea model for the setup wizard.
type Model struct {
	step      Step
	config    Config
	cursor    int
	textInput textinput.Model
	err       error
	width     int
	height    int

	filesWritten []string
}

// New creates a new setup model.
func New() Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return Model{
		step:      StepWelcome,
		textInput: ti,
		config: Config{
			Provider:  ProviderAnthropic,
			AgentsDir: filepath.Join(".delegate", "agents"),
		},
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

type filesWrittenMsg struct{ files []string }

type errMsg struct{ error }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case filesWrittenMsg:
		m.filesWritten = msg.files
		m.step = StepComplete
		return m, nil

	case errMsg:
		m.err = msg.error
		m.step = StepComplete
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.isTextInputStep() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter":
				return m.handleEnter()
			default:
				var cmd tea.Cmd
				m.textInput, cmd = m.textInput.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.optionCount()-1 {
				m.cursor++
			}
		case "enter":
			return m.handleEnter()
		}
	}
	return m, nil
}

func (m Model) isTextInputStep() bool {
	return m.step == StepModel || m.step == StepAgentsDir
}

func (m Model) optionCount() int {
	switch m.step {
	case StepProvider:
		return len(providerOptions)
	case StepEnable, StepConfirm:
		return 2
	default:
		return 1
	}
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.step = StepProvider
		m.cursor = 0

	case StepProvider:
		m.config.Provider = providerOptions[m.cursor]
		m.step = StepModel
		m.textInput.SetValue("")
		m.textInput.Placeholder = defaultModelFor(m.config.Provider)

	case StepModel:
		m.config.Model = strings.TrimSpace(m.textInput.Value())
		if m.config.Model == "" {
			m.config.Model = defaultModelFor(m.config.Provider)
		}
		m.step = StepEnable
		m.cursor = 0

	case StepEnable:
		m.config.Enabled = m.cursor == 0
		m.step = StepAgentsDir
		m.textInput.SetValue(m.config.AgentsDir)

	case StepAgentsDir:
		if v := strings.TrimSpace(m.textInput.Value()); v != "" {
			m.config.AgentsDir = v
		}
		m.step = StepConfirm
		m.cursor = 0

	case StepConfirm:
		if m.cursor == 0 {
			m.step = StepWriteFiles
			return m, writeFiles(m.config)
		}
		return m, tea.Quit

	case StepComplete:
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current step.
func (m Model) View() string {
	var b strings.Builder

	switch m.step {
	case StepWelcome:
		b.WriteString(titleStyle.Render("delegate setup"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Configure delegated subagents for this project."))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("press enter to begin, ctrl+c to quit"))

	case StepProvider:
		b.WriteString(titleStyle.Render("Default LLM provider"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Used when an agent spec has no model of its own."))
		b.WriteString("\n\n")
		for i, p := range providerOptions {
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "> "
				style = selectedStyle
			}
			b.WriteString(cursor + style.Render(p) + "\n")
		}

	case StepModel:
		b.WriteString(titleStyle.Render("Default model"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Model name for %s (empty for %s).", m.config.Provider, defaultModelFor(m.config.Provider))))
		b.WriteString("\n\n")
		b.WriteString(m.textInput.View())

	case StepEnable:
		b.WriteString(titleStyle.Render("Enable delegation now?"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("You can flip subagents.enabled in delegate.toml later."))
		b.WriteString("\n\n")
		for i, opt := range []string{"yes, enable", "no, keep disabled"} {
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "> "
				style = selectedStyle
			}
			b.WriteString(cursor + style.Render(opt) + "\n")
		}

	case StepAgentsDir:
		b.WriteString(titleStyle.Render("Project agents directory"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Where this project's agent spec files live."))
		b.WriteString("\n\n")
		b.WriteString(m.textInput.View())

	case StepConfirm:
		b.WriteString(titleStyle.Render("Review"))
		b.WriteString("\n")
		b.WriteString(normalStyle.Render(fmt.Sprintf("  provider:   %s\n", m.config.Provider)))
		b.WriteString(normalStyle.Render(fmt.Sprintf("  model:      %s\n", m.config.Model)))
		b.WriteString(normalStyle.Render(fmt.Sprintf("  enabled:    %t\n", m.config.Enabled)))
		b.WriteString(normalStyle.Render(fmt.Sprintf("  agents dir: %s\n", m.config.AgentsDir)))
		b.WriteString("\n")
		for i, opt := range []string{"write files", "cancel"} {
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "> "
				style = selectedStyle
			}
			b.WriteString(cursor + style.Render(opt) + "\n")
		}

	case StepWriteFiles:
		b.WriteString(dimStyle.Render("writing files..."))

	case StepComplete:
		if m.err != nil {
			b.WriteString(errorStyle.Render("setup failed: " + m.err.Error()))
		} else {
			b.WriteString(successStyle.Render("Setup complete."))
			b.WriteString("\n\n")
			for _, f := range m.filesWritten {
				b.WriteString(normalStyle.Render("  wrote " + f + "\n"))
			}
			b.WriteString("\n")
			b.WriteString(dimStyle.Render("try: delegate list"))
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("press enter to exit"))
	}

	return b.String() + "\n"
}

func defaultModelFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderOpenAI:
		return "gpt-5"
	case ProviderGoogle:
		return "gemini-2.5-pro"
	case ProviderGroq:
		return "llama-3.3-70b-versatile"
	case ProviderMistral:
		return "mistral-large-latest"
	default:
		return ""
	}
}

const sampleReviewer = `---
name: reviewer
description: Reviews code changes and reports findings
keywords: [review, diff]
tools: [read, grep, glob, ls]
---
You are a code reviewer for this project. Read the files or diff you
are pointed at and report concrete findings with file and line
references. Do not rewrite code.
`

// writeFiles persists delegate.toml, the agents directory, and a
// sample agent spec.
func writeFiles(cfg Config) tea.Cmd {
	return func() tea.Msg {
		var written []string

		if err := os.MkdirAll(cfg.AgentsDir, 0755); err != nil {
			return errMsg{fmt.Errorf("creating agents dir: %w", err)}
		}

		samplePath := filepath.Join(cfg.AgentsDir, "reviewer.md")
		if _, err := os.Stat(samplePath); os.IsNotExist(err) {
			if err := os.WriteFile(samplePath, []byte(sampleReviewer), 0644); err != nil {
				return errMsg{fmt.Errorf("writing sample agent: %w", err)}
			}
			written = append(written, samplePath)
		}

		type tomlConfig struct {
			Subagents struct {
				Enabled        bool   `toml:"enabled"`
				ProjectDir     string `toml:"project_dir"`
				TimeoutSeconds int    `toml:"timeout_seconds"`
				MaxRetries     int    `toml:"max_retries"`
			} `toml:"subagents"`
			LLM struct {
				Provider string `toml:"provider"`
				Model    string `toml:"model"`
			} `toml:"llm"`
		}
		var out tomlConfig
		out.Subagents.Enabled = cfg.Enabled
		out.Subagents.ProjectDir = cfg.AgentsDir
		out.Subagents.TimeoutSeconds = 300
		out.Subagents.MaxRetries = 2
		out.LLM.Provider = cfg.Provider
		out.LLM.Model = cfg.Model

		f, err := os.Create("delegate.toml")
		if err != nil {
			return errMsg{fmt.Errorf("writing delegate.toml: %w", err)}
		}
		defer f.Close()
		if err := toml.NewEncoder(f).Encode(out); err != nil {
			return errMsg{fmt.Errorf("encoding delegate.toml: %w", err)}
		}
		written = append(written, "delegate.toml")

		return filesWrittenMsg{files: written}
	}
}

// Run launches the wizard.
func Run() error {
	p := tea.NewProgram(New())
	_, err := p.Run()
	return err
}
