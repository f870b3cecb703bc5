package main

import "github.com/charmbracelet/lipgloss"

// Output color scheme - each element class has a consistent color.
var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - source scope, counts

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - headers

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - field labels

	// Agents - Magenta
	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13"))

	// Tools - Blue
	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	// Outcomes
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow
)
