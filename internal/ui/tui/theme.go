package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/ffd/internal/ui"
)

type styles struct {
	prompt   lipgloss.Style
	path     lipgloss.Style
	match    lipgloss.Style
	selected lipgloss.Style
	marker   lipgloss.Style
	status   lipgloss.Style
	err      lipgloss.Style
	helpKey  lipgloss.Style
	helpDesc lipgloss.Style
}

func newStyles(t ui.Theme) styles {
	return styles{
		prompt:   lipgloss.NewStyle().Foreground(t.Prompt).Bold(true),
		path:     lipgloss.NewStyle().Foreground(t.Path),
		match:    lipgloss.NewStyle().Foreground(t.Match).Bold(true).Underline(true),
		selected: lipgloss.NewStyle().Foreground(t.Path).Bold(true),
		marker:   lipgloss.NewStyle().Foreground(t.Prompt).Bold(true),
		status:   lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		helpKey:  lipgloss.NewStyle().Foreground(t.Prompt),
		helpDesc: lipgloss.NewStyle().Foreground(t.Dim),
	}
}
