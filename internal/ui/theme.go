package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/ffd/internal/config"
)

// Theme holds the colors used to render matches and prompts.
type Theme struct {
	Match  lipgloss.Color
	Prompt lipgloss.Color
	Path   lipgloss.Color
	Dim    lipgloss.Color
}

// DefaultTheme is the Catppuccin Mocha palette.
func DefaultTheme() Theme {
	return Theme{
		Match:  lipgloss.Color("#f9e2af"),
		Prompt: lipgloss.Color("#cba6f7"),
		Path:   lipgloss.Color("#cdd6f4"),
		Dim:    lipgloss.Color("#5a6278"),
	}
}

// With returns t with any colors set in tc overridden.
func (t Theme) With(tc config.ThemeConfig) Theme {
	if tc.Match != nil {
		t.Match = lipgloss.Color(*tc.Match)
	}
	if tc.Prompt != nil {
		t.Prompt = lipgloss.Color(*tc.Prompt)
	}
	if tc.Path != nil {
		t.Path = lipgloss.Color(*tc.Path)
	}
	if tc.Dim != nil {
		t.Dim = lipgloss.Color(*tc.Dim)
	}
	return t
}
