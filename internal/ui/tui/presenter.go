package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive search and blocks until the user exits. It
// returns the path the user selected, or "" if they quit without one.
func Run(ctx context.Context, cfg Config) (string, error) {
	prog := tea.NewProgram(
		NewModel(ctx, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("interactive search: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return "", nil
	}
	return m.Selected(), nil
}
