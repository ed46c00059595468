package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the scan window and blocks until the user quits. The returned
// model carries the last report and the paths excised in the session.
func Run(ctx context.Context, scan ScanFunc, fix FixFunc, prefs Prefs) (Model, error) {
	m := NewModel(ctx, scan, fix, prefs)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return m, fmt.Errorf("error running TUI: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}
