package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, store Store, opts Options) error {
	m := NewModel(ctx, store, opts)
	if opts.Watcher != nil && !opts.Watcher.IsStarted() {
		if err := opts.Watcher.Start(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Stop()
	} else {
		m.Stop()
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
