package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicutil/internal/shared"
	"github.com/desertthunder/musicutil/internal/ui"
	"github.com/urfave/cli/v3"
)

// Pick launches the interactive picker for a search and prints the chosen link.
func (r *Runner) Pick(ctx context.Context, cmd *cli.Command) error {
	query, err := requiredArg(cmd, "query")
	if err != nil {
		return err
	}

	opts, err := r.bulkOpts(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(cmd.Bool("save"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(r.cacheDir(), "musicutil-tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(shared.NewLogger(logFile))

	model := ui.NewModel(ctx, engine, query, r.maxResults(cmd), opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	picked, ok := final.(*ui.Model)
	if !ok {
		return nil
	}
	if err := picked.Err(); err != nil {
		return err
	}
	if link, ok := picked.Chosen(); ok {
		return r.writePlain("%s\t%s\t%s\n", link.Quality, link.Size, link.URL)
	}
	return nil
}
