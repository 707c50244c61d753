package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotish/internal/mutations"
	"github.com/desertthunder/spotish/internal/shared"
	"github.com/desertthunder/spotish/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal client.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	// Rebuild the session and client with the file logger.
	if err := r.Close(); err != nil {
		return err
	}
	if _, err := r.open(ctx, cmd); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Deps{
		Session: r.session,
		History: r.history,
		Catalog: r.client,
		Auth:    r.auth,
		Mutations: func() *mutations.Controller {
			return r.controller()
		},
		OpenURL: r.openURL,
		Logger:  fileLogger,
	})
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/spotish-tui.log",
			},
		},
		Action: r.TUI,
	}
}
