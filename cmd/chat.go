package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
	"github.com/desertthunder/promptdj/internal/ui"
	"github.com/urfave/cli/v3"
)

// Chat launches the interactive terminal chat.
func (r *Runner) Chat(ctx context.Context, cmd *cli.Command) error {
	var genre models.Genre
	if g := cmd.String("genre"); g != "" {
		parsed, err := models.ParseGenre(g)
		if err != nil {
			return err
		}
		genre = parsed
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	resolver, err := r.buildResolver(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, resolver, ui.Options{
		Genre:       genre,
		RecentTurns: r.recentTurns(),
		Examples:    resolver.Classifier().GenreExamples,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
