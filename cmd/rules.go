package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/urfave/cli/v3"
)

// Rules prints the merged classifier rules, or a single genre's section.
func (r *Runner) Rules(ctx context.Context, cmd *cli.Command) error {
	rules, err := r.loadRules()
	if err != nil {
		return err
	}

	var out any = rules
	if g := cmd.String("genre"); g != "" {
		genre, err := models.ParseGenre(g)
		if err != nil {
			return err
		}
		out = map[string]map[models.Genre]classify.GenreRules{
			"genres": {genre: rules.Genre(genre)},
		}
	}

	if err := toml.NewEncoder(r.output).Encode(out); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return nil
}
