package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/desertthunder/promptdj/internal/formatter"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/recommend"
	"github.com/desertthunder/promptdj/internal/shared"
	"github.com/urfave/cli/v3"
)

const progressBuffer = 16

// Recommend resolves one prompt and prints the recommendation.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	genre, err := models.ParseGenre(cmd.String("genre"))
	if err != nil {
		return err
	}

	req, err := models.NewRecommendationRequest(prompt, genre, cmd.StringSlice("turn"), r.recentTurns(), cmd.StringSlice("exclude"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	resolver, err := r.buildResolver(ctx)
	if err != nil {
		return err
	}

	progress := make(chan recommend.StageUpdate, progressBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	res := resolver.Resolve(ctx, req, progress)
	close(progress)
	wg.Wait()

	if res == nil {
		return shared.ErrRecommendationEmpty
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}
	return r.writeRecommendation(genre, res)
}

// writeRecommendation prints the text with the link token replaced by one line per link.
func (r *Runner) writeRecommendation(genre models.Genre, res *models.ResolutionResult) error {
	text, links, _ := formatter.ExtractLinks(res.Text)
	if links == nil {
		text, links = formatter.StripLinks(text), res.Links
	}

	r.writePlainHeader(genre.Label() + " recommendation")
	if err := r.writePlain("%s\n", strings.TrimSpace(text)); err != nil {
		return err
	}

	if links != nil {
		r.writePlainln("Listen:")
		r.writePlain("  %s: %s\n", links.YouTube.Label, links.YouTube.URL)
		if links.Spotify != nil {
			r.writePlain("  %s: %s\n", links.Spotify.Label, links.Spotify.URL)
		}
		if links.Preview != nil {
			r.writePlain("  %s: %s\n", links.Preview.Label, links.Preview.URL)
		}
	}

	stage := string(res.Stage)
	if res.Degraded() {
		stage += " (degraded)"
	}
	return r.writePlainln("stage: %s, attempts: %d, confidence: %.2f", stage, res.Attempts, res.Confidence)
}

func (r *Runner) recentTurns() int {
	if n := r.config.Resolver.RecentTurns; n > 0 {
		return n
	}
	return 3
}
