package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/promptdj/internal/formatter"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/repositories"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of one record.
type historyEntry struct {
	ID         string       `json:"id"`
	Sequence   int          `json:"sequence"`
	CreatedAt  string       `json:"createdAt"`
	Genre      models.Genre `json:"genre"`
	Prompt     string       `json:"prompt"`
	Artist     string       `json:"artist,omitempty"`
	Title      string       `json:"title,omitempty"`
	VideoID    string       `json:"videoId,omitempty"`
	Source     string       `json:"source,omitempty"`
	Stage      models.Stage `json:"stage"`
	Confidence float64      `json:"confidence"`
}

// History lists, summarizes or exports recorded recommendations.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	var genre models.Genre
	if g := cmd.String("genre"); g != "" {
		parsed, err := models.ParseGenre(g)
		if err != nil {
			return err
		}
		genre = parsed
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	repo := repositories.NewRecommendationRepository(db)

	if cmd.Bool("stats") {
		return r.writeStats(repo, cmd.Bool("json"), cmd.Bool("pretty"))
	}

	records, err := repo.Recent(genre, cmd.Int("limit"))
	if err != nil {
		return err
	}
	r.logger.Debug("loaded history", "count", len(records), "genre", genre)

	if path := cmd.String("output"); path != "" {
		format := formatter.ExportFormat(strings.ToLower(cmd.String("format")))
		if err := formatter.WriteHistoryExport(records, format, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "format", format, "records", len(records))
		return nil
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, historyEntry{
				ID:         rec.ID(),
				Sequence:   rec.Sequence(),
				CreatedAt:  rec.CreatedAt().UTC().Format("2006-01-02T15:04:05Z"),
				Genre:      rec.Genre(),
				Prompt:     rec.Prompt(),
				Artist:     rec.Artist(),
				Title:      rec.Title(),
				VideoID:    rec.VideoID(),
				Source:     rec.SourceLabel(),
				Stage:      rec.Stage(),
				Confidence: rec.Confidence(),
			})
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("No recommendations recorded yet.\n")
	}
	return r.writePlain("%s\n", formatter.FormatHistoryTable(records))
}

func (r *Runner) writeStats(repo *repositories.RecommendationRepository, asJSON, pretty bool) error {
	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(stats, pretty)
	}

	total := 0
	r.writePlainHeader("Recommendations by stage")
	for _, stage := range []models.Stage{
		models.StagePlaylistSearch, models.StageFunctionCall, models.StagePlainGeneration, models.StageExhausted,
	} {
		total += stats[stage]
		if err := r.writePlain("%-18s %d\n", stage, stats[stage]); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}
	}
	return r.writePlain("%-18s %d\n", "total", total)
}
