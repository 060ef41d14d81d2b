package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/promptdj/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "promptdj",
		Usage:    "Recommend songs from how you feel",
		Version:  version,
		Flags:    globalFlags(),
		Before:   runner.loadConfig,
		After:    func(context.Context, *cli.Command) error { return runner.Close() },
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Fatal("missing credentials; set them in config.toml or the environment",
				"error", err, "hint", "GEMINI_API_KEY, YOUTUBE_API_KEY")
		}
		logger.Fatalf("application error: %v", err)
	}
}
