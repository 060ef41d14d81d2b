package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/recommend"
	"github.com/desertthunder/promptdj/internal/repositories"
	"github.com/desertthunder/promptdj/internal/search"
	"github.com/desertthunder/promptdj/internal/server"
	"github.com/desertthunder/promptdj/internal/services"
	"github.com/desertthunder/promptdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The resolver and database are built on first use so commands that need neither (setup, rules)
// run without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	resolver   server.Recommender
	rules      *classify.Rules
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Resolver   server.Recommender // prebuilt resolver, skips credential checks
	DB         *sql.DB            // prebuilt history database
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		resolver:   opts.Resolver,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, recommendCommand, chatCommand, historyCommand, rulesCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig replaces the runner config with the file at path (defaults when missing) plus the
// environment overlay.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.configPath = path

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// loadRules reads the genre rules named by the config, caching the result.
func (r *Runner) loadRules() (*classify.Rules, error) {
	if r.rules != nil {
		return r.rules, nil
	}
	rules, err := classify.LoadRules(r.config.Resolver.RulesPath)
	if err != nil {
		return nil, err
	}
	r.rules = rules
	return rules, nil
}

// openDatabase opens and migrates the history database once.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db
	return db, nil
}

// Close releases the history database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// buildResolver wires the configured upstream services behind circuit breakers.
func (r *Runner) buildResolver(ctx context.Context) (server.Recommender, error) {
	if r.resolver != nil {
		return r.resolver, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	rules, err := r.loadRules()
	if err != nil {
		return nil, err
	}

	creds := r.config.Credentials
	youtube := services.NewYouTubeService(creds.YouTube.BaseURL, creds.YouTube.APIKey, creds.YouTube.RateLimit, r.httpClient)
	gemini := services.NewGeminiService(creds.Gemini.BaseURL, creds.Gemini.APIKey, creds.Gemini.Model, r.httpClient)

	adapter := search.NewAdapter(search.AdapterOpts{
		YouTube: services.NewBreakerVideoSearcher(youtube, services.DefaultBreakerSettings(youtube.Name()), r.logger),
		Rules:   rules,
		Timeout: r.config.Resolver.CallTimeout.Duration,
		Logger:  r.logger,
	})

	opts := recommend.ResolverOpts{
		Search:        adapter,
		Oracle:        services.NewBreakerOracle(gemini, services.DefaultBreakerSettings(gemini.Name()), r.logger),
		MaxRetries:    r.config.Resolver.MaxRetries,
		PlaylistLimit: r.config.Resolver.PlaylistLimit,
		Timeout:       r.config.Resolver.CallTimeout.Duration,
		Logger:        r.logger,
	}

	if creds.Spotify.Enabled() {
		spotify := services.NewSpotifyService(ctx, creds.Spotify.ClientID, creds.Spotify.ClientSecret, creds.Spotify.TokenURL, creds.Spotify.BaseURL)
		opts.Spotify = services.NewBreakerTrackSearcher(spotify, services.DefaultBreakerSettings(spotify.Name()), r.logger)
	} else {
		r.logger.Debug("spotify enrichment disabled")
	}

	if r.config.Database.RecordHistory {
		db, err := r.openDatabase()
		if err != nil {
			r.logger.Warn("history disabled", "error", err)
		} else {
			opts.Recorder = repositories.NewHistoryRecorder(repositories.NewRecommendationRepository(db))
		}
	}

	resolver, err := recommend.NewResolver(opts)
	if err != nil {
		return nil, err
	}
	r.resolver = resolver
	return resolver, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
