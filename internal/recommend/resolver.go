package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/formatter"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/search"
	"github.com/desertthunder/promptdj/internal/services"
	"github.com/desertthunder/promptdj/internal/shared"
)

const (
	DefaultMaxRetries    = 3
	DefaultPlaylistLimit = 3
	DefaultOracleTimeout = 20 * time.Second

	spotifyResults = 5
)

// Recorder persists finished resolutions. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, req models.RecommendationRequest, res *models.ResolutionResult) error
}

// ResolverOpts configures a [Resolver]. Search and Oracle are required.
type ResolverOpts struct {
	Search        *search.Adapter
	Oracle        services.Oracle
	Spotify       services.TrackSearcher // optional enrichment
	Recorder      Recorder               // optional history
	MaxRetries    int                    // function-call retries after the first call
	PlaylistLimit int                    // playlists scanned per playlist pass
	Random        search.Random          // defaults to the adapter's source
	Timeout       time.Duration          // per oracle call
	Logger        *log.Logger
}

// Resolver runs the recommendation state machine:
//
//	PlaylistSearch → FunctionCall (1 + MaxRetries calls) → PlaylistSearch (last resort) → Exhausted
//	                 FunctionCall oracle failure → PlainGeneration → Exhausted
//
// A Resolver holds no per-turn state and is safe for concurrent use.
type Resolver struct {
	search        *search.Adapter
	classifier    *classify.Classifier
	oracle        services.Oracle
	spotify       services.TrackSearcher
	recorder      Recorder
	maxRetries    int
	playlistLimit int
	random        search.Random
	timeout       time.Duration
	logger        *log.Logger
}

// NewResolver creates a Resolver.
func NewResolver(opts ResolverOpts) (*Resolver, error) {
	if opts.Search == nil {
		return nil, fmt.Errorf("%w: search adapter", shared.ErrMissingArgument)
	}
	if opts.Oracle == nil {
		return nil, fmt.Errorf("%w: oracle", shared.ErrMissingArgument)
	}

	r := &Resolver{
		search:        opts.Search,
		classifier:    opts.Search.Classifier(),
		oracle:        opts.Oracle,
		spotify:       opts.Spotify,
		recorder:      opts.Recorder,
		maxRetries:    opts.MaxRetries,
		playlistLimit: opts.PlaylistLimit,
		random:        opts.Random,
		timeout:       opts.Timeout,
		logger:        opts.Logger,
	}
	if r.maxRetries <= 0 {
		r.maxRetries = DefaultMaxRetries
	}
	if r.playlistLimit <= 0 {
		r.playlistLimit = DefaultPlaylistLimit
	}
	if r.random == nil {
		r.random = opts.Search.Random()
	}
	if r.timeout <= 0 {
		r.timeout = DefaultOracleTimeout
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	return r, nil
}

// MaxRetries reports the function-call retry budget.
func (r *Resolver) MaxRetries() int { return r.maxRetries }

// Classifier exposes the rule evaluator the resolver was built with.
func (r *Resolver) Classifier() *classify.Classifier { return r.classifier }

// turn is the per-resolution accumulator.
type turn struct {
	req      models.RecommendationRequest
	hints    classify.Hints
	progress chan<- StageUpdate
	logger   *log.Logger
	attempts int
}

// pick is a song chosen by a stage, before enrichment and formatting.
type pick struct {
	song      models.CandidateSong
	stage     models.Stage
	playlist  string // playlist title when playlist-sourced
	reason    string
	situation string
	resolved  bool // song carries a real video id
}

type callOutcome int

const (
	callResolved callOutcome = iota
	callText
	callRetriesExhausted
	callFailed
)

// sendProgress sends a progress update through the channel without blocking.
func (r *Resolver) sendProgress(progress chan<- StageUpdate, update StageUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Resolve produces one recommendation for req. It never returns an error: every failure path ends
// in an alternate recommendation or the [formatter.Apology] text.
//
// A chosen song's key is never in req.Excluded. Degraded results carry no chosen song.
func (r *Resolver) Resolve(ctx context.Context, req models.RecommendationRequest, progress chan<- StageUpdate) *models.ResolutionResult {
	started := time.Now()
	t := &turn{
		req:      req,
		hints:    r.classifier.Hints(r.classifier.ExtractContext(req.Prompt)),
		progress: progress,
		logger:   r.logger.With("genre", req.Genre, "excluded", len(req.Excluded)),
	}

	res := r.resolve(ctx, t)
	res.Attempts = t.attempts

	t.logger.Info("resolved", "stage", res.Stage, "attempts", res.Attempts, "confidence", res.Confidence,
		"elapsed", time.Since(started).Round(time.Millisecond))

	if r.recorder != nil && ctx.Err() == nil {
		if err := r.recorder.Record(ctx, req, res); err != nil {
			t.logger.Warn("failed to record recommendation", "error", err)
		}
	}

	r.sendProgress(progress, doneUpdate(res))
	return res
}

func (r *Resolver) resolve(ctx context.Context, t *turn) *models.ResolutionResult {
	if p := r.playlistSearch(ctx, t); p != nil {
		return r.finish(ctx, t, *p)
	}
	if ctx.Err() != nil {
		return r.exhausted(ctx, t)
	}

	p, text, outcome := r.functionCall(ctx, t)
	switch outcome {
	case callResolved:
		return r.finish(ctx, t, *p)
	case callText:
		return &models.ResolutionResult{Text: text, Stage: models.StageFunctionCall, Confidence: 0.5}
	case callRetriesExhausted:
		t.logger.Warn("retries exhausted, rescanning playlists", "retries", r.maxRetries)
		if p := r.playlistSearch(ctx, t); p != nil {
			return r.finish(ctx, t, *p)
		}
		return r.exhausted(ctx, t)
	default:
		if ctx.Err() != nil {
			return r.exhausted(ctx, t)
		}
		return r.plainGeneration(ctx, t)
	}
}

// playlistSearch scans the top playlists in order. Each playlist gets one random non-excluded
// candidate; if its video cannot be found or is itself excluded, the scan moves to the next
// playlist rather than the next candidate.
func (r *Resolver) playlistSearch(ctx context.Context, t *turn) *pick {
	query := r.search.PlaylistQuery(t.req.Prompt, t.req.Genre)
	r.sendProgress(t.progress, findPlaylistsUpdate(query))

	playlists := r.search.FindPlaylists(ctx, query, t.req.Genre)
	if len(playlists) > r.playlistLimit {
		playlists = playlists[:r.playlistLimit]
	}
	if len(playlists) == 0 {
		t.logger.Debug("no playlists matched", "query", query)
		return nil
	}

	for i, pl := range playlists {
		if ctx.Err() != nil {
			return nil
		}
		r.sendProgress(t.progress, scanPlaylistUpdate(i+1, len(playlists), pl))

		songs := r.search.ExtractSongs(ctx, pl.ID)
		fresh := make([]models.CandidateSong, 0, len(songs))
		for _, s := range songs {
			if !t.req.Excluded.Has(s.Key()) {
				fresh = append(fresh, s)
			}
		}
		if len(fresh) == 0 {
			t.logger.Debug("no fresh songs in playlist", "playlist", pl.Title, "extracted", len(songs))
			continue
		}

		candidate := fresh[r.random.IntN(len(fresh))]
		video := r.search.FindTopVideo(ctx, mvQuery(candidate.Artist, candidate.Title), t.req.Genre)
		if video == nil {
			t.logger.Debug("no video for playlist pick", "playlist", pl.Title, "song", candidate.Key())
			continue
		}
		if t.req.Excluded.Has(video.Key()) {
			t.logger.Debug("video already recommended", "playlist", pl.Title, "song", video.Key())
			continue
		}

		return &pick{song: *video, stage: models.StagePlaylistSearch, playlist: pl.Title, resolved: true}
	}
	return nil
}

// functionCall asks the oracle for a concrete song, retrying up to maxRetries times while the
// answer is excluded. The loop makes at most maxRetries+1 oracle calls.
func (r *Resolver) functionCall(ctx context.Context, t *turn) (*pick, string, callOutcome) {
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, "", callFailed
		}
		r.sendProgress(t.progress, functionCallUpdate(attempt, r.maxRetries))
		t.attempts++

		resp, err := r.generate(ctx, r.functionCallRequest(t, attempt))
		if err != nil {
			t.logger.Warn("function call failed", "attempt", attempt, "error", err)
			return nil, "", callFailed
		}
		if resp.Empty() {
			t.logger.Warn("function call returned nothing", "attempt", attempt, "finish", resp.FinishReason)
			return nil, "", callFailed
		}

		call := resp.FunctionCall
		if call == nil {
			return nil, resp.Text, callText
		}
		artist, song := call.Arg("artist"), call.Arg("song")
		if call.Name != services.SearchRealMusicFunction || artist == "" || song == "" {
			t.logger.Warn("invalid function call", "name", call.Name, "artist", artist, "song", song)
			return nil, "", callFailed
		}

		key := models.SongKey(artist, song)
		if t.req.Excluded.Has(key) {
			t.logger.Debug("model repeated a song", "attempt", attempt, "song", key)
			continue
		}

		reason, situation := call.Arg("reason"), call.Arg("context")
		video := r.search.FindTopVideo(ctx, mvQuery(artist, song), t.req.Genre)
		if video == nil {
			return &pick{
				song:      models.CandidateSong{Artist: artist, Title: song},
				stage:     models.StageFunctionCall,
				reason:    reason,
				situation: situation,
			}, "", callResolved
		}
		if t.req.Excluded.Has(video.Key()) {
			t.logger.Debug("resolved video already recommended", "attempt", attempt, "song", video.Key())
			continue
		}

		return &pick{
			song:      *video,
			stage:     models.StageFunctionCall,
			reason:    reason,
			situation: situation,
			resolved:  true,
		}, "", callResolved
	}
	return nil, "", callRetriesExhausted
}

func (r *Resolver) functionCallRequest(t *turn, attempt int) services.GenerateRequest {
	prompt := t.req.Prompt
	if attempt > 0 {
		prompt = retryPrompt(prompt, t.req.Excluded, attempt)
	}
	return services.GenerateRequest{
		SystemInstruction: functionCallSystemPrompt(r.classifier, t.req.Genre, t.req.Excluded, attempt),
		Contents:          []services.Content{services.UserContent(userPrompt(prompt, t.req.RecentTurns, t.hints))},
		Functions:         []services.FunctionDeclaration{services.SearchRealMusicDeclaration()},
		Config:            services.FunctionCallConfig,
	}
}

// plainGeneration makes one unconstrained call. Its text is returned as-is and exclusions are not
// enforced.
func (r *Resolver) plainGeneration(ctx context.Context, t *turn) *models.ResolutionResult {
	r.sendProgress(t.progress, plainGenerationUpdate())
	t.attempts++

	resp, err := r.generate(ctx, services.GenerateRequest{
		SystemInstruction: plainSystemPrompt(t.req.Genre),
		Contents:          []services.Content{services.UserContent(plainPrompt(t.req.Prompt))},
		Config:            services.PlainGenerationConfig,
	})
	if err != nil {
		t.logger.Warn("plain generation failed", "error", err)
		return r.exhausted(ctx, t)
	}
	if resp.Empty() || resp.Text == "" {
		t.logger.Warn("plain generation returned no text")
		return r.exhausted(ctx, t)
	}

	return &models.ResolutionResult{Text: resp.Text, Stage: models.StagePlainGeneration, Confidence: 0.5}
}

func (r *Resolver) exhausted(ctx context.Context, t *turn) *models.ResolutionResult {
	if err := ctx.Err(); err != nil {
		t.logger.Debug("resolution abandoned", "error", err)
	}
	return &models.ResolutionResult{Text: formatter.Apology, Stage: models.StageExhausted}
}

func (r *Resolver) generate(ctx context.Context, req services.GenerateRequest) (*services.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.oracle.Generate(ctx, req)
}

// finish enriches p with streaming links and renders it.
func (r *Resolver) finish(ctx context.Context, t *turn, p pick) *models.ResolutionResult {
	links := formatter.FallbackLinks(p.song.Artist, p.song.Title)
	if p.resolved {
		links = formatter.SongLinks(p.song)
	}
	r.enrich(ctx, t, p.song, &links)

	var text string
	switch {
	case p.playlist != "":
		text = formatter.FormatPlaylistRecommendation(p.playlist, t.req.Prompt, p.song, links)
	case p.resolved:
		text = formatter.FormatFunctionCallRecommendation(p.reason, p.situation, p.song, links)
	default:
		text = formatter.FormatFallbackRecommendation(p.song.Artist, p.song.Title, p.reason, p.situation, links)
	}

	song := p.song
	return &models.ResolutionResult{
		Text:       text,
		Chosen:     &song,
		Source:     p.playlist,
		Confidence: confidence(p, links),
		Stage:      p.stage,
		Links:      &links,
	}
}

// enrich adds Spotify and preview links when a track matches. Failures leave links unchanged.
func (r *Resolver) enrich(ctx context.Context, t *turn, song models.CandidateSong, links *models.MusicLinks) {
	if r.spotify == nil {
		return
	}
	r.sendProgress(t.progress, enrichUpdate(song))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tracks, err := r.spotify.SearchTracks(ctx, song.Artist+" "+song.Title, spotifyResults)
	if err != nil {
		t.logger.Debug("spotify lookup failed", "song", song.Key(), "error", err)
		return
	}

	label := song.OriginalLabel
	if label == "" {
		label = song.Artist + " " + song.Title
	}
	track := services.MatchTrack(tracks, label)
	if track == nil || track.URL() == "" {
		return
	}

	links.Spotify = &models.Link{URL: track.URL(), Label: formatter.LabelSpotify}
	if track.PreviewURL != "" {
		links.Preview = &models.Link{URL: track.PreviewURL, Label: formatter.LabelPreview}
	}
}

// confidence is 0.5, +0.2 for a resolved video, +0.2 for a Spotify match, +0.1 when
// playlist-sourced, capped at 1.
func confidence(p pick, links models.MusicLinks) float64 {
	score := 0.5
	if p.resolved {
		score += 0.2
	}
	if links.Spotify != nil {
		score += 0.2
	}
	if p.playlist != "" {
		score += 0.1
	}
	return min(score, 1.0)
}

func mvQuery(artist, title string) string {
	return artist + " " + title + " official mv"
}
