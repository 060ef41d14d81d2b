// package search turns video-platform lookups into genre-filtered candidate songs.
//
// Every operation treats upstream failures, timeouts and empty responses the same way: it logs and
// returns an empty result. Callers never see an error from this package.
package search

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/services"
	"github.com/desertthunder/promptdj/internal/shared"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultPlaylistResults = 10
	DefaultVideoResults    = 20
	playlistItemsPerCall   = 50
	minTitleLength         = 3
)

// Random is the source of selection randomness. [*rand.Rand] satisfies it.
type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int                     { return rand.IntN(n) }
func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRandom uses the auto-seeded global source.
var DefaultRandom Random = globalRandom{}

// NewSeededRandom returns a deterministic source for tests.
func NewSeededRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AdapterOpts configures an [Adapter].
type AdapterOpts struct {
	YouTube services.VideoSearcher
	Rules   *classify.Rules // nil selects the embedded defaults
	Random  Random
	Timeout time.Duration // per external call
	Logger  *log.Logger
}

// Adapter wraps a [services.VideoSearcher] with the candidate filters.
type Adapter struct {
	youtube    services.VideoSearcher
	classifier *classify.Classifier
	random     Random
	timeout    time.Duration
	logger     *log.Logger
}

// NewAdapter creates an Adapter.
func NewAdapter(opts AdapterOpts) *Adapter {
	a := &Adapter{
		youtube:    opts.YouTube,
		classifier: classify.New(opts.Rules),
		random:     opts.Random,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
	if a.random == nil {
		a.random = DefaultRandom
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.logger == nil {
		a.logger = shared.NewLogger(nil)
	}
	return a
}

// Classifier exposes the rule evaluator shared with the resolver.
func (a *Adapter) Classifier() *classify.Classifier {
	return a.classifier
}

// Random exposes the selection source shared with the resolver.
func (a *Adapter) Random() Random {
	return a.random
}

// PlaylistQuery builds a playlist search: the genre keywords twice, at most one emotion phrase,
// then "playlist".
func (a *Adapter) PlaylistQuery(prompt string, genre models.Genre) string {
	kw := a.classifier.GenreKeywords(genre)
	if kw == "" {
		kw = "music"
	}
	terms := []string{kw, kw}
	if phrase := a.classifier.EmotionPhrase(prompt); phrase != "" {
		terms = append(terms, phrase)
	}
	return strings.Join(terms, " ") + " playlist"
}

// FindPlaylists searches playlists and keeps the ones matching genre, in upstream rank order.
//
// When the genre filter rejects everything the result is empty; no cross-genre playlist is ever
// substituted.
func (a *Adapter) FindPlaylists(ctx context.Context, query string, genre models.Genre) []models.PlaylistInfo {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	playlists, err := a.youtube.SearchPlaylists(ctx, query, DefaultPlaylistResults)
	if err != nil {
		a.logger.Warn("playlist search failed", "query", query, "error", err)
		return []models.PlaylistInfo{}
	}

	kept := make([]models.PlaylistInfo, 0, len(playlists))
	for _, p := range playlists {
		if a.classifier.MatchesPlaylistGenre(p.Title, p.Description, genre) {
			kept = append(kept, p)
		}
	}
	a.logger.Debug("playlists filtered", "genre", genre, "found", len(playlists), "kept", len(kept))
	return kept
}

// ExtractSongs lists a playlist and returns its official-video entries, normalized, in a fresh
// random order.
func (a *Adapter) ExtractSongs(ctx context.Context, playlistID string) []models.CandidateSong {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	items, err := a.youtube.PlaylistItems(ctx, playlistID, playlistItemsPerCall)
	if err != nil {
		a.logger.Warn("playlist items failed", "playlist", playlistID, "error", err)
		return []models.CandidateSong{}
	}

	songs := make([]models.CandidateSong, 0, len(items))
	for _, item := range items {
		if song, ok := a.candidateFromItem(item); ok {
			songs = append(songs, song)
		}
	}

	a.random.Shuffle(len(songs), func(i, j int) { songs[i], songs[j] = songs[j], songs[i] })
	return songs
}

func (a *Adapter) candidateFromItem(item services.PlaylistItem) (models.CandidateSong, bool) {
	if item.VideoID == "" {
		return models.CandidateSong{}, false
	}

	lower := strings.ToLower(item.Title)
	if strings.Contains(lower, "deleted video") || strings.Contains(lower, "private video") {
		return models.CandidateSong{}, false
	}
	if !a.classifier.IsOfficialMusicVideo(item.Title) {
		return models.CandidateSong{}, false
	}

	n := classify.Normalize(item.Title, item.Channel)
	if utf8.RuneCountInString(n.Title) < minTitleLength || n.Artist == "" {
		return models.CandidateSong{}, false
	}

	return models.CandidateSong{
		Title:         n.Title,
		Artist:        n.Artist,
		SourceID:      item.VideoID,
		OriginalLabel: item.Title,
		Channel:       item.Channel,
	}, true
}

// FindTopVideo searches videos, keeps official uploads in genre at or above the genre's view
// threshold, and returns the most viewed. Returns nil when nothing survives.
//
// If view counts cannot be fetched the first filtered candidate is returned unranked.
func (a *Adapter) FindTopVideo(ctx context.Context, query string, genre models.Genre) *models.CandidateSong {
	searchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	videos, err := a.youtube.SearchVideos(searchCtx, query, DefaultVideoResults)
	cancel()
	if err != nil {
		a.logger.Warn("video search failed", "query", query, "error", err)
		return nil
	}

	filtered := slices.DeleteFunc(slices.Clone(videos), func(v services.VideoItem) bool {
		return !a.classifier.IsOfficialMusicVideo(v.Title) || !a.classifier.MatchesGenre(v.Title, v.Channel, genre)
	})
	if len(filtered) == 0 {
		a.logger.Debug("no official video in genre", "query", query, "genre", genre)
		return nil
	}

	ids := make([]string, len(filtered))
	for i, v := range filtered {
		ids[i] = v.VideoID
	}

	statsCtx, cancel := context.WithTimeout(ctx, a.timeout)
	views, err := a.youtube.VideoStatistics(statsCtx, ids)
	cancel()
	if err != nil {
		a.logger.Warn("video statistics failed, using first result", "query", query, "error", err)
		song := candidateFromVideo(filtered[0], nil)
		return &song
	}

	threshold := a.classifier.MinViews(genre)
	var best *services.VideoItem
	var bestViews uint64
	for i := range filtered {
		n, ok := views[filtered[i].VideoID]
		if !ok || n < threshold {
			continue
		}
		if best == nil || n > bestViews {
			best, bestViews = &filtered[i], n
		}
	}
	if best == nil {
		a.logger.Debug("no video above view threshold", "query", query, "min_views", threshold)
		return nil
	}

	song := candidateFromVideo(*best, &bestViews)
	return &song
}

func candidateFromVideo(v services.VideoItem, views *uint64) models.CandidateSong {
	n := classify.Normalize(v.Title, v.Channel)
	return models.CandidateSong{
		Title:         n.Title,
		Artist:        n.Artist,
		SourceID:      v.VideoID,
		OriginalLabel: v.Title,
		Channel:       v.Channel,
		Views:         views,
	}
}
