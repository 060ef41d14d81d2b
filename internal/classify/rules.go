package classify

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
)

//go:embed genres.toml
var defaultRules []byte

// Rules is the tunable keyword and threshold data behind every classifier predicate.
type Rules struct {
	Emotions   []Emotion                   `toml:"emotions"`
	Activities []Category                  `toml:"activities"`
	Moods      []Category                  `toml:"moods"`
	Hints      map[string]HintSet          `toml:"hints"`
	Video      VideoRules                  `toml:"video"`
	Genres     map[models.Genre]GenreRules `toml:"genres"`
}

// Emotion maps a prompt stem to a playlist query phrase.
type Emotion struct {
	Stem   string `toml:"stem"`
	Phrase string `toml:"phrase"`
}

// Category is a named keyword group used for activity and mood tagging.
type Category struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// HintSet holds canned context strings appended to oracle prompts for one tag.
type HintSet struct {
	Playlists []string `toml:"playlists"`
	Reviews   []string `toml:"reviews"`
	Tags      []string `toml:"tags"`
}

// VideoRules decide whether an upload is an official music video.
type VideoRules struct {
	Compilation []string `toml:"compilation"`
	Markers     []string `toml:"markers"`
	Reject      []string `toml:"reject"`
}

// GenreRules hold the per-genre query keywords, allow/deny lists and popularity baseline.
type GenreRules struct {
	Keywords      string   `toml:"keywords"`
	Examples      string   `toml:"examples"`
	MinViews      uint64   `toml:"min_views"`
	MatchAll      bool     `toml:"match_all"`
	Allow         []string `toml:"allow"`
	Deny          []string `toml:"deny"`
	PlaylistAllow []string `toml:"playlist_allow"`
	PlaylistDeny  []string `toml:"playlist_deny"`
}

// DefaultRules parses the embedded rule tables.
func DefaultRules() *Rules {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded genre rules: %v", err))
	}
	return rules
}

// ParseRules decodes TOML rule data and validates it.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rules: %v", shared.ErrInvalidConfig, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadRules reads a rules file. Genres missing from the file keep their default rules.
//
// An empty path returns [DefaultRules].
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var override Rules
	if err := toml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rules: %v", shared.ErrInvalidConfig, err)
	}

	rules := DefaultRules()
	rules.merge(&override)
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *Rules) merge(o *Rules) {
	if len(o.Emotions) > 0 {
		r.Emotions = o.Emotions
	}
	if len(o.Activities) > 0 {
		r.Activities = o.Activities
	}
	if len(o.Moods) > 0 {
		r.Moods = o.Moods
	}
	for tag, hints := range o.Hints {
		r.Hints[tag] = hints
	}
	if len(o.Video.Compilation) > 0 {
		r.Video.Compilation = o.Video.Compilation
	}
	if len(o.Video.Markers) > 0 {
		r.Video.Markers = o.Video.Markers
	}
	if len(o.Video.Reject) > 0 {
		r.Video.Reject = o.Video.Reject
	}
	for g, gr := range o.Genres {
		r.Genres[g] = gr
	}
}

// Validate checks that every genre has rules and a non-empty match definition.
func (r *Rules) Validate() error {
	if r.Hints == nil {
		r.Hints = map[string]HintSet{}
	}
	for _, g := range models.Genres() {
		gr, ok := r.Genres[g]
		if !ok {
			return fmt.Errorf("%w: no rules for genre %s", shared.ErrInvalidConfig, g)
		}
		if gr.Keywords == "" {
			return fmt.Errorf("%w: genre %s has no query keywords", shared.ErrInvalidConfig, g)
		}
		if !gr.MatchAll && (len(gr.Allow) == 0 || len(gr.PlaylistAllow) == 0) {
			return fmt.Errorf("%w: genre %s has an empty allow list", shared.ErrInvalidConfig, g)
		}
	}
	if len(r.Video.Markers) == 0 {
		return fmt.Errorf("%w: no official video markers", shared.ErrInvalidConfig)
	}
	return nil
}

// Genre returns the rules for g, or the "other" rules for an unknown genre.
func (r *Rules) Genre(g models.Genre) GenreRules {
	if gr, ok := r.Genres[g]; ok {
		return gr
	}
	return r.Genres[models.GenreOther]
}
