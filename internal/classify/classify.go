// package classify holds the pure text heuristics of the recommendation pipeline: title/artist
// normalization, official-video and genre predicates, and prompt context tagging.
package classify

import (
	"strings"

	"github.com/desertthunder/promptdj/internal/models"
)

// Classifier evaluates candidates against a [Rules] table. It is safe for concurrent use.
type Classifier struct {
	rules *Rules
}

// New returns a Classifier over rules; nil selects [DefaultRules].
func New(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules exposes the underlying tables.
func (c *Classifier) Rules() *Rules { return c.rules }

// IsOfficialMusicVideo accepts labels carrying an official/MV marker and none of the reject
// vocabulary. Compilation and background-music keywords reject first, whatever else the label says.
func (c *Classifier) IsOfficialMusicVideo(label string) bool {
	text := strings.ToLower(label)
	if containsAny(text, c.rules.Video.Compilation) {
		return false
	}
	return containsAny(text, c.rules.Video.Markers) && !containsAny(text, c.rules.Video.Reject)
}

// MatchesGenre requires an allow-list token in label or channel and no deny-list token.
//
// Ambiguous uploads are rejected; "other" matches everything.
func (c *Classifier) MatchesGenre(label, channel string, genre models.Genre) bool {
	gr := c.rules.Genre(genre)
	if gr.MatchAll {
		return true
	}
	text := strings.ToLower(label + " " + channel)
	return containsAny(text, gr.Allow) && !containsAny(text, gr.Deny)
}

// MatchesPlaylistGenre is the playlist-scoped variant of [Classifier.MatchesGenre], testing title
// and description.
func (c *Classifier) MatchesPlaylistGenre(title, description string, genre models.Genre) bool {
	gr := c.rules.Genre(genre)
	if gr.MatchAll {
		return true
	}
	text := strings.ToLower(title + " " + description)
	return containsAny(text, gr.PlaylistAllow) && !containsAny(text, gr.PlaylistDeny)
}

// MinViews is the genre's popularity baseline.
func (c *Classifier) MinViews(genre models.Genre) uint64 {
	return c.rules.Genre(genre).MinViews
}

// GenreKeywords is the query phrase that biases searches toward genre.
func (c *Classifier) GenreKeywords(genre models.Genre) string {
	return c.rules.Genre(genre).Keywords
}

// GenreExamples lists representative artists used in generative prompts.
func (c *Classifier) GenreExamples(genre models.Genre) string {
	return c.rules.Genre(genre).Examples
}

// EmotionPhrase returns the phrase of the first emotion stem found in prompt, or "".
func (c *Classifier) EmotionPhrase(prompt string) string {
	for _, e := range c.rules.Emotions {
		if strings.Contains(prompt, e.Stem) {
			return e.Phrase
		}
	}
	return ""
}

var std = New(nil)

// IsOfficialMusicVideo applies the default rules.
func IsOfficialMusicVideo(label string) bool { return std.IsOfficialMusicVideo(label) }

// MatchesGenre applies the default rules.
func MatchesGenre(label, channel string, genre models.Genre) bool {
	return std.MatchesGenre(label, channel, genre)
}

// MatchesPlaylistGenre applies the default rules.
func MatchesPlaylistGenre(title, description string, genre models.Genre) bool {
	return std.MatchesPlaylistGenre(title, description, genre)
}
