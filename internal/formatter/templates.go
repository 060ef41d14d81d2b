package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/promptdj/internal/models"
)

// Apology is the terminal message when every stage failed.
const Apology = "Sorry, I ran into a problem finding a new song for you. 🔄\n\n" +
	"Please try again, or describe your mood or situation in more detail so I can find a better fit! 😊"

// Link labels.
const (
	LabelYouTube       = "Listen on YouTube"
	LabelYouTubeSearch = "Search the MV on YouTube"
	LabelSpotify       = "Listen on Spotify"
	LabelPreview       = "30s preview"
)

var contextEmojis = map[string]string{
	"study":   "📚",
	"workout": "💪",
	"chill":   "😌",
	"sad":     "💔",
	"happy":   "😊",
	"party":   "🎉",
}

// ContextEmoji maps a listening context to its emoji, defaulting to 🎵.
func ContextEmoji(context string) string {
	if e, ok := contextEmojis[context]; ok {
		return e
	}
	return "🎵"
}

// RecommendedLine is the bold headline naming the song.
func RecommendedLine(artist, title string) string {
	return fmt.Sprintf("**🎵 Recommended: %s - %s**", artist, title)
}

// SongLinks builds the links for a resolved video, pointing at the watch page when the id is known
// and at a search page otherwise.
func SongLinks(song models.CandidateSong) models.MusicLinks {
	if song.SourceID != "" {
		return models.MusicLinks{YouTube: models.Link{URL: YouTubeWatchURL(song.SourceID), Label: LabelYouTube}}
	}
	return models.MusicLinks{
		YouTube: models.Link{URL: YouTubeSearchURL(song.Artist + " " + song.Title + " official"), Label: LabelYouTubeSearch},
	}
}

// FormatPlaylistRecommendation renders a pick drawn from a playlist.
func FormatPlaylistRecommendation(playlistTitle, prompt string, song models.CandidateSong, links models.MusicLinks) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A perfect match from the \"%s\" playlist! 🎵\n\n", playlistTitle)
	b.WriteString(RecommendedLine(song.Artist, song.Title) + "\n\n")
	fmt.Fprintf(&b, "Out of the songs in \"%s\", this is the one that fits \"%s\" best.\n\n", playlistTitle, prompt)
	b.WriteString("**🎧 Play links:**\n")
	return EmbedLinks(b.String(), links)
}

// FormatFunctionCallRecommendation renders a model pick whose video was resolved.
func FormatFunctionCallRecommendation(reason, context string, song models.CandidateSong, links models.MusicLinks) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", reason, ContextEmoji(context))
	b.WriteString(RecommendedLine(song.Artist, song.Title) + "\n\n")
	b.WriteString("**🎬 Music video:**\n")
	return EmbedLinks(b.String(), links)
}

// FallbackLinks points at a YouTube search for "artist song official mv", used when no video id was
// resolved for a model pick.
func FallbackLinks(artist, song string) models.MusicLinks {
	return models.MusicLinks{
		YouTube: models.Link{URL: YouTubeSearchURL(artist + " " + song + " official mv"), Label: LabelYouTubeSearch},
	}
}

// FormatFallbackRecommendation renders a model pick with no resolved video. links normally comes
// from [FallbackLinks], possibly enriched.
func FormatFallbackRecommendation(artist, song, reason, context string, links models.MusicLinks) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", reason, ContextEmoji(context))
	b.WriteString(RecommendedLine(artist, song) + "\n\n")
	b.WriteString("🎬 **Music video:**\n")
	text := EmbedLinks(b.String(), links)
	return text + "\n*I couldn't link the video directly, but the button above finds the official MV.*"
}
