package formatter

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/promptdj/internal/models"
)

const (
	linksPrefix = "<!-- MUSIC_LINKS:"
	linksSuffix = " -->"
)

var (
	linksToken      = regexp.MustCompile(`<!-- MUSIC_LINKS:(.*?) -->`)
	linksTokenStrip = regexp.MustCompile(`<!-- MUSIC_LINKS:.*? -->\n?`)
)

// LinksToken renders the single-line MUSIC_LINKS comment, without a trailing newline.
//
// json.Marshal escapes '<' and '>', so the payload can never terminate the comment early.
func LinksToken(links models.MusicLinks) (string, error) {
	payload, err := json.Marshal(links)
	if err != nil {
		return "", err
	}
	return linksPrefix + string(payload) + linksSuffix, nil
}

// EmbedLinks appends the MUSIC_LINKS token and a newline to text. Links that fail to encode are
// dropped and text is returned unchanged.
func EmbedLinks(text string, links models.MusicLinks) string {
	token, err := LinksToken(links)
	if err != nil {
		return text
	}
	return text + token + "\n"
}

// ExtractLinks parses the first MUSIC_LINKS token and returns text with it removed.
//
// A missing token, invalid JSON or an empty YouTube URL yields the original text, nil and false, so
// callers render the raw text without buttons.
func ExtractLinks(text string) (string, *models.MusicLinks, bool) {
	m := linksToken.FindStringSubmatch(text)
	if m == nil {
		return text, nil, false
	}

	var links models.MusicLinks
	if err := json.Unmarshal([]byte(m[1]), &links); err != nil {
		return text, nil, false
	}
	if strings.TrimSpace(links.YouTube.URL) == "" {
		return text, nil, false
	}

	return StripLinks(text), &links, true
}

// StripLinks removes the first MUSIC_LINKS token and its trailing newline.
func StripLinks(text string) string {
	loc := linksTokenStrip.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + text[loc[1]:]
}

// YouTubeWatchURL links a video by id.
func YouTubeWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// YouTubeSearchURL links a YouTube results page.
func YouTubeSearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}
