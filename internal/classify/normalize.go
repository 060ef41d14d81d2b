package classify

import (
	"regexp"
	"strings"
)

// UnknownArtist is returned when neither the label nor the channel yields an artist.
const UnknownArtist = "Unknown Artist"

// Normalized is a cleaned title/artist pair.
type Normalized struct {
	Title  string
	Artist string
}

var (
	marketingTokens = map[string]struct{}{
		"official": {}, "audio": {}, "video": {}, "mv": {}, "m/v": {}, "music": {}, "lyric": {},
		"lyrics": {}, "full": {}, "album": {}, "ver": {}, "ver.": {}, "version": {},
	}
	channelNoise = regexp.MustCompile(`(?i)official|vevo|entertainment|music|records|channel|topic`)
	spacedDash   = regexp.MustCompile(`\s+[-–—]+\s+`)
	bareDash     = regexp.MustCompile(`[-–—]`)
	quotedTitle  = regexp.MustCompile(`^(.+?)\s*['"‘’“”「『]\s*(.+?)\s*['"‘’“”」』]`)
)

// Normalize splits an upload label into title and artist, using channel when the label has no
// artist part. Non-empty labels always yield non-empty fields.
func Normalize(label, channel string) Normalized {
	cleaned := CleanLabel(label)
	if cleaned == "" {
		cleaned = collapse(label)
	}
	if cleaned == "" {
		cleaned = label
	}

	if artist, title, ok := splitArtistTitle(cleaned); ok {
		return Normalized{Title: title, Artist: artist}
	}

	if m := quotedTitle.FindStringSubmatch(cleaned); m != nil {
		if artist := strings.TrimSpace(m[1]); artist != "" {
			return Normalized{Title: strings.TrimSpace(m[2]), Artist: artist}
		}
	}

	return Normalized{Title: cleaned, Artist: ArtistFromChannel(channel)}
}

// ExtractTitle returns the title half of [Normalize].
func ExtractTitle(label string) string {
	return Normalize(label, "").Title
}

// ExtractArtist returns the artist half of [Normalize].
func ExtractArtist(label, channel string) string {
	return Normalize(label, channel).Artist
}

// CleanLabel strips bracketed segments and marketing tokens and collapses whitespace.
func CleanLabel(label string) string {
	fields := strings.Fields(stripBracketedSegments(label))
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := marketingTokens[strings.ToLower(f)]; drop {
			continue
		}
		kept = append(kept, f)
	}
	return trimSeparators(strings.Join(kept, " "))
}

// ArtistFromChannel strips label/company noise from a channel name.
func ArtistFromChannel(channel string) string {
	cleaned := trimSeparators(collapse(channelNoise.ReplaceAllString(channel, "")))
	if cleaned == "" {
		return UnknownArtist
	}
	return cleaned
}

// splitArtistTitle prefers a spaced separator ("Jay-Z - Song") before a bare one ("IU-Blueming").
func splitArtistTitle(s string) (artist, title string, ok bool) {
	parts := spacedDash.Split(s, -1)
	if len(parts) < 2 {
		parts = bareDash.Split(s, -1)
	}
	if len(parts) < 2 {
		return "", "", false
	}

	artist = strings.TrimSpace(parts[0])
	title = trimSeparators(strings.Join(parts[1:], " - "))
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// stripBracketedSegments drops (...) and [...] spans, tolerating nesting and stray closers.
func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimSeparators(s string) string {
	return strings.Trim(strings.TrimSpace(s), " -–—|:")
}
