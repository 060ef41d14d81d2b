package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/promptdj/internal/shared"
)

// Genre is the user-selected category every surfaced song must match.
type Genre string

const (
	GenreKPop      Genre = "kpop"
	GenrePop       Genre = "pop"
	GenreClassical Genre = "classical"
	GenreJPop      Genre = "jpop"
	GenreAnimeOST  Genre = "anime-ost"
	GenreCPop      Genre = "cpop"
	GenreOther     Genre = "other"
)

var genres = []Genre{GenreKPop, GenrePop, GenreClassical, GenreJPop, GenreAnimeOST, GenreCPop, GenreOther}

// Genres returns every supported genre in display order.
func Genres() []Genre {
	out := make([]Genre, len(genres))
	copy(out, genres)
	return out
}

// ParseGenre accepts a genre name in any case, with surrounding whitespace.
func ParseGenre(s string) (Genre, error) {
	g := Genre(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownGenre, s)
	}
	return g, nil
}

// Valid reports whether g is one of [Genres].
func (g Genre) Valid() bool {
	for _, known := range genres {
		if g == known {
			return true
		}
	}
	return false
}

// Label is the human readable name.
func (g Genre) Label() string {
	switch g {
	case GenreKPop:
		return "K-Pop"
	case GenrePop:
		return "Pop"
	case GenreClassical:
		return "Classical"
	case GenreJPop:
		return "J-Pop"
	case GenreAnimeOST:
		return "Anime OST"
	case GenreCPop:
		return "C-Pop"
	case GenreOther:
		return "Other"
	default:
		return string(g)
	}
}

func (g Genre) String() string { return string(g) }
