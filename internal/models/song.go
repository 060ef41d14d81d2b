package models

import (
	"slices"
	"strings"
)

// CandidateSong is a song surfaced by a search oracle. It is never mutated after creation.
type CandidateSong struct {
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	SourceID      string  `json:"sourceId"`      // video id
	OriginalLabel string  `json:"originalLabel"` // unprocessed upload title
	Channel       string  `json:"channel,omitempty"`
	Views         *uint64 `json:"views,omitempty"`
}

// Key returns the song's exclusion identity.
func (s CandidateSong) Key() string {
	return SongKey(s.Artist, s.Title)
}

// SongKey joins artist and title as "artist-title".
//
// The key is case-sensitive and does no further normalization, so formatting variance between
// sources can make the same song look new, and unrelated songs can collide.
func SongKey(artist, title string) string {
	return artist + "-" + title
}

// ArtistFromKey returns the text before the first "-" of a [SongKey].
//
// Artists whose names contain a dash are truncated; exclusion prompts tolerate that.
func ArtistFromKey(key string) string {
	artist, _, _ := strings.Cut(key, "-")
	return strings.TrimSpace(artist)
}

// PlaylistInfo describes one playlist search hit. Ephemeral, never persisted.
type PlaylistInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
}

// KeySet is a set of song keys.
type KeySet map[string]struct{}

// NewKeySet builds a set from keys, skipping blanks.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports membership; a nil set contains nothing.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the members in sorted order.
func (s KeySet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Artists returns the de-duplicated artist half of every key, sorted.
func (s KeySet) Artists() []string {
	seen := map[string]struct{}{}
	var out []string
	for k := range s {
		a := ArtistFromKey(k)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// SessionExclusionSet is the set of songs already recommended in one genre session.
//
// It grows monotonically until [SessionExclusionSet.Clear] (genre switch). It is owned by the
// caller and is not safe for concurrent turns against the same session; serialize turns.
type SessionExclusionSet struct {
	keys  KeySet
	order []string
}

// NewSessionExclusionSet returns an empty set.
func NewSessionExclusionSet() *SessionExclusionSet {
	return &SessionExclusionSet{keys: KeySet{}}
}

// Add records a key; duplicates and blanks are ignored.
func (e *SessionExclusionSet) Add(key string) {
	if key == "" || e.keys.Has(key) {
		return
	}
	e.keys[key] = struct{}{}
	e.order = append(e.order, key)
}

// Has reports membership.
func (e *SessionExclusionSet) Has(key string) bool { return e.keys.Has(key) }

// Len is the number of recorded keys.
func (e *SessionExclusionSet) Len() int { return len(e.order) }

// Keys returns recorded keys in insertion order.
func (e *SessionExclusionSet) Keys() []string { return slices.Clone(e.order) }

// Snapshot copies the set for one resolution attempt.
func (e *SessionExclusionSet) Snapshot() KeySet { return NewKeySet(e.order...) }

// Clear empties the set.
func (e *SessionExclusionSet) Clear() {
	e.keys = KeySet{}
	e.order = nil
}
