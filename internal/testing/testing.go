// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/services"
)

// MockVideoSearcher is a test double for [services.VideoSearcher].
//
// Videos are looked up by exact query; VideosFunc, when set, takes precedence.
type MockVideoSearcher struct {
	Playlists    []models.PlaylistInfo
	PlaylistsErr error

	Items    map[string][]services.PlaylistItem
	ItemsErr error

	Videos     map[string][]services.VideoItem
	VideosFunc func(query string) []services.VideoItem
	VideosErr  error

	Views    map[string]uint64
	StatsErr error

	mu             sync.Mutex
	PlaylistQuery  string
	VideoQueries   []string
	ItemsRequested []string
}

func (m *MockVideoSearcher) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistInfo, error) {
	m.mu.Lock()
	m.PlaylistQuery = query
	m.mu.Unlock()
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	if len(m.Playlists) > limit {
		return m.Playlists[:limit], nil
	}
	return m.Playlists, nil
}

func (m *MockVideoSearcher) PlaylistItems(ctx context.Context, playlistID string, limit int) ([]services.PlaylistItem, error) {
	m.mu.Lock()
	m.ItemsRequested = append(m.ItemsRequested, playlistID)
	m.mu.Unlock()
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	return m.Items[playlistID], nil
}

func (m *MockVideoSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]services.VideoItem, error) {
	m.mu.Lock()
	m.VideoQueries = append(m.VideoQueries, query)
	m.mu.Unlock()
	if m.VideosErr != nil {
		return nil, m.VideosErr
	}
	if m.VideosFunc != nil {
		return m.VideosFunc(query), nil
	}
	return m.Videos[query], nil
}

func (m *MockVideoSearcher) VideoStatistics(ctx context.Context, ids []string) (map[string]uint64, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	out := make(map[string]uint64, len(ids))
	for _, id := range ids {
		if v, ok := m.Views[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// OracleReply is one scripted [MockOracle] answer.
type OracleReply struct {
	Response *services.GenerateResponse
	Err      error
}

// MockOracle is a test double for [services.Oracle] that replays Replies in order, repeating the last.
type MockOracle struct {
	Replies []OracleReply

	mu       sync.Mutex
	Requests []services.GenerateRequest
}

func (m *MockOracle) Generate(ctx context.Context, req services.GenerateRequest) (*services.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if len(m.Replies) == 0 {
		return nil, errors.New("mock oracle: no replies")
	}
	i := min(len(m.Requests)-1, len(m.Replies)-1)
	return m.Replies[i].Response, m.Replies[i].Err
}

// Calls returns the number of Generate invocations.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// FunctionCallReply builds a reply calling search_real_music.
func FunctionCallReply(artist, song, situation, reason string) OracleReply {
	return OracleReply{Response: &services.GenerateResponse{
		FunctionCall: &services.FunctionCall{
			Name: services.SearchRealMusicFunction,
			Args: map[string]any{"artist": artist, "song": song, "context": situation, "reason": reason},
		},
	}}
}

// TextReply builds a text-only reply.
func TextReply(text string) OracleReply {
	return OracleReply{Response: &services.GenerateResponse{Text: text}}
}

// ErrorReply builds a failing reply.
func ErrorReply(err error) OracleReply {
	return OracleReply{Err: err}
}

// MockTrackSearcher is a test double for [services.TrackSearcher].
type MockTrackSearcher struct {
	Tracks  []services.SpotifyTrack
	Err     error
	Queries []string
}

func (m *MockTrackSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]services.SpotifyTrack, error) {
	m.Queries = append(m.Queries, query)
	return m.Tracks, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
