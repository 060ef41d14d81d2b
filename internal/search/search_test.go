package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/services"
	"github.com/desertthunder/promptdj/internal/shared"
	tu "github.com/desertthunder/promptdj/internal/testing"
)

func newTestAdapter(yt services.VideoSearcher) *Adapter {
	return NewAdapter(AdapterOpts{
		YouTube: yt,
		Random:  NewSeededRandom(7),
		Logger:  log.New(io.Discard),
	})
}

func TestPlaylistQuery(t *testing.T) {
	a := newTestAdapter(&tu.MockVideoSearcher{})

	t.Run("doubles genre keywords and adds emotion phrase", func(t *testing.T) {
		got := a.PlaylistQuery("운동할 때 에너지 넘치게", models.GenreKPop)
		kw := "kpop korean k-pop 한국음악 korean music idol"
		want := kw + " " + kw + " workout gym motivation energetic powerful playlist"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("first matching emotion only", func(t *testing.T) {
		got := a.PlaylistQuery("슬프고 우울해", models.GenrePop)
		if !strings.Contains(got, "sad melancholy") {
			t.Errorf("expected first emotion phrase, got %q", got)
		}
		if strings.Contains(got, "depression") {
			t.Errorf("expected a single emotion phrase, got %q", got)
		}
	})

	t.Run("no emotion", func(t *testing.T) {
		got := a.PlaylistQuery("anything", models.GenreOther)
		if got != "music songs music songs playlist" {
			t.Errorf("unexpected query %q", got)
		}
	})
}

func TestFindPlaylists(t *testing.T) {
	t.Run("keeps genre matches in rank order", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{Playlists: []models.PlaylistInfo{
			{ID: "p1", Title: "KPOP Workout Hits"},
			{ID: "p2", Title: "Jazz for work"},
			{ID: "p3", Title: "Gym songs", Description: "best of BTS and TWICE"},
		}}
		got := newTestAdapter(yt).FindPlaylists(context.Background(), "q", models.GenreKPop)
		if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p3" {
			t.Errorf("expected [p1 p3], got %+v", got)
		}
		if yt.PlaylistQuery != "q" {
			t.Errorf("expected query to be forwarded, got %q", yt.PlaylistQuery)
		}
	})

	t.Run("filters everything out instead of crossing genres", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{Playlists: []models.PlaylistInfo{
			{ID: "p1", Title: "kpop lofi study"},
			{ID: "p2", Title: "lofi korean beats"},
		}}
		got := newTestAdapter(yt).FindPlaylists(context.Background(), "q", models.GenreKPop)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("upstream error is an empty result", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{PlaylistsErr: shared.ErrAPIRequest}
		if got := newTestAdapter(yt).FindPlaylists(context.Background(), "q", models.GenreKPop); len(got) != 0 {
			t.Errorf("expected no playlists, got %+v", got)
		}
	})

	t.Run("other accepts anything", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{Playlists: []models.PlaylistInfo{{ID: "p1", Title: "lofi"}}}
		if got := newTestAdapter(yt).FindPlaylists(context.Background(), "q", models.GenreOther); len(got) != 1 {
			t.Errorf("expected 1 playlist, got %d", len(got))
		}
	})
}

func TestExtractSongs(t *testing.T) {
	yt := &tu.MockVideoSearcher{Items: map[string][]services.PlaylistItem{
		"p1": {
			{VideoID: "a1", Title: "BTS - Dynamite (Official MV)", Channel: "HYBE LABELS"},
			{VideoID: "a2", Title: "BLACKPINK - How You Like That M/V", Channel: "BLACKPINK"},
			{VideoID: "a3", Title: "kpop workout mix 1 hour MV", Channel: "Mixes"},
			{VideoID: "", Title: "TWICE - FANCY MV", Channel: "JYP"},
			{VideoID: "a5", Title: "Deleted video", Channel: "x"},
			{VideoID: "a6", Title: "IU - Hi (Official MV)", Channel: "IU"},
			{VideoID: "a7", Title: "BTS - Dynamite (Live)", Channel: "HYBE LABELS"},
		},
	}}
	a := newTestAdapter(yt)

	t.Run("keeps valid official videos", func(t *testing.T) {
		songs := a.ExtractSongs(context.Background(), "p1")
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d: %+v", len(songs), songs)
		}

		keys := models.NewKeySet()
		for _, s := range songs {
			keys[s.Key()] = struct{}{}
		}
		for _, want := range []string{"BTS-Dynamite", "BLACKPINK-How You Like That"} {
			if !keys.Has(want) {
				t.Errorf("expected %q in %v", want, keys.Keys())
			}
		}
	})

	t.Run("carries the original label", func(t *testing.T) {
		for _, s := range a.ExtractSongs(context.Background(), "p1") {
			if s.OriginalLabel == "" || s.SourceID == "" {
				t.Errorf("expected label and id, got %+v", s)
			}
		}
	})

	t.Run("escaped titles from the API normalize", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items":[
				{"snippet":{"title":"BTS (방탄소년단) &#39;Dynamite&#39; Official MV","videoOwnerChannelTitle":"HYBE LABELS","resourceId":{"videoId":"gdZLi9oWNZg"}}}
			]}`))
		}))
		defer srv.Close()

		live := newTestAdapter(services.NewYouTubeService(srv.URL, "test-key", 0, srv.Client()))
		songs := live.ExtractSongs(context.Background(), "p1")
		if len(songs) != 1 {
			t.Fatalf("expected 1 song, got %d", len(songs))
		}
		if songs[0].Key() != "BTS-Dynamite" {
			t.Errorf("expected key BTS-Dynamite, got %s (artist %q)", songs[0].Key(), songs[0].Artist)
		}
	})

	t.Run("error is empty", func(t *testing.T) {
		failing := newTestAdapter(&tu.MockVideoSearcher{ItemsErr: errors.New("boom")})
		if songs := failing.ExtractSongs(context.Background(), "p1"); len(songs) != 0 {
			t.Errorf("expected no songs, got %d", len(songs))
		}
	})

	t.Run("seeded shuffle is deterministic", func(t *testing.T) {
		first := newTestAdapter(yt).ExtractSongs(context.Background(), "p1")
		second := newTestAdapter(yt).ExtractSongs(context.Background(), "p1")
		for i := range first {
			if first[i].SourceID != second[i].SourceID {
				t.Fatalf("expected same order for same seed, got %v vs %v", first, second)
			}
		}
	})
}

func TestFindTopVideo(t *testing.T) {
	videos := []services.VideoItem{
		{VideoID: "v1", Title: "BTS - Dynamite (Official MV)", Channel: "HYBE LABELS"},
		{VideoID: "v2", Title: "BTS - Butter (Official MV)", Channel: "HYBE LABELS"},
		{VideoID: "v3", Title: "BTS - Dynamite (Cover)", Channel: "someone"},
		{VideoID: "v4", Title: "Lofi kpop MV", Channel: "beats"},
		{VideoID: "v5", Title: "Taylor Swift - Anti-Hero (Official Music Video)", Channel: "Taylor Swift"},
		{VideoID: "v6", Title: "BTS - Small (Official MV)", Channel: "HYBE LABELS"},
	}
	views := map[string]uint64{"v1": 1_500_000_000, "v2": 900_000_000, "v5": 2_000_000_000, "v6": 50_000}

	t.Run("picks most viewed above threshold", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{VideosFunc: func(string) []services.VideoItem { return videos }, Views: views}
		got := newTestAdapter(yt).FindTopVideo(context.Background(), "BTS Dynamite official mv", models.GenreKPop)
		if got == nil {
			t.Fatal("expected a video")
		}
		if got.SourceID != "v1" {
			t.Errorf("expected v1, got %s", got.SourceID)
		}
		if got.Views == nil || *got.Views != 1_500_000_000 {
			t.Errorf("expected view count, got %v", got.Views)
		}
		if got.Key() != "BTS-Dynamite" {
			t.Errorf("expected key BTS-Dynamite, got %s", got.Key())
		}
	})

	t.Run("results stay in genre", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{VideosFunc: func(string) []services.VideoItem { return videos }, Views: views}
		got := newTestAdapter(yt).FindTopVideo(context.Background(), "q", models.GenreKPop)
		if got == nil || !classify.MatchesGenre(got.OriginalLabel, got.Channel, models.GenreKPop) {
			t.Errorf("expected kpop result, got %+v", got)
		}
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{
			VideosFunc: func(string) []services.VideoItem { return videos[5:] },
			Views:      views,
		}
		if got := newTestAdapter(yt).FindTopVideo(context.Background(), "q", models.GenreKPop); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("statistics failure falls back to first candidate", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{
			VideosFunc: func(string) []services.VideoItem { return videos },
			StatsErr:   shared.ErrRateLimited,
		}
		got := newTestAdapter(yt).FindTopVideo(context.Background(), "q", models.GenreKPop)
		if got == nil || got.SourceID != "v1" {
			t.Fatalf("expected first candidate v1, got %+v", got)
		}
		if got.Views != nil {
			t.Errorf("expected unknown views, got %d", *got.Views)
		}
	})

	t.Run("no official video", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{VideosFunc: func(string) []services.VideoItem { return videos[2:4] }}
		if got := newTestAdapter(yt).FindTopVideo(context.Background(), "q", models.GenreKPop); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("search error", func(t *testing.T) {
		yt := &tu.MockVideoSearcher{VideosErr: shared.ErrTimeout}
		if got := newTestAdapter(yt).FindTopVideo(context.Background(), "q", models.GenreKPop); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}
