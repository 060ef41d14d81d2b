package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/promptdj/internal/shared"
)

func newYouTubeServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *YouTubeService) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewYouTubeService(server.URL, "test-key", 0, server.Client())
}

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService("", "k", 0, nil); svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if svc := NewYouTubeService("http://localhost:9000/", "k", 0, nil); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService("", "k", 0, nil); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("SearchPlaylists", func(t *testing.T) {
		_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("type") != "playlist" {
				t.Errorf("expected type=playlist, got %s", q.Get("type"))
			}
			if q.Get("key") != "test-key" {
				t.Errorf("expected key param, got %q", q.Get("key"))
			}
			if q.Get("maxResults") != "10" {
				t.Errorf("expected maxResults=10, got %s", q.Get("maxResults"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items":[
				{"id":{"kind":"youtube#playlist","playlistId":"PL1"},"snippet":{"title":"kpop workout","description":"gym","channelTitle":"Mixes"}},
				{"id":{"kind":"youtube#video","videoId":"v1"},"snippet":{"title":"stray video"}}
			]}`))
		})

		playlists, err := svc.SearchPlaylists(context.Background(), "kpop workout playlist", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(playlists))
		}
		if playlists[0].ID != "PL1" || playlists[0].Title != "kpop workout" || playlists[0].Channel != "Mixes" {
			t.Errorf("unexpected playlist %+v", playlists[0])
		}
	})

	t.Run("PlaylistItems", func(t *testing.T) {
		t.Run("skips unavailable entries", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlistItems" {
					t.Errorf("expected path /playlistItems, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("maxResults"); got != "50" {
					t.Errorf("expected maxResults capped at 50, got %s", got)
				}
				w.Write([]byte(`{"items":[
					{"snippet":{"title":"IVE 'LOVE DIVE' MV","videoOwnerChannelTitle":"STARSHIP","resourceId":{"videoId":"a1"}}},
					{"snippet":{"title":"Deleted video","resourceId":{"videoId":"a2"}}}
				]}`))
			})

			items, err := svc.PlaylistItems(context.Background(), "PL1", 200)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}
			if items[0].VideoID != "a1" || items[0].Channel != "STARSHIP" {
				t.Errorf("unexpected item %+v", items[0])
			}
		})

		t.Run("requires playlist ID", func(t *testing.T) {
			svc := NewYouTubeService("", "k", 0, nil)
			if _, err := svc.PlaylistItems(context.Background(), "", 10); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("SearchVideos", func(t *testing.T) {
		_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("type") != "video" || q.Get("order") != "relevance" || q.Get("videoDuration") != "medium" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": map[string]string{"videoId": "v9"}, "snippet": map[string]string{"title": "NewJeans 'Hype Boy' Official MV", "channelTitle": "HYBE LABELS"}},
				},
			})
		})

		videos, err := svc.SearchVideos(context.Background(), "NewJeans Hype Boy official mv", 20)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 1 || videos[0].VideoID != "v9" || videos[0].Channel != "HYBE LABELS" {
			t.Errorf("unexpected videos %+v", videos)
		}
	})

	t.Run("decodes HTML entities in snippets", func(t *testing.T) {
		_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/search":
				w.Write([]byte(`{"items":[
					{"id":{"videoId":"v1","playlistId":"PL1"},"snippet":{"title":"BTS (방탄소년단) &#39;Dynamite&#39; Official MV","channelTitle":"HYBE LABELS","description":"Rock &amp; Roll &quot;live&quot;"}}
				]}`))
			case "/playlistItems":
				w.Write([]byte(`{"items":[
					{"snippet":{"title":"BTS (방탄소년단) &#39;Dynamite&#39; Official MV","videoOwnerChannelTitle":"Big Hit &amp; HYBE","resourceId":{"videoId":"v1"}}}
				]}`))
			}
		})
		want := "BTS (방탄소년단) 'Dynamite' Official MV"

		videos, err := svc.SearchVideos(context.Background(), "BTS Dynamite", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 1 || videos[0].Title != want {
			t.Fatalf("expected title %q, got %+v", want, videos)
		}
		if videos[0].Description != `Rock & Roll "live"` {
			t.Errorf("expected decoded description, got %q", videos[0].Description)
		}

		playlists, err := svc.SearchPlaylists(context.Background(), "BTS", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 1 || playlists[0].Title != want {
			t.Errorf("expected playlist title %q, got %+v", want, playlists)
		}

		items, err := svc.PlaylistItems(context.Background(), "PL1", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 1 || items[0].Title != want || items[0].Channel != "Big Hit & HYBE" {
			t.Errorf("expected decoded item, got %+v", items)
		}
	})

	t.Run("VideoStatistics", func(t *testing.T) {
		_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("id"); got != "a,b,c" {
				t.Errorf("expected ids a,b,c, got %s", got)
			}
			w.Write([]byte(`{"items":[
				{"id":"a","statistics":{"viewCount":"1200000"}},
				{"id":"b","statistics":{"viewCount":"oops"}}
			]}`))
		})

		views, err := svc.VideoStatistics(context.Background(), []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if views["a"] != 1200000 {
			t.Errorf("expected 1200000 views, got %d", views["a"])
		}
		if _, ok := views["b"]; ok {
			t.Error("expected unparsable count to be skipped")
		}
		if _, ok := views["c"]; ok {
			t.Error("expected missing id to be absent")
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("quota exceeded maps to rate limited", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`))
			})
			_, err := svc.SearchVideos(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})

		t.Run("bad key maps to auth failed", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
			})
			_, err := svc.SearchVideos(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), "API key not valid") {
				t.Errorf("expected upstream message in error, got %v", err)
			}
		})

		t.Run("server error maps to API request", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})
			_, err := svc.SearchPlaylists(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":`))
			})
			_, err := svc.SearchPlaylists(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("missing key", func(t *testing.T) {
			svc := NewYouTubeService("http://127.0.0.1:1", "", 0, nil)
			_, err := svc.SearchPlaylists(context.Background(), "q", 5)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("cancelled context", func(t *testing.T) {
			_, svc := newYouTubeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[]}`))
			})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if _, err := svc.SearchVideos(ctx, "q", 5); err == nil {
				t.Error("expected error for cancelled context")
			}
		})
	})
}
