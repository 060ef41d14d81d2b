// YouTube Data API v3 implementation of [VideoSearcher]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYTBaseURL     = "https://www.googleapis.com/youtube/v3"
	maxPlaylistItems     = 50
	maxStatisticsPerCall = 50
)

type youtubeResourceID struct {
	Kind       string `json:"kind"`
	VideoID    string `json:"videoId"`
	PlaylistID string `json:"playlistId"`
}

// YouTubeSnippet is the snippet part shared by search results and playlist items.
type YouTubeSnippet struct {
	Title                  string            `json:"title"`
	Description            string            `json:"description"`
	ChannelTitle           string            `json:"channelTitle"`
	VideoOwnerChannelTitle string            `json:"videoOwnerChannelTitle"`
	ResourceID             youtubeResourceID `json:"resourceId"`
}

// YouTubeSearchResult is one item of a search.list response.
type YouTubeSearchResult struct {
	ID      youtubeResourceID `json:"id"`
	Snippet YouTubeSnippet    `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items         []YouTubeSearchResult `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
}

type youtubePlaylistItemsResponse struct {
	Items []struct {
		Snippet YouTubeSnippet `json:"snippet"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// YouTubeService implements [VideoSearcher] against the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeService creates a YouTube Data API client.
//
// rps paces outbound calls; values <= 0 disable pacing.
func NewYouTubeService(baseURL, apiKey string, rps float64, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
		limiter:    limiter,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// SearchPlaylists searches public playlists matching query.
func (y *YouTubeService) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistInfo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "playlist")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(clamp(limit, 1, 50)))

	var resp youtubeSearchResponse
	if err := y.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	playlists := make([]models.PlaylistInfo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.PlaylistID == "" {
			continue
		}
		playlists = append(playlists, models.PlaylistInfo{
			ID:          item.ID.PlaylistID,
			Title:       html.UnescapeString(item.Snippet.Title),
			Description: html.UnescapeString(item.Snippet.Description),
			Channel:     html.UnescapeString(item.Snippet.ChannelTitle),
		})
	}
	return playlists, nil
}

// PlaylistItems lists up to limit entries (capped at 50) of a playlist.
//
// Deleted and private videos come back without an owner channel; they are skipped.
func (y *YouTubeService) PlaylistItems(ctx context.Context, playlistID string, limit int) ([]PlaylistItem, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(clamp(limit, 1, maxPlaylistItems)))

	var resp youtubePlaylistItemsResponse
	if err := y.get(ctx, "/playlistItems", params, &resp); err != nil {
		return nil, err
	}

	items := make([]PlaylistItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		sn := item.Snippet
		if sn.ResourceID.VideoID == "" || sn.VideoOwnerChannelTitle == "" {
			continue
		}
		items = append(items, PlaylistItem{
			VideoID: sn.ResourceID.VideoID,
			Title:   html.UnescapeString(sn.Title),
			Channel: html.UnescapeString(sn.VideoOwnerChannelTitle),
		})
	}
	return items, nil
}

// SearchVideos searches medium-length videos ordered by relevance.
func (y *YouTubeService) SearchVideos(ctx context.Context, query string, limit int) ([]VideoItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("order", "relevance")
	params.Set("videoDuration", "medium")
	params.Set("maxResults", strconv.Itoa(clamp(limit, 1, 50)))

	var resp youtubeSearchResponse
	if err := y.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]VideoItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, VideoItem{
			VideoID:     item.ID.VideoID,
			Title:       html.UnescapeString(item.Snippet.Title),
			Channel:     html.UnescapeString(item.Snippet.ChannelTitle),
			Description: html.UnescapeString(item.Snippet.Description),
		})
	}
	return videos, nil
}

// VideoStatistics returns view counts keyed by video ID. Unknown IDs are absent from the map.
func (y *YouTubeService) VideoStatistics(ctx context.Context, ids []string) (map[string]uint64, error) {
	views := make(map[string]uint64, len(ids))
	for start := 0; start < len(ids); start += maxStatisticsPerCall {
		end := min(start+maxStatisticsPerCall, len(ids))

		params := url.Values{}
		params.Set("part", "statistics")
		params.Set("id", strings.Join(ids[start:end], ","))

		var resp youtubeVideosResponse
		if err := y.get(ctx, "/videos", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			n, err := strconv.ParseUint(item.Statistics.ViewCount, 10, 64)
			if err != nil {
				continue
			}
			views[item.ID] = n
		}
	}
	return views, nil
}

// get waits for the limiter then performs a keyed GET.
func (y *YouTubeService) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	if y.apiKey == "" {
		return fmt.Errorf("%w: youtube api key", shared.ErrMissingCredentials)
	}
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()
	return doRequest(ctx, requestOpts{client: y.httpClient}, http.MethodGet, apiURL, nil, result)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
