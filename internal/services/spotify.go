// Spotify Web API implementation of [TrackSearcher]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/promptdj/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// FirstArtist returns the primary artist name or "".
func (t SpotifyTrack) FirstArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// URL returns the open.spotify.com link, built from the ID when the response omitted it.
func (t SpotifyTrack) URL() string {
	if t.ExternalURLs.Spotify != "" {
		return t.ExternalURLs.Spotify
	}
	if t.ID == "" {
		return ""
	}
	return "https://open.spotify.com/track/" + t.ID
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService implements [TrackSearcher] with the client-credentials grant.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify client. The returned client obtains and refreshes app tokens
// on demand; no user authorization is involved.
func NewSpotifyService(ctx context.Context, clientID, clientSecret, tokenURL, baseURL string) *SpotifyService {
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cfg.Client(ctx),
	}
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchTracks searches the catalog for tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(clamp(limit, 1, 50)))

	var resp spotifySearchResponse
	endpoint := s.baseURL + "/search?" + params.Encode()
	if err := doRequest(ctx, requestOpts{client: s.httpClient}, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// MatchTrack picks the first track whose name or primary artist appears in videoTitle, falling back
// to the first track. Returns nil for an empty slice.
func MatchTrack(tracks []SpotifyTrack, videoTitle string) *SpotifyTrack {
	if len(tracks) == 0 {
		return nil
	}

	title := strings.ToLower(videoTitle)
	for i := range tracks {
		name := strings.ToLower(tracks[i].Name)
		artist := strings.ToLower(tracks[i].FirstArtist())
		if (name != "" && strings.Contains(title, name)) || (artist != "" && strings.Contains(title, artist)) {
			return &tracks[i]
		}
	}
	return &tracks[0]
}
