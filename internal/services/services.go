package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
)

// VideoSearcher is the subset of the YouTube Data API used by the search adapter.
type VideoSearcher interface {
	SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistInfo, error)
	PlaylistItems(ctx context.Context, playlistID string, limit int) ([]PlaylistItem, error)
	SearchVideos(ctx context.Context, query string, limit int) ([]VideoItem, error)
	VideoStatistics(ctx context.Context, ids []string) (map[string]uint64, error)
}

// Oracle is a generative model that answers a prompt with text or a function call.
type Oracle interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// TrackSearcher searches a streaming catalog.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error)
}

// PlaylistItem is one entry of a playlist.
type PlaylistItem struct {
	VideoID string
	Title   string
	Channel string // owner channel of the video, not of the playlist
}

// VideoItem is one video search hit.
type VideoItem struct {
	VideoID     string
	Title       string
	Channel     string
	Description string
}

// apiError is the error envelope shared by the Google APIs.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// quotaExceeded reports whether the envelope describes an exhausted quota rather than bad credentials.
func (e apiError) quotaExceeded() bool {
	if e.Error.Status == "RESOURCE_EXHAUSTED" {
		return true
	}
	for _, d := range e.Error.Errors {
		if d.Reason == "quotaExceeded" || d.Reason == "rateLimitExceeded" {
			return true
		}
	}
	return false
}

// requestOpts carries per-client request decoration.
type requestOpts struct {
	client  *http.Client
	headers map[string]string
}

// doRequest performs an HTTP request and decodes a JSON response into result.
func doRequest(ctx context.Context, opts requestOpts, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	client := opts.client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrMalformedResponse, err)
		}
	}
	return nil
}

// statusError maps a non-2xx response to a sentinel, keeping the upstream message when present.
func statusError(resp *http.Response) error {
	var envelope apiError
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if envelope.quotaExceeded() {
			return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
		}
		return fmt.Errorf("%w: status %d: %s", shared.ErrAuthFailed, resp.StatusCode, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}
