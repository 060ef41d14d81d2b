package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
)

type failingOracle struct {
	calls int
	err   error
}

func (f *failingOracle) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateResponse{Text: "ok"}, nil
}

type stubSearcher struct {
	err error
}

func (s stubSearcher) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistInfo, error) {
	return nil, s.err
}

func (s stubSearcher) PlaylistItems(ctx context.Context, playlistID string, limit int) ([]PlaylistItem, error) {
	return nil, s.err
}

func (s stubSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]VideoItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []VideoItem{{VideoID: "v1"}}, nil
}

func (s stubSearcher) VideoStatistics(ctx context.Context, ids []string) (map[string]uint64, error) {
	return nil, s.err
}

func TestBreakerOracle(t *testing.T) {
	settings := DefaultBreakerSettings("gemini")
	settings.FailureThreshold = 2

	t.Run("passes through success", func(t *testing.T) {
		b := NewBreakerOracle(&failingOracle{}, settings, nil)
		resp, err := b.Generate(context.Background(), GenerateRequest{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Text != "ok" {
			t.Errorf("expected ok, got %q", resp.Text)
		}
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		inner := &failingOracle{err: shared.ErrAPIRequest}
		b := NewBreakerOracle(inner, settings, nil)

		for range 2 {
			if _, err := b.Generate(context.Background(), GenerateRequest{}); !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
		}
		if b.State() != gobreaker.StateOpen {
			t.Fatalf("expected open state, got %s", b.State())
		}

		_, err := b.Generate(context.Background(), GenerateRequest{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if inner.calls != 2 {
			t.Errorf("expected open circuit to skip upstream, got %d calls", inner.calls)
		}
	})

	t.Run("ignores cancellation", func(t *testing.T) {
		b := NewBreakerOracle(&failingOracle{err: context.Canceled}, settings, nil)
		for range 5 {
			b.Generate(context.Background(), GenerateRequest{})
		}
		if b.State() != gobreaker.StateClosed {
			t.Errorf("expected closed state, got %s", b.State())
		}
	})
}

func TestBreakerVideoSearcher(t *testing.T) {
	t.Run("passes results through", func(t *testing.T) {
		b := NewBreakerVideoSearcher(stubSearcher{}, DefaultBreakerSettings("youtube"), nil)
		videos, err := b.SearchVideos(context.Background(), "q", 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 1 {
			t.Errorf("expected 1 video, got %d", len(videos))
		}
	})

	t.Run("shares one circuit across calls", func(t *testing.T) {
		settings := DefaultBreakerSettings("youtube")
		settings.FailureThreshold = 1
		b := NewBreakerVideoSearcher(stubSearcher{err: shared.ErrAPIRequest}, settings, nil)

		b.SearchPlaylists(context.Background(), "q", 5)
		if _, err := b.VideoStatistics(context.Background(), []string{"a"}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
