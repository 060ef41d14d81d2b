package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures a circuit around one upstream.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open duration before half-open
	FailureThreshold uint32        // consecutive failures that open the circuit
}

// DefaultBreakerSettings returns production defaults for name.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

func newBreaker(s BreakerSettings, logger *log.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// Caller cancellation and bad input say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, shared.ErrMissingArgument)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// execute runs fn through cb, mapping rejections to [shared.ErrServiceUnavailable].
func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, cb.Name(), err)
		}
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// BreakerVideoSearcher wraps a [VideoSearcher] with one circuit shared by all its calls.
type BreakerVideoSearcher struct {
	next VideoSearcher
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerVideoSearcher wraps next.
func NewBreakerVideoSearcher(next VideoSearcher, s BreakerSettings, logger *log.Logger) *BreakerVideoSearcher {
	return &BreakerVideoSearcher{next: next, cb: newBreaker(s, logger)}
}

// State reports the circuit state.
func (b *BreakerVideoSearcher) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerVideoSearcher) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.PlaylistInfo, error) {
	return execute(b.cb, func() ([]models.PlaylistInfo, error) {
		return b.next.SearchPlaylists(ctx, query, limit)
	})
}

func (b *BreakerVideoSearcher) PlaylistItems(ctx context.Context, playlistID string, limit int) ([]PlaylistItem, error) {
	return execute(b.cb, func() ([]PlaylistItem, error) {
		return b.next.PlaylistItems(ctx, playlistID, limit)
	})
}

func (b *BreakerVideoSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]VideoItem, error) {
	return execute(b.cb, func() ([]VideoItem, error) {
		return b.next.SearchVideos(ctx, query, limit)
	})
}

func (b *BreakerVideoSearcher) VideoStatistics(ctx context.Context, ids []string) (map[string]uint64, error) {
	return execute(b.cb, func() (map[string]uint64, error) {
		return b.next.VideoStatistics(ctx, ids)
	})
}

// BreakerOracle wraps an [Oracle].
type BreakerOracle struct {
	next Oracle
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerOracle wraps next.
func NewBreakerOracle(next Oracle, s BreakerSettings, logger *log.Logger) *BreakerOracle {
	return &BreakerOracle{next: next, cb: newBreaker(s, logger)}
}

// State reports the circuit state.
func (b *BreakerOracle) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerOracle) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return execute(b.cb, func() (*GenerateResponse, error) {
		return b.next.Generate(ctx, req)
	})
}

// BreakerTrackSearcher wraps a [TrackSearcher].
type BreakerTrackSearcher struct {
	next TrackSearcher
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerTrackSearcher wraps next.
func NewBreakerTrackSearcher(next TrackSearcher, s BreakerSettings, logger *log.Logger) *BreakerTrackSearcher {
	return &BreakerTrackSearcher{next: next, cb: newBreaker(s, logger)}
}

func (b *BreakerTrackSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	return execute(b.cb, func() ([]SpotifyTrack, error) {
		return b.next.SearchTracks(ctx, query, limit)
	})
}
