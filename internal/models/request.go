package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/promptdj/internal/shared"
)

// RecommendationRequest is the immutable input to one resolution attempt.
type RecommendationRequest struct {
	Prompt      string
	Genre       Genre
	RecentTurns []string
	Excluded    KeySet
}

// NewRecommendationRequest validates the prompt and genre, keeps the last maxTurns turns and snapshots excluded.
func NewRecommendationRequest(prompt string, genre Genre, turns []string, maxTurns int, excluded []string) (RecommendationRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return RecommendationRequest{}, fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}
	if !genre.Valid() {
		return RecommendationRequest{}, fmt.Errorf("%w: %q", shared.ErrUnknownGenre, genre)
	}

	return RecommendationRequest{
		Prompt:      prompt,
		Genre:       genre,
		RecentTurns: LastTurns(turns, maxTurns),
		Excluded:    NewKeySet(excluded...),
	}, nil
}

// LastTurns returns a copy of the final n entries of turns.
func LastTurns(turns []string, n int) []string {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]string, len(turns))
	copy(out, turns)
	return out
}
