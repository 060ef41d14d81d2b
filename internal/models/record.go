package models

import (
	"fmt"
	"time"
)

// RecommendationRecord is a persisted resolution, kept for history and analytics.
type RecommendationRecord struct {
	id          string
	sequence    int
	genre       Genre
	prompt      string
	songKey     string
	artist      string
	title       string
	videoID     string
	sourceLabel string
	stage       Stage
	confidence  float64
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

var _ Model = (*RecommendationRecord)(nil)

// NewRecommendationRecord builds an unsaved record from a resolved turn.
func NewRecommendationRecord(req RecommendationRequest, res *ResolutionResult) *RecommendationRecord {
	now := time.Now()
	r := &RecommendationRecord{
		genre:      req.Genre,
		prompt:     req.Prompt,
		stage:      res.Stage,
		confidence: res.Confidence,
		createdAt:  now,
		updatedAt:  now,
	}
	r.sourceLabel = res.Source
	if song := res.Chosen; song != nil {
		r.songKey = song.Key()
		r.artist = song.Artist
		r.title = song.Title
		r.videoID = song.SourceID
	}
	return r
}

// RestoreRecommendationRecord rebuilds a record from stored columns.
func RestoreRecommendationRecord(
	id string, sequence int, genre Genre, prompt, songKey, artist, title, videoID, sourceLabel string,
	stage Stage, confidence float64, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *RecommendationRecord {
	return &RecommendationRecord{
		id: id, sequence: sequence, genre: genre, prompt: prompt, songKey: songKey,
		artist: artist, title: title, videoID: videoID, sourceLabel: sourceLabel,
		stage: stage, confidence: confidence, createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt,
	}
}

func (r *RecommendationRecord) ID() string            { return r.id }
func (r *RecommendationRecord) Sequence() int         { return r.sequence }
func (r *RecommendationRecord) Genre() Genre          { return r.genre }
func (r *RecommendationRecord) Prompt() string        { return r.prompt }
func (r *RecommendationRecord) SongKey() string       { return r.songKey }
func (r *RecommendationRecord) Artist() string        { return r.artist }
func (r *RecommendationRecord) Title() string         { return r.title }
func (r *RecommendationRecord) VideoID() string       { return r.videoID }
func (r *RecommendationRecord) SourceLabel() string   { return r.sourceLabel }
func (r *RecommendationRecord) Stage() Stage          { return r.stage }
func (r *RecommendationRecord) Confidence() float64   { return r.confidence }
func (r *RecommendationRecord) CreatedAt() time.Time  { return r.createdAt }
func (r *RecommendationRecord) UpdatedAt() time.Time  { return r.updatedAt }
func (r *RecommendationRecord) DeletedAt() *time.Time { return r.deletedAt }

func (r *RecommendationRecord) SetID(id string)             { r.id = id }
func (r *RecommendationRecord) SetSequence(seq int)         { r.sequence = seq }
func (r *RecommendationRecord) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *RecommendationRecord) SetSourceLabel(label string) { r.sourceLabel = label }

// Validate checks required fields.
func (r *RecommendationRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("recommendation id is required")
	}
	if !r.genre.Valid() {
		return fmt.Errorf("invalid genre: %q", r.genre)
	}
	if r.prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.stage == "" {
		return fmt.Errorf("stage is required")
	}
	if r.confidence < 0 || r.confidence > 1 {
		return fmt.Errorf("confidence out of range: %v", r.confidence)
	}
	return nil
}
