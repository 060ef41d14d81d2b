package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
)

const recommendationColumns = `id, sequence, genre, prompt, song_key, artist, title, video_id, source_label, stage, confidence, created_at, updated_at, deleted_at`

// RecommendationRepository implements models.Repository[*models.RecommendationRecord] for
// recommendation history.
type RecommendationRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.RecommendationRecord] = (*RecommendationRepository)(nil)

// NewRecommendationRepository creates a new RecommendationRepository with the given database connection
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create inserts a new record with a generated ID and sequence in one transaction.
func (r *RecommendationRepository) Create(rec *models.RecommendationRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "recommendations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	rec.SetID(id)
	rec.SetSequence(sequence)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO recommendations (id, sequence, genre, prompt, song_key, artist, title, video_id, source_label, stage, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		rec.Genre(),
		rec.Prompt(),
		rec.SongKey(),
		rec.Artist(),
		rec.Title(),
		rec.VideoID(),
		rec.SourceLabel(),
		rec.Stage(),
		rec.Confidence(),
		rec.CreatedAt(),
		rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation: %w", err)
	}
	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *RecommendationRepository) Get(id string) (*models.RecommendationRecord, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// Update modifies the source label of an existing record; the resolved song itself is immutable.
func (r *RecommendationRepository) Update(rec *models.RecommendationRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	rec.SetUpdatedAt(now)

	query := `
		UPDATE recommendations
		SET source_label = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, rec.SourceLabel(), now, rec.ID())
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}

	return affectedOne(result, rec.ID())
}

// Delete soft-deletes a record by ID
func (r *RecommendationRepository) Delete(id string) error {
	query := `
		UPDATE recommendations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete recommendation: %w", err)
	}

	return affectedOne(result, id)
}

// List retrieves records matching the given criteria, newest first, excluding soft-deleted records.
//
// Supported criteria: "genre" (string or [models.Genre]), "stage" (string or [models.Stage]),
// "limit" (int).
func (r *RecommendationRepository) List(criteria map[string]any) ([]*models.RecommendationRecord, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE deleted_at IS NULL`
	args := []any{}

	if genre := criterion(criteria, "genre"); genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if stage := criterion(criteria, "stage"); stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var records []*models.RecommendationRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Recent returns the newest limit records, optionally restricted to genre ("" for all).
func (r *RecommendationRepository) Recent(genre models.Genre, limit int) ([]*models.RecommendationRecord, error) {
	return r.List(map[string]any{"genre": genre, "limit": limit})
}

// Stats counts live records per resolver stage.
func (r *RecommendationRepository) Stats() (map[models.Stage]int, error) {
	rows, err := r.db.Query(`SELECT stage, COUNT(*) FROM recommendations WHERE deleted_at IS NULL GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := map[models.Stage]int{}
	for rows.Next() {
		var (
			stage string
			count int
		)
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[models.Stage(stage)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row from [sql.Row] or [sql.Rows] into a [models.RecommendationRecord]
func (r *RecommendationRepository) scan(row scanner) (*models.RecommendationRecord, error) {
	var (
		id          string
		sequence    int
		genre       string
		prompt      string
		songKey     sql.NullString
		artist      sql.NullString
		title       sql.NullString
		videoID     sql.NullString
		sourceLabel sql.NullString
		stage       string
		confidence  float64
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &genre, &prompt, &songKey, &artist, &title, &videoID, &sourceLabel,
		&stage, &confidence, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: recommendation", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreRecommendationRecord(
		id, sequence, models.Genre(genre), prompt, songKey.String, artist.String, title.String,
		videoID.String, sourceLabel.String, models.Stage(stage), confidence, createdAt, updatedAt, deleted,
	), nil
}

func affectedOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: recommendation %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}

func criterion(criteria map[string]any, key string) string {
	switch v := criteria[key].(type) {
	case string:
		return v
	case models.Genre:
		return string(v)
	case models.Stage:
		return string(v)
	default:
		return ""
	}
}

// HistoryRecorder implements recommend.Recorder using RecommendationRepository.
//
// Duplicate inserts are silently ignored (UNIQUE constraint violations).
type HistoryRecorder struct {
	repo *RecommendationRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *RecommendationRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record stores one resolved turn.
func (h *HistoryRecorder) Record(ctx context.Context, req models.RecommendationRequest, res *models.ResolutionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := h.repo.Create(models.NewRecommendationRecord(req, res)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to record recommendation: %w", err)
	}
	return nil
}
