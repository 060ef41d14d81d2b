package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRecord(t *testing.T, genre models.Genre, prompt string, res *models.ResolutionResult) *models.RecommendationRecord {
	t.Helper()
	req, err := models.NewRecommendationRequest(prompt, genre, nil, 3, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return models.NewRecommendationRecord(req, res)
}

func playlistResult() *models.ResolutionResult {
	return &models.ResolutionResult{
		Text:       "text",
		Chosen:     &models.CandidateSong{Artist: "BTS", Title: "Dynamite", SourceID: "vDyn"},
		Source:     "KPOP Workout Hits",
		Confidence: 0.8,
		Stage:      models.StagePlaylistSearch,
	}
}

func exhaustedResult() *models.ResolutionResult {
	return &models.ResolutionResult{Text: "sorry", Stage: models.StageExhausted}
}

func TestRecommendationRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		rec := newRecord(t, models.GenreKPop, "gym", playlistResult())

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recommendation: %v", err)
		}

		if rec.ID() == "" {
			t.Error("ID should be set after creation")
		}
		if rec.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", rec.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		rec := newRecord(t, models.GenreKPop, "gym", playlistResult())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recommendation: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get recommendation: %v", err)
		}

		if got.SongKey() != "BTS-Dynamite" {
			t.Errorf("expected song key BTS-Dynamite, got %s", got.SongKey())
		}
		if got.VideoID() != "vDyn" || got.SourceLabel() != "KPOP Workout Hits" {
			t.Errorf("unexpected video/source %s %s", got.VideoID(), got.SourceLabel())
		}
		if got.Stage() != models.StagePlaylistSearch || got.Confidence() != 0.8 {
			t.Errorf("unexpected stage/confidence %s %v", got.Stage(), got.Confidence())
		}
		if got.Genre() != models.GenreKPop || got.Prompt() != "gym" {
			t.Errorf("unexpected genre/prompt %s %s", got.Genre(), got.Prompt())
		}
	})

	t.Run("Get without song", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		rec := newRecord(t, models.GenrePop, "rain", exhaustedResult())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recommendation: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get recommendation: %v", err)
		}
		if got.SongKey() != "" || got.Artist() != "" {
			t.Errorf("expected empty song, got %q", got.SongKey())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		rec := newRecord(t, models.GenreKPop, "gym", playlistResult())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recommendation: %v", err)
		}

		rec.SetSourceLabel("Renamed")
		if err := repo.Update(rec); err != nil {
			t.Fatalf("failed to update recommendation: %v", err)
		}

		got, _ := repo.Get(rec.ID())
		if got.SourceLabel() != "Renamed" {
			t.Errorf("expected updated label, got %s", got.SourceLabel())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		rec := newRecord(t, models.GenreKPop, "gym", playlistResult())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create recommendation: %v", err)
		}

		if err := repo.Delete(rec.ID()); err != nil {
			t.Fatalf("failed to delete recommendation: %v", err)
		}

		if _, err := repo.Get(rec.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		for _, rec := range []*models.RecommendationRecord{
			newRecord(t, models.GenreKPop, "one", playlistResult()),
			newRecord(t, models.GenrePop, "two", exhaustedResult()),
			newRecord(t, models.GenreKPop, "three", exhaustedResult()),
		} {
			if err := repo.Create(rec); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 records, got %d", len(all))
		}
		if all[0].Prompt() != "three" {
			t.Errorf("expected newest first, got %s", all[0].Prompt())
		}

		kpop, _ := repo.List(map[string]any{"genre": models.GenreKPop})
		if len(kpop) != 2 {
			t.Errorf("expected 2 kpop records, got %d", len(kpop))
		}

		exhausted, _ := repo.List(map[string]any{"stage": "exhausted"})
		if len(exhausted) != 2 {
			t.Errorf("expected 2 exhausted records, got %d", len(exhausted))
		}

		recent, _ := repo.Recent("", 1)
		if len(recent) != 1 || recent[0].Prompt() != "three" {
			t.Errorf("expected most recent record, got %v", recent)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		for _, res := range []*models.ResolutionResult{playlistResult(), exhaustedResult(), exhaustedResult()} {
			if err := repo.Create(newRecord(t, models.GenreKPop, "p", res)); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats[models.StagePlaylistSearch] != 1 || stats[models.StageExhausted] != 2 {
			t.Errorf("unexpected stats %v", stats)
		}
	})
}

func TestRecommendationRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRecommendationRepository(db)
			rec := newRecord(t, models.GenreKPop, "gym", &models.ResolutionResult{Stage: models.StageFunctionCall, Confidence: 2})

			if err := repo.Create(rec); err == nil {
				t.Fatal("expected validation error for out of range confidence")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := NewRecommendationRepository(db).Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			rec := newRecord(t, models.GenreKPop, "gym", playlistResult())
			rec.SetID("nonexistent-id")

			if err := NewRecommendationRepository(db).Update(rec); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewRecommendationRepository(db)
			rec := newRecord(t, models.GenreKPop, "gym", playlistResult())
			if err := repo.Create(rec); err != nil {
				t.Fatalf("failed to create recommendation: %v", err)
			}
			if err := repo.Delete(rec.ID()); err != nil {
				t.Fatalf("first delete failed: %v", err)
			}

			if err := repo.Delete(rec.ID()); err == nil {
				t.Fatal("expected error deleting twice")
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		if _, err := NewRecommendationRepository(db).List(nil); err == nil {
			t.Fatal("expected error on closed database")
		}
	})
}

func TestHistoryRecorder(t *testing.T) {
	t.Run("records a turn", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRecommendationRepository(db)
		recorder := NewHistoryRecorder(repo)

		req, _ := models.NewRecommendationRequest("gym", models.GenreKPop, nil, 3, []string{"IU-Blueming"})
		if err := recorder.Record(context.Background(), req, playlistResult()); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		records, _ := repo.List(nil)
		if len(records) != 1 || records[0].SongKey() != "BTS-Dynamite" {
			t.Errorf("expected one recorded turn, got %v", records)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req, _ := models.NewRecommendationRequest("gym", models.GenreKPop, nil, 3, nil)
		if err := NewHistoryRecorder(NewRecommendationRepository(db)).Record(ctx, req, playlistResult()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "recommendations")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for missing sequence table")
	}
}

func TestCreateRollsBackSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRecommendationRepository(db)
	req, _ := models.NewRecommendationRequest("gym", models.GenreKPop, nil, 3, nil)

	bad := playlistResult()
	bad.Confidence = 1.5
	if err := repo.Create(models.NewRecommendationRecord(req, bad)); err == nil {
		t.Fatal("expected validation error")
	}

	rec := models.NewRecommendationRecord(req, playlistResult())
	if err := repo.Create(rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.Sequence() != 1 {
		t.Errorf("expected the failed insert to release sequence 1, got %d", rec.Sequence())
	}
}
