package classify

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/shared"
)

func TestNormalize(t *testing.T) {
	tc := []struct {
		name    string
		label   string
		channel string
		want    Normalized
	}{
		{
			name:  "artist dash title with marketing tokens",
			label: "BTS - Dynamite (Official MV)",
			want:  Normalized{Title: "Dynamite", Artist: "BTS"},
		},
		{
			name:  "bracketed annotations",
			label: "[MV] IU - Blueming [4K] (Lyrics)",
			want:  Normalized{Title: "Blueming", Artist: "IU"},
		},
		{
			name:  "en dash",
			label: "YOASOBI – Idol Official Music Video",
			want:  Normalized{Title: "Idol", Artist: "YOASOBI"},
		},
		{
			name:  "spaced dash wins over hyphenated artist",
			label: "Jay-Z - Empire State Of Mind",
			want:  Normalized{Title: "Empire State Of Mind", Artist: "Jay-Z"},
		},
		{
			name:    "quoted korean label style",
			label:   "NewJeans (뉴진스) 'Ditto' Official MV",
			channel: "HYBE LABELS",
			want:    Normalized{Title: "Ditto", Artist: "NewJeans"},
		},
		{
			name:    "falls back to channel",
			label:   "Shape of You [Official Video]",
			channel: "Ed Sheeran VEVO",
			want:    Normalized{Title: "Shape of You", Artist: "Ed Sheeran"},
		},
		{
			name:    "topic channel",
			label:   "Gymnopédie No.1",
			channel: "Erik Satie - Topic",
			want:    Normalized{Title: "Gymnopédie No.1", Artist: "Erik Satie"},
		},
		{
			name:    "unknown artist sentinel",
			label:   "Untitled",
			channel: "Official Music Channel",
			want:    Normalized{Title: "Untitled", Artist: UnknownArtist},
		},
		{
			name:  "label made only of marketing tokens",
			label: "Official MV",
			want:  Normalized{Title: "Official MV", Artist: UnknownArtist},
		},
		{
			name:  "whitespace-only label keeps the raw label",
			label: "   ",
			want:  Normalized{Title: "   ", Artist: UnknownArtist},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.label, tt.channel)
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %+v, want %+v", tt.label, tt.channel, got, tt.want)
			}
		})
	}

	t.Run("is pure", func(t *testing.T) {
		label := "BLACKPINK - 'Pink Venom' M/V"
		first := Normalize(label, "BLACKPINK")
		for range 5 {
			if got := Normalize(label, "BLACKPINK"); got != first {
				t.Fatalf("expected stable output %+v, got %+v", first, got)
			}
		}
	})

	t.Run("ExtractTitle and ExtractArtist", func(t *testing.T) {
		if got := ExtractTitle("TWICE - Fancy MV"); got != "Fancy" {
			t.Errorf("expected Fancy, got %q", got)
		}
		if got := ExtractArtist("Fancy", "TWICE Official"); got != "TWICE" {
			t.Errorf("expected TWICE, got %q", got)
		}
	})
}

func TestIsOfficialMusicVideo(t *testing.T) {
	tc := []struct {
		label string
		want  bool
	}{
		{"BTS (방탄소년단) 'Dynamite' Official MV", true},
		{"Taylor Swift - Anti-Hero (Official Music Video)", true},
		{"Shape of You [Official Audio]", true},
		{"IU - Blueming", false},
		{"BTS Dynamite cover by Jane", false},
		{"BLACKPINK - Pink Venom LIVE (Official)", false},
		{"Dynamite (Official Remix)", false},
		{"Official MV compilation 2023", false},
		{"K-pop Official MV 1 hour mix", false},
		{"lofi hip hop radio official", false},
		{"NewJeans 'Super Shy' Official MV Teaser", false},
		{"Ditto Lyric Video (Official)", false},
		{"NMIXX 'O.O' M/V", true},
	}

	for _, tt := range tc {
		t.Run(tt.label, func(t *testing.T) {
			if got := IsOfficialMusicVideo(tt.label); got != tt.want {
				t.Errorf("IsOfficialMusicVideo(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestMatchesGenre(t *testing.T) {
	tc := []struct {
		name    string
		label   string
		channel string
		genre   models.Genre
		want    bool
	}{
		{"kpop artist", "BTS 'Dynamite' Official MV", "HYBE LABELS", models.GenreKPop, true},
		{"kpop via channel", "Ditto", "NewJeans", models.GenreKPop, true},
		{"kpop denies anime", "BTS anime opening", "", models.GenreKPop, false},
		{"kpop rejects ambiguous", "Beautiful Song", "Some Channel", models.GenreKPop, false},
		{"short token needs word boundary", "Alive", "Live Nation", models.GenreKPop, false},
		{"short token matches word", "IVE 'LOVE DIVE' MV", "starshipTV", models.GenreKPop, true},
		{"pop artist", "Anti-Hero", "Taylor Swift", models.GenrePop, true},
		{"pop denies kpop", "k-pop pop hits", "", models.GenrePop, false},
		{"classical composer", "Chopin Nocturne Op.9 No.2", "", models.GenreClassical, true},
		{"jpop denies anime", "YOASOBI anime theme", "", models.GenreJPop, false},
		{"anime ost", "Demon Slayer Opening", "", models.GenreAnimeOST, true},
		{"cpop", "周杰倫 Jay Chou 告白氣球", "", models.GenreCPop, true},
		{"other matches anything", "whatever", "", models.GenreOther, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesGenre(tt.label, tt.channel, tt.genre); got != tt.want {
				t.Errorf("MatchesGenre(%q, %q, %s) = %v, want %v", tt.label, tt.channel, tt.genre, got, tt.want)
			}
		})
	}
}

func TestMatchesPlaylistGenre(t *testing.T) {
	t.Run("kpop rejects lofi playlists", func(t *testing.T) {
		if MatchesPlaylistGenre("K-pop lofi beats to study", "", models.GenreKPop) {
			t.Error("expected lofi playlist to be rejected")
		}
	})

	t.Run("kpop accepts korean playlists", func(t *testing.T) {
		if !MatchesPlaylistGenre("Workout Mix", "best korean idol songs", models.GenreKPop) {
			t.Error("expected korean playlist to be accepted")
		}
	})

	t.Run("pop rejects jpop", func(t *testing.T) {
		if MatchesPlaylistGenre("jpop and pop", "", models.GenrePop) {
			t.Error("expected cross-genre playlist to be rejected")
		}
	})

	t.Run("other matches", func(t *testing.T) {
		if !MatchesPlaylistGenre("", "", models.GenreOther) {
			t.Error("expected other to match")
		}
	})
}

func TestExtractContext(t *testing.T) {
	t.Run("korean workout prompt", func(t *testing.T) {
		ctx := ExtractContext("운동할 때 에너지 넘치게")
		if !slices.Equal(ctx.Activities, []string{"workout"}) {
			t.Errorf("expected workout activity, got %v", ctx.Activities)
		}
	})

	t.Run("multiple categories", func(t *testing.T) {
		ctx := ExtractContext("Sad songs for a night drive")
		if !slices.Equal(ctx.Activities, []string{"drive", "sleep"}) {
			t.Errorf("expected drive and sleep, got %v", ctx.Activities)
		}
		if !slices.Equal(ctx.Moods, []string{"sad"}) {
			t.Errorf("expected sad mood, got %v", ctx.Moods)
		}
	})

	t.Run("no match yields empty, non-nil slices", func(t *testing.T) {
		ctx := ExtractContext("hmm")
		if !ctx.Empty() || ctx.Activities == nil || ctx.Moods == nil {
			t.Errorf("expected empty context, got %+v", ctx)
		}
	})
}

func TestHintsAndConfidence(t *testing.T) {
	c := New(nil)
	ctx := c.ExtractContext("happy gym session")
	hints := c.Hints(ctx)

	if len(hints.Playlists) != 6 || len(hints.Tags) != 8 {
		t.Errorf("expected workout and happy hints, got %+v", hints)
	}

	tc := []struct {
		name     string
		ctx      models.ExtractedContext
		hints    Hints
		excluded int
		want     float64
	}{
		{"base", models.ExtractedContext{}, Hints{}, 0, 0.5},
		{"activity and mood", ctx, Hints{}, 0, 0.9},
		{"capped", ctx, hints, 2, 1.0},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContextConfidence(tt.ctx, tt.hints, tt.excluded); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEmotionPhrase(t *testing.T) {
	c := New(nil)
	if got := c.EmotionPhrase("너무 슬프고 우울해"); got != "sad melancholy emotional ballad crying" {
		t.Errorf("expected first emotion in table order, got %q", got)
	}
	if got := c.EmotionPhrase("no stems here"); got != "" {
		t.Errorf("expected empty phrase, got %q", got)
	}
}

func TestRules(t *testing.T) {
	t.Run("DefaultRules covers every genre", func(t *testing.T) {
		rules := DefaultRules()
		for _, g := range models.Genres() {
			if _, ok := rules.Genres[g]; !ok {
				t.Errorf("missing rules for %s", g)
			}
		}
		if rules.Genre(models.GenreKPop).MinViews != 100000 {
			t.Errorf("expected kpop threshold 100000, got %d", rules.Genre(models.GenreKPop).MinViews)
		}
		if rules.Genre(models.GenrePop).MinViews != 500000 {
			t.Errorf("expected pop threshold 500000, got %d", rules.Genre(models.GenrePop).MinViews)
		}
	})

	t.Run("LoadRules overrides one genre", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.toml")
		data := `[genres.kpop]
keywords = "kpop"
min_views = 1
allow = ["seventeen"]
playlist_allow = ["kpop"]
`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("failed to write rules: %v", err)
		}

		rules, err := LoadRules(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rules.Genre(models.GenreKPop).MinViews != 1 {
			t.Errorf("expected override threshold 1, got %d", rules.Genre(models.GenreKPop).MinViews)
		}
		if rules.Genre(models.GenrePop).MinViews != 500000 {
			t.Error("expected other genres to keep defaults")
		}

		c := New(rules)
		if c.MatchesGenre("BTS Dynamite", "", models.GenreKPop) {
			t.Error("expected override allow list to be used")
		}
	})

	t.Run("ParseRules rejects incomplete tables", func(t *testing.T) {
		if _, err := ParseRules([]byte(`[genres.kpop]
keywords = "kpop"
`)); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadRules with empty path", func(t *testing.T) {
		rules, err := LoadRules("")
		if err != nil || rules == nil {
			t.Fatalf("expected default rules, got %v", err)
		}
	})
}
