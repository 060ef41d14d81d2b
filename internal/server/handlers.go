package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/recommend"
	"github.com/desertthunder/promptdj/internal/shared"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultRecentTurns = 3

	maxBodyBytes = 64 << 10
	maxExcluded  = 500
)

// Recommender is the resolver surface the HTTP layer needs.
type Recommender interface {
	Resolve(ctx context.Context, req models.RecommendationRequest, progress chan<- recommend.StageUpdate) *models.ResolutionResult
	Classifier() *classify.Classifier
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {success:false, error, details?}. details is dropped when empty.
func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// RecommendRequest is the JSON body of POST /api/recommend.
type RecommendRequest struct {
	Prompt           string   `json:"prompt" validate:"required"`
	Genre            string   `json:"genre" validate:"required"`
	PreviousMessages []string `json:"previousMessages"`
	ExcludedSongs    []string `json:"excludedSongs" validate:"max=500,dive,required"`
}

// Analysis explains how a recommendation was produced.
//
// Confidence scores the prompt context; ResolutionConfidence scores the resolved song.
type Analysis struct {
	ExtractedContext     models.ExtractedContext `json:"extractedContext"`
	SearchResult         *models.CandidateSong   `json:"searchResult,omitempty"`
	Confidence           float64                 `json:"confidence"`
	ResolutionConfidence float64                 `json:"resolutionConfidence"`
	PlaylistSource       string                  `json:"playlistSource,omitempty"`
	Stage                models.Stage            `json:"stage"`
	Degraded             bool                    `json:"degraded"`
	Attempts             int                     `json:"attempts"`
	Links                *models.MusicLinks      `json:"links,omitempty"`
}

// RecommendResponse is the success body of POST /api/recommend.
type RecommendResponse struct {
	Success        bool      `json:"success"`
	Recommendation string    `json:"recommendation"`
	Analysis       *Analysis `json:"analysis"`
}

// RecommendHandler serves POST /api/recommend.
//
// Degraded results (plain generation, the apology) are still 200 with success true; clients read
// analysis.stage and analysis.degraded to tell them apart.
type RecommendHandler struct {
	resolver    Recommender
	validate    *validator.Validate
	recentTurns int
	dev         bool
	logger      *log.Logger
}

// RecommendHandlerOpts configures a [RecommendHandler]. Resolver is required.
type RecommendHandlerOpts struct {
	Resolver    Recommender
	RecentTurns int  // previous messages kept, default 3
	Dev         bool // include error details in 500 responses
	Logger      *log.Logger
}

// NewRecommendHandler creates a [RecommendHandler].
func NewRecommendHandler(opts RecommendHandlerOpts) (*RecommendHandler, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("%w: resolver", shared.ErrMissingArgument)
	}
	h := &RecommendHandler{
		resolver:    opts.Resolver,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		recentTurns: opts.RecentTurns,
		dev:         opts.Dev,
		logger:      opts.Logger,
	}
	if h.recentTurns <= 0 {
		h.recentTurns = DefaultRecentTurns
	}
	if h.logger == nil {
		h.logger = shared.NewLogger(nil)
	}
	return h, nil
}

func (h *RecommendHandler) Routes() []string { return []string{"/api/recommend"} }

func (h *RecommendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var body RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", h.details(err))
		return
	}

	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), "")
		return
	}

	genre, err := models.ParseGenre(body.Genre)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	req, err := models.NewRecommendationRequest(body.Prompt, genre, body.PreviousMessages, h.recentTurns, body.ExcludedSongs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Prompt and genre are required", "")
		return
	}

	logger := h.logger.With("request_id", RequestIDFrom(r.Context()), "genre", genre)
	logger.Debug("recommendation requested", "excluded", len(req.Excluded), "turns", len(req.RecentTurns))

	started := time.Now()
	res := h.resolver.Resolve(r.Context(), req, nil)
	if res == nil {
		logger.Error("resolver returned no result")
		writeError(w, http.StatusInternalServerError, shared.ErrRecommendationEmpty.Error(), h.details(shared.ErrRecommendationEmpty))
		return
	}

	c := h.resolver.Classifier()
	extracted := c.ExtractContext(req.Prompt)
	if extracted.Activities == nil {
		extracted.Activities = []string{}
	}
	if extracted.Moods == nil {
		extracted.Moods = []string{}
	}

	logger.Info("recommendation served", "stage", res.Stage, "source", res.Source,
		"elapsed", time.Since(started).Round(time.Millisecond))

	writeJSON(w, http.StatusOK, RecommendResponse{
		Success:        true,
		Recommendation: res.Text,
		Analysis: &Analysis{
			ExtractedContext:     extracted,
			SearchResult:         res.Chosen,
			Confidence:           classify.ContextConfidence(extracted, c.Hints(extracted), len(req.Excluded)),
			ResolutionConfidence: res.Confidence,
			PlaylistSource:       res.Source,
			Stage:                res.Stage,
			Degraded:             res.Degraded(),
			Attempts:             res.Attempts,
			Links:                res.Links,
		},
	})
}

func (h *RecommendHandler) details(err error) string {
	if !h.dev || err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}

// validationMessage maps validator failures to client-facing text.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.ErrInvalidInput.Error()
	}
	for _, fe := range verrs {
		switch field := fe.StructField(); {
		case field == "Prompt", field == "Genre":
			return "Prompt and genre are required"
		case strings.HasPrefix(field, "ExcludedSongs"):
			return fmt.Sprintf("excludedSongs must hold at most %d non-empty keys", maxExcluded)
		}
	}
	return fmt.Sprintf("%s: %s", shared.ErrInvalidInput, verrs[0].Field())
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	started time.Time
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{started: time.Now(), version: version}
}

func (h *HealthHandler) Routes() []string { return []string{"/health"} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// GenreInfo is one entry of GET /api/genres.
type GenreInfo struct {
	ID       models.Genre `json:"id"`
	Label    string       `json:"label"`
	Examples string       `json:"examples,omitempty"`
}

// GenresHandler serves GET /api/genres.
type GenresHandler struct {
	classifier *classify.Classifier
}

func NewGenresHandler(c *classify.Classifier) *GenresHandler {
	if c == nil {
		c = classify.New(nil)
	}
	return &GenresHandler{classifier: c}
}

func (h *GenresHandler) Routes() []string { return []string{"/api/genres"} }

func (h *GenresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	genres := models.Genres()
	out := make([]GenreInfo, 0, len(genres))
	for _, g := range genres {
		out = append(out, GenreInfo{ID: g, Label: g.Label(), Examples: h.classifier.GenreExamples(g)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "genres": out})
}
