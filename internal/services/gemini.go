// Gemini generateContent implementation of [Oracle]
//
// Request and response shapes based on https://ai.google.dev/api/generate-content
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/promptdj/internal/shared"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"

	RoleUser  = "user"
	RoleModel = "model"

	// SearchRealMusicFunction names the function the model calls to pick a concrete song.
	SearchRealMusicFunction = "search_real_music"
)

// MusicContexts enumerates the context values accepted by [SearchRealMusicDeclaration].
var MusicContexts = []string{"study", "workout", "chill", "sad", "happy", "party"}

// Part is one piece of content.
type Part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// Content is a single turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// FunctionCall is a structured call emitted by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Arg returns a string argument, trimmed; missing or non-string values yield "".
func (f FunctionCall) Arg(name string) string {
	v, ok := f.Args[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Schema is the OpenAPI subset used by function declarations.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

// FunctionDeclaration describes a callable function.
type FunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// GenerationConfig tunes sampling.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Sampling presets.
var (
	// FunctionCallConfig keeps function arguments close to deterministic.
	FunctionCallConfig = GenerationConfig{Temperature: 0.1, TopK: 1, TopP: 0.1, MaxOutputTokens: 512}
	// PlainGenerationConfig allows some variety in free text.
	PlainGenerationConfig = GenerationConfig{Temperature: 0.3, TopK: 20, TopP: 0.8, MaxOutputTokens: 500}
)

// GenerateRequest is the input to [Oracle.Generate].
type GenerateRequest struct {
	SystemInstruction string
	Contents          []Content
	Functions         []FunctionDeclaration
	Config            GenerationConfig
}

// GenerateResponse is the first candidate of a generateContent reply.
type GenerateResponse struct {
	Text         string
	FunctionCall *FunctionCall
	FinishReason string
}

// Empty reports whether the model produced neither text nor a call.
func (r *GenerateResponse) Empty() bool {
	return r == nil || (r.FunctionCall == nil && strings.TrimSpace(r.Text) == "")
}

type geminiTool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type geminiRequest struct {
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	Contents          []Content        `json:"contents"`
	Tools             []geminiTool     `json:"tools,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// GeminiService implements [Oracle] with the Gemini REST API.
type GeminiService struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiService creates a Gemini client.
func NewGeminiService(baseURL, apiKey, model string, client *http.Client) *GeminiService {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
	}
}

// Name returns the service name.
func (g *GeminiService) Name() string {
	return "Gemini"
}

// Model returns the configured model name.
func (g *GeminiService) Model() string {
	return g.model
}

// Generate sends one generateContent call. Text parts are concatenated; the first function call wins.
func (g *GeminiService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", shared.ErrMissingCredentials)
	}
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("%w: contents", shared.ErrMissingArgument)
	}

	body := geminiRequest{Contents: req.Contents, GenerationConfig: req.Config}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemInstruction}}}
	}
	if len(req.Functions) > 0 {
		body.Tools = []geminiTool{{FunctionDeclarations: req.Functions}}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	opts := requestOpts{client: g.httpClient, headers: map[string]string{"x-goog-api-key": g.apiKey}}

	var resp geminiResponse
	if err := doRequest(ctx, opts, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", shared.ErrEmptyResult)
	}

	cand := resp.Candidates[0]
	out := &GenerateResponse{FinishReason: cand.FinishReason}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part.FunctionCall != nil && out.FunctionCall == nil {
			out.FunctionCall = part.FunctionCall
		}
		text.WriteString(part.Text)
	}
	out.Text = strings.TrimSpace(text.String())
	return out, nil
}

// UserContent wraps text as a single user turn.
func UserContent(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// SearchRealMusicDeclaration returns the declaration the model uses to name one existing song.
func SearchRealMusicDeclaration() FunctionDeclaration {
	return FunctionDeclaration{
		Name:        SearchRealMusicFunction,
		Description: "Recommend one real, existing song that fits the user's request and the selected genre.",
		Parameters: Schema{
			Type: "object",
			Properties: map[string]Schema{
				"artist":  {Type: "string", Description: "Exact name of the performing artist."},
				"song":    {Type: "string", Description: "Exact title of the song."},
				"context": {Type: "string", Description: "Listening situation.", Enum: MusicContexts},
				"reason":  {Type: "string", Description: "One short sentence on why the song fits."},
			},
			Required: []string{"artist", "song", "context", "reason"},
		},
	}
}
