package models

// Stage names the resolver state that produced a result.
type Stage string

const (
	StagePlaylistSearch  Stage = "playlist_search"
	StageFunctionCall    Stage = "function_call"
	StagePlainGeneration Stage = "plain_generation"
	StageExhausted       Stage = "exhausted"
)

// Degraded reports whether the stage gave up on the non-repetition guarantee.
func (s Stage) Degraded() bool {
	return s == StagePlainGeneration || s == StageExhausted
}

// Link is one action button rendered by the presentation layer.
type Link struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// MusicLinks is the payload of the MUSIC_LINKS token. Spotify and Preview encode as null when absent.
type MusicLinks struct {
	YouTube Link  `json:"youtube"`
	Spotify *Link `json:"spotify"`
	Preview *Link `json:"preview"`
}

// ExtractedContext holds the activity and mood tags found in a prompt.
type ExtractedContext struct {
	Activities []string `json:"activities"`
	Moods      []string `json:"moods"`
}

// Empty reports whether nothing matched.
func (c ExtractedContext) Empty() bool {
	return len(c.Activities) == 0 && len(c.Moods) == 0
}

// ResolutionResult is the only value that leaves the resolver.
type ResolutionResult struct {
	Text       string         `json:"recommendation"`
	Chosen     *CandidateSong `json:"searchResult,omitempty"`
	Source     string         `json:"playlistSource,omitempty"`
	Confidence float64        `json:"confidence"`
	Stage      Stage          `json:"stage"`
	Links      *MusicLinks    `json:"links,omitempty"`
	Attempts   int            `json:"attempts"`
}

// Degraded reports whether the result came from a fallback that does not honor exclusions.
func (r *ResolutionResult) Degraded() bool {
	return r.Stage.Degraded()
}
