package recommend

import (
	"fmt"

	"github.com/desertthunder/promptdj/internal/models"
)

// StageUpdate represents a progress event during one resolution.
//
// Used to drive the CLI spinner and the chat status line.
type StageUpdate struct {
	Phase   Phase  // Resolver phase
	Step    int    // Current step number within phase, 1-based
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase enumerates resolver progress phases.
type Phase int

const (
	FindPlaylists Phase = iota
	ScanPlaylist
	FunctionCall
	RetryFunctionCall
	PlainGeneration
	Enrich
	Done
)

func (p Phase) String() string {
	switch p {
	case FindPlaylists:
		return "find_playlists"
	case ScanPlaylist:
		return "scan_playlist"
	case FunctionCall:
		return "function_call"
	case RetryFunctionCall:
		return "retry_function_call"
	case PlainGeneration:
		return "plain_generation"
	case Enrich:
		return "enrich"
	case Done:
		return "done"
	default:
		return ""
	}
}

func findPlaylistsUpdate(query string) StageUpdate {
	return StageUpdate{
		Phase:   FindPlaylists,
		Step:    1,
		Total:   1,
		Message: "Searching playlists...",
		Data:    query,
	}
}

func scanPlaylistUpdate(step, total int, pl models.PlaylistInfo) StageUpdate {
	return StageUpdate{
		Phase:   ScanPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking playlist: %s", step, total, pl.Title),
		Data:    pl,
	}
}

func functionCallUpdate(attempt, maxRetries int) StageUpdate {
	if attempt == 0 {
		return StageUpdate{
			Phase:   FunctionCall,
			Step:    1,
			Total:   maxRetries + 1,
			Message: "Asking the model for a song...",
		}
	}
	return StageUpdate{
		Phase:   RetryFunctionCall,
		Step:    attempt + 1,
		Total:   maxRetries + 1,
		Message: fmt.Sprintf("Already recommended, looking for something new (retry %d/%d)...", attempt, maxRetries),
	}
}

func plainGenerationUpdate() StageUpdate {
	return StageUpdate{
		Phase:   PlainGeneration,
		Step:    1,
		Total:   1,
		Message: "Falling back to a plain suggestion...",
	}
}

func enrichUpdate(song models.CandidateSong) StageUpdate {
	return StageUpdate{
		Phase:   Enrich,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up %s - %s on Spotify...", song.Artist, song.Title),
	}
}

func doneUpdate(res *models.ResolutionResult) StageUpdate {
	msg := fmt.Sprintf("Resolved via %s", res.Stage)
	if res.Chosen != nil {
		msg = fmt.Sprintf("✓ %s - %s (%s)", res.Chosen.Artist, res.Chosen.Title, res.Stage)
	}
	return StageUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    res,
	}
}
