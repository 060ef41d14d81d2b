// Package ui implements the interactive chat client using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [GenreView] : Pick the genre every recommendation must match
//  2. [ChatView] : Send prompts and read recommendations in a scrolling transcript
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Each turn runs the resolver in a goroutine; stage updates flow through a channel to drive the spinner status line,
// and the closed channel delivers the result.
//
// The model owns the session: it adds every recommended song to the exclusion set sent with the next turn, and
// switching genre (or starting a new session) clears both the transcript and the set. A turn still in flight when
// the session resets is cancelled and its result dropped.
//
// Recommendation text carries a MUSIC_LINKS token; bot messages are rendered with the token replaced by link lines.
// A malformed token is shown as raw text.
package ui
