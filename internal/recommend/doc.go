// Package recommend resolves one user turn into one song recommendation.
//
// # Stages
//
// [Resolver.Resolve] walks a fixed fallback chain:
//
//  1. PlaylistSearch : genre-filtered playlists, one random fresh candidate per playlist,
//     resolved to its most viewed official video
//  2. FunctionCall : the model names a song through search_real_music; an excluded answer is
//     retried with a stronger exclusion prompt, up to [DefaultMaxRetries] times
//     - retries exhausted: one more PlaylistSearch pass, then Exhausted
//     - oracle error or empty answer: PlainGeneration
//  3. PlainGeneration : one free-text call; exclusions are not enforced
//  4. Exhausted : the fixed [formatter.Apology] text
//
// # Exclusions
//
// The caller passes a snapshot of the session's exclusion set in the request and adds the
// returned song key afterwards. The resolver never mutates it.
//
// # Progress Reporting
//
// [StageUpdate] values are sent without blocking; a full or nil channel drops them.
//
// # Enrichment
//
// The optional Spotify [services.TrackSearcher] adds streaming and preview links. The optional
// [Recorder] stores finished turns for history.
package recommend
