// Package models defines the domain entities for the promptdj recommendation service.
//
// The package contains two categories of types:
//
// 1. Resolution values: immutable inputs and outputs of one recommendation turn
//   - [RecommendationRequest] : prompt, [Genre], recent turns and an exclusion snapshot
//   - [CandidateSong] : a song surfaced by a search oracle, identified by its [CandidateSong.Key]
//   - [PlaylistInfo] : a playlist returned by the playlist oracle
//   - [ResolutionResult] : the formatted recommendation and its provenance
//
// 2. Persistent Entities: database-backed history rows
//   - [RecommendationRecord] : one resolved turn, kept for analytics only
//
// [SessionExclusionSet] is owned by callers (the chat UI, HTTP clients); the resolver only ever
// sees a [KeySet] snapshot of it.
//
// All persistent entities implement the Model interface and the Repository[T] interface defines standard
// CRUD operations for database access.
package models
