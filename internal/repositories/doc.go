// Package repositories implements SQLite persistence for recommendation history.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Records are soft deleted via deleted_at timestamps and excluded from queries by default.
//
// Key Implementations:
//   - [RecommendationRepository] : resolved turns with genre/stage queries and per-stage counts
//   - [HistoryRecorder] : adapts the repository to the resolver's recorder hook
//
// History is analytics only. It is never read back into a session's exclusion set.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
