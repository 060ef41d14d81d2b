// Package repositories provides persistence layer implementations for persisted model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation.
package repositories

import (
	"database/sql"
	"fmt"
)

// sequencer is satisfied by both [sql.DB] and [sql.Tx].
type sequencer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the counter kept in the table's "_sequence" companion.
//
// Sequence numbers give history rows a human-readable order (recommendation #42). Passing a
// [sql.Tx] ties the increment to the insert that consumes it.
func NextSequence(q sequencer, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
