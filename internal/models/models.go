package models

import "time"

// Model is a persisted, soft-deletable entity with a human-readable sequence number.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	DeletedAt() *time.Time // nil while live
	Validate() error
}

// Repository is the CRUD surface every SQLite repository exposes.
//
// Get and List never return soft-deleted rows. Delete only stamps deleted_at.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
