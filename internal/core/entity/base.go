// Package entity provides the fields shared by stored records.
package entity

import (
	"context"
	"time"

	"invoicer/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity and bookkeeping columns of a record.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity(now time.Time) BaseEntity {
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}
}

// Touch records a modification.
func (b *BaseEntity) Touch(now time.Time) {
	t := now.UTC().Truncate(time.Microsecond)
	b.UpdatedAt = &t
}
