package models

import (
	"time"
)

// Audit carries creation, update and soft-delete timestamps.
// Embed it by value into entities that need them.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // nil while the row is active
}

// Active reports whether the owning row is not soft-deleted
func (a Audit) Active() bool {
	return a.DeletedAt == nil
}

// MarkDeleted sets the soft-delete timestamp once.
// Repeated calls keep the original deletion time.
func (a *Audit) MarkDeleted(now time.Time) {
	if a.DeletedAt == nil {
		a.DeletedAt = &now
	}
}
