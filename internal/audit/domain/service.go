package domain

import (
	"context"

	"gorm.io/gorm"
)

// Entry is the caller-facing shape of a single audit record.
type Entry struct {
	ActorType  ActorType
	ActorID    *string
	Action     string
	TargetType string
	TargetID   *string
	Metadata   map[string]any
}

type Service interface {
	// Record writes an entry using the given handle, which may be a transaction.
	Record(ctx context.Context, db *gorm.DB, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
