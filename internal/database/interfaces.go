// Package database provides persistence for audit records and page
// evidence, backed by PostgreSQL with an in-memory fallback.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// ErrNotFound is returned when an audit record does not exist.
var ErrNotFound = errors.New("audit not found")

// AuditStore persists audit records.
type AuditStore interface {
	// Create inserts a new audit record and fills its ID and CreatedAt.
	Create(ctx context.Context, audit *domain.AuditRecord) error
	// GetByID retrieves an audit record, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.AuditRecord, error)
	// Update writes the record's mutable fields in a single statement so
	// status and payload change together.
	Update(ctx context.Context, audit *domain.AuditRecord) error
	// DeleteExpired removes every record with expires_at before now,
	// regardless of status, along with its page evidence. Returns the
	// number of records deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// ListCompletedBetween returns completed records whose completion
	// time falls inside [start, end].
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*domain.AuditRecord, error)
}

// EvidenceStore persists per-page evidence snapshots.
type EvidenceStore interface {
	// StorePage inserts one page evidence row.
	StorePage(ctx context.Context, page *domain.PageEvidence) error
	// GetByAudit returns all evidence rows for an audit in insertion order.
	GetByAudit(ctx context.Context, auditID int64) ([]*domain.PageEvidence, error)
}

// Store combines both stores; the Postgres and in-memory implementations
// satisfy it.
type Store interface {
	AuditStore
	EvidenceStore
}
