package database

import (
	"context"
	"sync"
	"time"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// MemoryStore is an in-memory Store used in tests and as a fallback when
// no database is configured. Records still expire; the sweeper deletes
// them the same way it does in PostgreSQL.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	audits map[int64]*domain.AuditRecord
	pages  map[int64][]*domain.PageEvidence
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		audits: make(map[int64]*domain.AuditRecord),
		pages:  make(map[int64][]*domain.PageEvidence),
	}
}

var _ Store = (*MemoryStore)(nil)

// Create inserts a new audit record.
func (s *MemoryStore) Create(_ context.Context, audit *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit.ID = s.nextID
	s.nextID++
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}
	s.audits[audit.ID] = audit.Clone()

	return nil
}

// GetByID retrieves an audit record, or ErrNotFound.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	audit, ok := s.audits[id]
	if !ok {
		return nil, ErrNotFound
	}

	return audit.Clone(), nil
}

// Update replaces the stored record's mutable fields.
func (s *MemoryStore) Update(_ context.Context, audit *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.audits[audit.ID]; !ok {
		return ErrNotFound
	}
	s.audits[audit.ID] = audit.Clone()

	return nil
}

// DeleteExpired removes expired audits and their page evidence.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, audit := range s.audits {
		if audit.Expired(now) {
			delete(s.audits, id)
			delete(s.pages, id)
			count++
		}
	}

	return count, nil
}

// ListCompletedBetween returns completed audits inside the window.
func (s *MemoryStore) ListCompletedBetween(
	_ context.Context,
	start, end time.Time,
) ([]*domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	audits := []*domain.AuditRecord{}
	for _, audit := range s.audits {
		if audit.Status != domain.StatusCompleted || audit.CompletedAt == nil {
			continue
		}
		if audit.CompletedAt.Before(start) || audit.CompletedAt.After(end) {
			continue
		}
		audits = append(audits, audit.Clone())
	}

	return audits, nil
}

// StorePage inserts one page evidence row.
func (s *MemoryStore) StorePage(_ context.Context, page *domain.PageEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *page
	s.pages[page.AuditID] = append(s.pages[page.AuditID], &stored)

	return nil
}

// GetByAudit returns all evidence rows for an audit in insertion order.
func (s *MemoryStore) GetByAudit(_ context.Context, auditID int64) ([]*domain.PageEvidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.pages[auditID]
	pages := make([]*domain.PageEvidence, 0, len(stored))
	for _, page := range stored {
		copied := *page
		pages = append(pages, &copied)
	}

	return pages, nil
}
