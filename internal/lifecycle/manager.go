package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

var (
	// ErrAuditExpired is returned when a record is past its TTL. Expired
	// records behave as if already deleted, even before the sweep runs.
	ErrAuditExpired = errors.New("audit expired")
	// ErrInvalidState is returned when a requested transition is not
	// allowed from the record's current status.
	ErrInvalidState = errors.New("invalid audit state")
)

// Clock supplies the current time. Injected so tests can control expiry.
type Clock func() time.Time

// Manager enforces the audit state machine over a store.
type Manager struct {
	store database.AuditStore
	log   logger.Interface
	now   Clock
	ttl   time.Duration
}

// NewManager creates a lifecycle manager. A nil clock uses time.Now and a
// non-positive ttl uses the default.
func NewManager(store database.AuditStore, log logger.Interface, now Clock, ttl time.Duration) *Manager {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}
	return &Manager{store: store, log: log, now: now, ttl: ttl}
}

// TTL returns the configured record lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create inserts a new pending record with a full TTL.
func (m *Manager) Create(ctx context.Context, targetURL string, userID *string) (*domain.AuditRecord, error) {
	now := m.now()
	audit := &domain.AuditRecord{
		URL:       targetURL,
		UserID:    userID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to create audit record: %w", err)
	}

	m.log.Info("audit created", "audit_id", audit.ID, "url", targetURL)
	return audit, nil
}

// Get retrieves a live record. An expired record is reported as not found:
// expiry is indistinguishable from deletion to callers.
func (m *Manager) Get(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	audit, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Expired(m.now()) {
		return nil, ErrAuditExpired
	}
	return audit, nil
}

// MarkProcessing transitions a record into processing. Pending records and
// resumable completed records are the only valid sources.
func (m *Manager) MarkProcessing(ctx context.Context, audit *domain.AuditRecord) error {
	if err := m.transition(audit, domain.StatusProcessing); err != nil {
		return err
	}
	if err := m.store.Update(ctx, audit); err != nil {
		return fmt.Errorf("failed to mark audit processing: %w", err)
	}
	return nil
}

// Complete transitions a record to completed, attaching the full result
// payload in the same write. Callers must pass results, summary, and page
// accounting together so a reader never observes a half-finished audit.
func (m *Manager) Complete(
	ctx context.Context,
	audit *domain.AuditRecord,
	results domain.Results,
	summary *domain.Summary,
	pagesAnalyzed int,
	reachedMaxPages bool,
	frontier []string,
) error {
	if err := m.transition(audit, domain.StatusCompleted); err != nil {
		return err
	}

	now := m.now()
	audit.Results = results
	audit.Summary = summary
	audit.PagesAnalyzed = pagesAnalyzed
	audit.ReachedMaxPages = reachedMaxPages
	audit.Frontier = frontier
	audit.ErrorMessage = nil
	audit.CompletedAt = &now

	if err := m.store.Update(ctx, audit); err != nil {
		return fmt.Errorf("failed to complete audit: %w", err)
	}

	m.log.Info("audit completed",
		"audit_id", audit.ID,
		"pages_analyzed", pagesAnalyzed,
		"reached_max_pages", reachedMaxPages,
	)
	return nil
}

// Fail transitions a record to failed with an error message. No partial
// results are retained.
func (m *Manager) Fail(ctx context.Context, audit *domain.AuditRecord, reason string) error {
	if err := m.transition(audit, domain.StatusFailed); err != nil {
		return err
	}

	audit.ErrorMessage = &reason
	audit.Results = nil
	audit.Summary = nil

	if err := m.store.Update(ctx, audit); err != nil {
		return fmt.Errorf("failed to mark audit failed: %w", err)
	}

	m.log.Warn("audit failed", "audit_id", audit.ID, "reason", reason)
	return nil
}

// Extend refreshes the record's TTL to a full window from now. Expired
// records cannot be revived, and failed records stay on their original
// deletion schedule.
func (m *Manager) Extend(ctx context.Context, audit *domain.AuditRecord) error {
	now := m.now()
	if audit.Expired(now) {
		return ErrAuditExpired
	}
	if IsTerminalStatus(audit.Status) {
		return fmt.Errorf("%w: cannot extend a %s audit", ErrInvalidState, audit.Status)
	}

	audit.ExpiresAt = now.Add(m.ttl)
	if err := m.store.Update(ctx, audit); err != nil {
		return fmt.Errorf("failed to extend audit ttl: %w", err)
	}

	m.log.Debug("audit ttl extended", "audit_id", audit.ID, "expires_at", audit.ExpiresAt)
	return nil
}

// RemainingTTL returns how long the record has until expiry. Zero or
// negative means the record is already expired.
func (m *Manager) RemainingTTL(audit *domain.AuditRecord) time.Duration {
	return audit.ExpiresAt.Sub(m.now())
}

// Cleanup deletes every expired record along with its page evidence.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	count, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired audits: %w", err)
	}
	if count > 0 {
		m.log.Info("expired audits removed", "count", count)
	}
	return count, nil
}

// transition validates the status change and, for entry into processing,
// that the record is not expired.
func (m *Manager) transition(audit *domain.AuditRecord, to domain.Status) error {
	if audit.Expired(m.now()) {
		return ErrAuditExpired
	}
	if err := ValidateTransition(audit.Status, to); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, err)
	}
	audit.Status = to
	return nil
}
