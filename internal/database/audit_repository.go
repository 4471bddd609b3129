package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// AuditRepository handles database operations for audit records.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ AuditStore = (*AuditRepository)(nil)

const auditColumns = `
	id, url, user_id, status, error_message, results, summary,
	pages_analyzed, reached_max_pages, frontier, created_at, completed_at, expires_at
`

// Create inserts a new audit record.
func (r *AuditRepository) Create(ctx context.Context, audit *domain.AuditRecord) error {
	query := `
		INSERT INTO audits (url, user_id, status, pages_analyzed, reached_max_pages, frontier, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		audit.URL,
		audit.UserID,
		audit.Status,
		audit.PagesAnalyzed,
		audit.ReachedMaxPages,
		audit.Frontier,
		audit.ExpiresAt,
	).Scan(&audit.ID, &audit.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	return nil
}

// GetByID retrieves an audit record by its ID.
func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`

	audit, err := scanAudit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	return audit, nil
}

// Update writes all mutable fields in a single statement so that status
// and payload are always observed together.
func (r *AuditRepository) Update(ctx context.Context, audit *domain.AuditRecord) error {
	query := `
		UPDATE audits
		SET status = $1, error_message = $2, results = $3, summary = $4,
		    pages_analyzed = $5, reached_max_pages = $6, frontier = $7,
		    completed_at = $8, expires_at = $9
		WHERE id = $10
	`

	var summaryValue any
	if audit.Summary != nil {
		summaryValue = *audit.Summary
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		audit.Status,
		audit.ErrorMessage,
		audit.Results,
		summaryValue,
		audit.PagesAnalyzed,
		audit.ReachedMaxPages,
		audit.Frontier,
		audit.CompletedAt,
		audit.ExpiresAt,
		audit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteExpired removes every expired record. Page evidence rows cascade
// via the audit_pages foreign key.
func (r *AuditRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audits WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired audits: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

// ListCompletedBetween returns completed audits inside the window.
func (r *AuditRepository) ListCompletedBetween(
	ctx context.Context,
	start, end time.Time,
) ([]*domain.AuditRecord, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audits
		WHERE status = $1 AND completed_at >= $2 AND completed_at <= $3
		ORDER BY completed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.StatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed audits: %w", err)
	}
	defer rows.Close()

	audits := []*domain.AuditRecord{}
	for rows.Next() {
		audit, scanErr := scanAudit(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", scanErr)
		}
		audits = append(audits, audit)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audits: %w", rowsErr)
	}

	return audits, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanAudit.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAudit scans one audit row, decoding the JSONB payload columns.
func scanAudit(row rowScanner) (*domain.AuditRecord, error) {
	var (
		audit      domain.AuditRecord
		summary    domain.Summary
		hasSummary sql.NullString
	)

	// summary is scanned twice: once to test for NULL, once decoded.
	err := row.Scan(
		&audit.ID,
		&audit.URL,
		&audit.UserID,
		&audit.Status,
		&audit.ErrorMessage,
		&audit.Results,
		&hasSummary,
		&audit.PagesAnalyzed,
		&audit.ReachedMaxPages,
		&audit.Frontier,
		&audit.CreatedAt,
		&audit.CompletedAt,
		&audit.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if hasSummary.Valid {
		if decodeErr := summary.Scan(hasSummary.String); decodeErr != nil {
			return nil, fmt.Errorf("decode summary: %w", decodeErr)
		}
		audit.Summary = &summary
	}

	return &audit, nil
}
