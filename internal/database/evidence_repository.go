package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// EvidenceRepository handles database operations for page evidence.
type EvidenceRepository struct {
	db *sqlx.DB
}

// NewEvidenceRepository creates a new evidence repository.
func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

var _ EvidenceStore = (*EvidenceRepository)(nil)

// StorePage inserts one page evidence row.
func (r *EvidenceRepository) StorePage(ctx context.Context, page *domain.PageEvidence) error {
	query := `
		INSERT INTO audit_pages (
			id, audit_id, url, page_type, fetched, skip_reason, status_code,
			title, meta_description, canonical_url, https,
			h1_count, h2_count, word_count, paragraph_count, avg_paragraph_words,
			image_count, images_missing_alt,
			has_nav, has_phone, has_address, has_contact_form,
			internal_links, external_links, fetched_at
		) VALUES (
			:id, :audit_id, :url, :page_type, :fetched, :skip_reason, :status_code,
			:title, :meta_description, :canonical_url, :https,
			:h1_count, :h2_count, :word_count, :paragraph_count, :avg_paragraph_words,
			:image_count, :images_missing_alt,
			:has_nav, :has_phone, :has_address, :has_contact_form,
			:internal_links, :external_links, :fetched_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, page); err != nil {
		return fmt.Errorf("failed to store page evidence: %w", err)
	}

	return nil
}

// GetByAudit returns all evidence rows for an audit in insertion order.
func (r *EvidenceRepository) GetByAudit(ctx context.Context, auditID int64) ([]*domain.PageEvidence, error) {
	query := `
		SELECT id, audit_id, url, page_type, fetched, skip_reason, status_code,
		       title, meta_description, canonical_url, https,
		       h1_count, h2_count, word_count, paragraph_count, avg_paragraph_words,
		       image_count, images_missing_alt,
		       has_nav, has_phone, has_address, has_contact_form,
		       internal_links, external_links, fetched_at
		FROM audit_pages
		WHERE audit_id = $1
		ORDER BY fetched_at ASC
	`

	pages := []*domain.PageEvidence{}
	if err := r.db.SelectContext(ctx, &pages, query, auditID); err != nil {
		return nil, fmt.Errorf("failed to get page evidence: %w", err)
	}

	return pages, nil
}
