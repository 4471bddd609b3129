package api

import (
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/orchestrator"
	"github.com/rivalworks/rivalaudit/internal/reporting"
)

// Dependencies bundles everything the handlers need.
type Dependencies struct {
	Store        database.Store
	Manager      *lifecycle.Manager
	Orchestrator *orchestrator.Orchestrator
	Aggregator   *reporting.Aggregator
}

// StartAuditRequest is the body of POST /audits.
type StartAuditRequest struct {
	URL    string  `json:"url" binding:"required"`
	UserID *string `json:"user_id"`
}

// OverrideItemRequest is the body of the item override endpoint.
type OverrideItemRequest struct {
	Status domain.ItemStatus `json:"status" binding:"required"`
	Note   string            `json:"note"`
}

// AuditResponse is an audit record plus per-page issue summaries for
// completed audits.
type AuditResponse struct {
	*domain.AuditRecord
	Pages []domain.PageIssueSummary `json:"pages,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
