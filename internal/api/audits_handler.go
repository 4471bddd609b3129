package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
	"github.com/rivalworks/rivalaudit/internal/orchestrator"
)

// auditsHandler serves the audit lifecycle endpoints.
type auditsHandler struct {
	deps Dependencies
	log  logger.Interface
}

func newAuditsHandler(deps Dependencies, log logger.Interface) *auditsHandler {
	return &auditsHandler{deps: deps, log: log}
}

// startAudit accepts a target URL and launches an audit asynchronously.
// The response is the pending record; callers poll getAudit for results.
func (h *auditsHandler) startAudit(c *gin.Context) {
	var req StartAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "url must be absolute http or https"})
		return
	}

	audit, err := h.deps.Orchestrator.Start(c.Request.Context(), req.URL, req.UserID)
	if err != nil {
		h.log.Error("failed to start audit", "url", req.URL, "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to start audit"})
		return
	}

	c.JSON(http.StatusAccepted, AuditResponse{AuditRecord: audit})
}

// getAudit returns the current state of an audit. Expired records are
// indistinguishable from deleted ones.
func (h *auditsHandler) getAudit(c *gin.Context) {
	id, ok := h.auditID(c)
	if !ok {
		return
	}

	audit, err := h.deps.Manager.Get(c.Request.Context(), id)
	if err != nil {
		h.renderLookupError(c, err)
		return
	}

	resp := AuditResponse{AuditRecord: audit}
	if audit.Status == domain.StatusCompleted {
		pages, pagesErr := h.deps.Store.GetByAudit(c.Request.Context(), id)
		if pagesErr != nil {
			h.log.Error("failed to load page evidence", "audit_id", id, "error", pagesErr.Error())
		} else {
			resp.Pages = orchestrator.SummarizePages(pages)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// continueAudit resumes a completed audit that stopped at the page ceiling.
// An audit that was not truncated has nothing to resume; the current record
// is returned unchanged.
func (h *auditsHandler) continueAudit(c *gin.Context) {
	id, ok := h.auditID(c)
	if !ok {
		return
	}

	audit, err := h.deps.Orchestrator.Continue(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "audit is already running"})
		case errors.Is(err, orchestrator.ErrNotResumable):
			current, getErr := h.deps.Manager.Get(c.Request.Context(), id)
			if getErr != nil {
				h.renderLookupError(c, getErr)
				return
			}
			c.JSON(http.StatusOK, AuditResponse{AuditRecord: current})
		default:
			h.renderLookupError(c, err)
		}
		return
	}

	c.JSON(http.StatusAccepted, AuditResponse{AuditRecord: audit})
}

// overrideItem lets an operator set an item's status by hand. Overridden
// items are excluded from classifier-decision metrics and survive
// continuation re-evaluation.
func (h *auditsHandler) overrideItem(c *gin.Context) {
	id, ok := h.auditID(c)
	if !ok {
		return
	}
	itemName := c.Param("name")

	var req OverrideItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if !domain.ValidItemStatus(req.Status) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown item status"})
		return
	}

	// The write happens under the record's in-flight slot so a continuation
	// accepted meanwhile cannot assemble from the pre-override snapshot.
	err := h.deps.Orchestrator.Exclusive(id, func() error {
		audit, getErr := h.deps.Manager.Get(c.Request.Context(), id)
		if getErr != nil {
			h.renderLookupError(c, getErr)
			return nil
		}
		if audit.Status != domain.StatusCompleted {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "audit is not completed"})
			return nil
		}

		item := findItem(audit.Results, itemName)
		if item == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "item not found"})
			return nil
		}

		item.Status = req.Status
		item.ManualOverride = true
		if req.Note != "" {
			item.Notes = req.Note
		}
		audit.Summary = domain.SummarizeResults(audit.Results)

		if updateErr := h.deps.Store.Update(c.Request.Context(), audit); updateErr != nil {
			h.log.Error("failed to persist item override", "audit_id", id, "error", updateErr.Error())
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save override"})
			return nil
		}

		c.JSON(http.StatusOK, AuditResponse{AuditRecord: audit})
		return nil
	})
	if errors.Is(err, orchestrator.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "audit is already running"})
	}
}

// auditID parses the :id route parameter.
func (h *auditsHandler) auditID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid audit id"})
		return 0, false
	}
	return id, true
}

// renderLookupError maps store and lifecycle errors onto status codes.
// Expired records answer 404 like deleted ones: expiry is indistinguishable
// from deletion to callers, whether or not the sweep has run yet.
func (h *auditsHandler) renderLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "audit not found"})
	case errors.Is(err, lifecycle.ErrAuditExpired):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "audit not found"})
	default:
		h.log.Error("audit lookup failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// findItem locates an item by question name across all sections.
func findItem(results domain.Results, name string) *domain.AuditItem {
	for _, items := range results {
		for i := range items {
			if items[i].Name == name {
				return &items[i]
			}
		}
	}
	return nil
}
