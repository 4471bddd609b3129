package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rivalworks/rivalaudit/internal/logger"
	"github.com/rivalworks/rivalaudit/internal/reporting"
)

// reportsHandler serves classifier-behavior reports.
type reportsHandler struct {
	aggregator *reporting.Aggregator
	log        logger.Interface
}

func newReportsHandler(aggregator *reporting.Aggregator, log logger.Interface) *reportsHandler {
	return &reportsHandler{aggregator: aggregator, log: log}
}

// weeklyReport aggregates the last seven days of completed audits.
// Optional "start" and "end" query parameters (RFC 3339) move the window.
func (h *reportsHandler) weeklyReport(c *gin.Context) {
	end := time.Now()
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end must be RFC 3339"})
			return
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -7)
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must be RFC 3339"})
			return
		}
		if !parsed.Before(end) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must precede end"})
			return
		}
		start = parsed
	}

	report, err := h.aggregator.Report(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("failed to aggregate weekly report", "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}
