// Package reporting aggregates classifier decisions across completed
// audits so threshold drift shows up as a number instead of a hunch.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

// Health labels derived from the Priority-OFI rate.
const (
	HealthHealthy        = "healthy"
	HealthMonitor        = "monitor"
	HealthReviewCriteria = "review criteria"
)

// Rate bands for the health label.
const (
	reviewRateThreshold  = 0.30
	monitorRateThreshold = 0.15
)

// WeeklyReport summarizes classifier behavior over a date window.
type WeeklyReport struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	AuditsCompleted int `json:"audits_completed"`
	// Decisions counts classifier-made OFI and Priority OFI labels.
	// Operator-overridden items are excluded.
	Decisions        int `json:"decisions"`
	PriorityOFICount int `json:"priority_ofi_count"`
	OFICount         int `json:"ofi_count"`
	// Downgrades counts items that moved from Priority OFI to OFI within
	// the same audit record.
	Downgrades int `json:"downgrades"`

	// PriorityOFIRate is PriorityOFICount over Decisions; zero when there
	// were no decisions.
	PriorityOFIRate float64 `json:"priority_ofi_rate"`
	Health          string  `json:"health"`
}

// Aggregator computes reports over the audit store.
type Aggregator struct {
	store database.AuditStore
	log   logger.Interface
}

// NewAggregator creates an aggregator.
func NewAggregator(store database.AuditStore, log logger.Interface) *Aggregator {
	return &Aggregator{store: store, log: log}
}

// WeeklyReport aggregates the seven days ending at now.
func (a *Aggregator) WeeklyReport(ctx context.Context, now time.Time) (*WeeklyReport, error) {
	return a.Report(ctx, now.AddDate(0, 0, -7), now)
}

// Report aggregates classifier decisions over completed audits in the
// window.
func (a *Aggregator) Report(ctx context.Context, start, end time.Time) (*WeeklyReport, error) {
	audits, err := a.store.ListCompletedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed audits: %w", err)
	}

	report := &WeeklyReport{Start: start, End: end, AuditsCompleted: len(audits)}
	for _, audit := range audits {
		a.countAudit(report, audit)
	}

	if report.Decisions > 0 {
		report.PriorityOFIRate = float64(report.PriorityOFICount) / float64(report.Decisions)
	}
	report.Health = healthLabel(report.PriorityOFIRate)

	a.log.Debug("report aggregated",
		"audits", report.AuditsCompleted,
		"decisions", report.Decisions,
		"rate", report.PriorityOFIRate,
	)
	return report, nil
}

// countAudit folds one audit's items into the report totals.
func (a *Aggregator) countAudit(report *WeeklyReport, audit *domain.AuditRecord) {
	for _, items := range audit.Results {
		for i := range items {
			item := &items[i]
			if item.Downgraded() {
				report.Downgrades++
			}
			if item.ManualOverride {
				continue
			}
			switch item.Status {
			case domain.ItemStatusPriorityOFI:
				report.PriorityOFICount++
				report.Decisions++
			case domain.ItemStatusOFI:
				report.OFICount++
				report.Decisions++
			}
		}
	}
}

// healthLabel maps the Priority-OFI rate onto a threshold health band.
func healthLabel(rate float64) string {
	switch {
	case rate > reviewRateThreshold:
		return HealthReviewCriteria
	case rate > monitorRateThreshold:
		return HealthMonitor
	default:
		return HealthHealthy
	}
}
