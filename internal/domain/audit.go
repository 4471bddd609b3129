// Package domain provides domain models used across the audit engine.
package domain

import (
	"time"
)

// Status represents the lifecycle status of an audit record.
type Status string

const (
	// StatusPending means the audit has been created but crawling has not started.
	StatusPending Status = "pending"
	// StatusProcessing means the crawl and evaluation are in progress.
	StatusProcessing Status = "processing"
	// StatusCompleted means the audit finished and carries results and a summary.
	StatusCompleted Status = "completed"
	// StatusFailed means the audit aborted and carries an error message.
	StatusFailed Status = "failed"
)

// DefaultTTL is the time window after which an audit record becomes
// eligible for deletion regardless of its status.
const DefaultTTL = 30 * time.Minute

// AuditRecord represents one crawl-and-classify run against a target URL.
// Results and Summary are present if and only if Status is completed;
// ErrorMessage is present if and only if Status is failed.
type AuditRecord struct {
	ID            int64      `json:"id" db:"id"`
	URL           string     `json:"url" db:"url"`
	UserID        *string    `json:"user_id,omitempty" db:"user_id"`
	Status        Status     `json:"status" db:"status"`
	ErrorMessage  *string    `json:"error_message,omitempty" db:"error_message"`
	Results       Results    `json:"results,omitempty" db:"results"`
	Summary       *Summary   `json:"summary,omitempty" db:"summary"`
	PagesAnalyzed int        `json:"pages_analyzed" db:"pages_analyzed"`
	// ReachedMaxPages is true when the page-count ceiling, not the time
	// budget, truncated the crawl. Controls whether continuation is offered.
	ReachedMaxPages bool `json:"reached_max_pages" db:"reached_max_pages"`
	// Frontier holds discovered-but-unfetched links for continuation.
	Frontier    StringList `json:"-" db:"frontier"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the record is past its expiration at the given time.
func (a *AuditRecord) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// Resumable reports whether a continuation crawl can add pages.
func (a *AuditRecord) Resumable() bool {
	return a.Status == StatusCompleted && a.ReachedMaxPages
}

// Clone returns a deep-enough copy of the record so that callers receive
// immutable snapshots rather than shared mutable state.
func (a *AuditRecord) Clone() *AuditRecord {
	dup := *a
	if a.Results != nil {
		dup.Results = make(Results, len(a.Results))
		for section, items := range a.Results {
			copied := make([]AuditItem, len(items))
			copy(copied, items)
			dup.Results[section] = copied
		}
	}
	if a.Summary != nil {
		s := *a.Summary
		dup.Summary = &s
	}
	if a.Frontier != nil {
		dup.Frontier = append(StringList{}, a.Frontier...)
	}
	return &dup
}

// Summary holds roll-up counts of item statuses for a completed audit.
type Summary struct {
	PriorityOFICount int `json:"priority_ofi_count"`
	OFICount         int `json:"ofi_count"`
	OKCount          int `json:"ok_count"`
	NACount          int `json:"na_count"`
	Total            int `json:"total"`
}

// Add counts one item status into the summary.
func (s *Summary) Add(status ItemStatus) {
	switch status {
	case ItemStatusPriorityOFI:
		s.PriorityOFICount++
	case ItemStatusOFI:
		s.OFICount++
	case ItemStatusOK:
		s.OKCount++
	case ItemStatusNA:
		s.NACount++
	}
	s.Total++
}

// SummarizeResults computes a summary over every item in the result tree.
func SummarizeResults(results Results) *Summary {
	summary := &Summary{}
	for _, items := range results {
		for i := range items {
			summary.Add(items[i].Status)
		}
	}
	return summary
}
