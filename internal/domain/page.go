package domain

import (
	"time"

	"github.com/google/uuid"
)

// PageType classifies a crawled URL by its likely role on the site.
type PageType string

const (
	PageTypeHomepage    PageType = "homepage"
	PageTypeContact     PageType = "contact"
	PageTypeService     PageType = "service"
	PageTypeLocation    PageType = "location"
	PageTypeServiceArea PageType = "serviceArea"
	PageTypeGeneric     PageType = "generic"
)

// PageEvidence is the per-page evidence snapshot the evaluators run
// against. A page that failed to fetch has Fetched false and a SkipReason;
// evaluators treat missing evidence as not satisfied, never as an error.
type PageEvidence struct {
	ID      string   `json:"id" db:"id"`
	AuditID int64    `json:"audit_id" db:"audit_id"`
	URL     string   `json:"url" db:"url"`
	Type    PageType `json:"type" db:"page_type"`

	Fetched    bool   `json:"fetched" db:"fetched"`
	SkipReason string `json:"skip_reason,omitempty" db:"skip_reason"`
	StatusCode int    `json:"status_code" db:"status_code"`

	Title           string `json:"title" db:"title"`
	MetaDescription string `json:"meta_description" db:"meta_description"`
	CanonicalURL    string `json:"canonical_url" db:"canonical_url"`
	HTTPS           bool   `json:"https" db:"https"`

	H1Count        int `json:"h1_count" db:"h1_count"`
	H2Count        int `json:"h2_count" db:"h2_count"`
	WordCount      int `json:"word_count" db:"word_count"`
	ParagraphCount int `json:"paragraph_count" db:"paragraph_count"`
	// AvgParagraphWords is the mean word count across <p> elements,
	// rounded down. Zero when the page has no paragraphs.
	AvgParagraphWords int `json:"avg_paragraph_words" db:"avg_paragraph_words"`

	ImageCount       int `json:"image_count" db:"image_count"`
	ImagesMissingAlt int `json:"images_missing_alt" db:"images_missing_alt"`

	HasNav         bool `json:"has_nav" db:"has_nav"`
	HasPhone       bool `json:"has_phone" db:"has_phone"`
	HasAddress     bool `json:"has_address" db:"has_address"`
	HasContactForm bool `json:"has_contact_form" db:"has_contact_form"`

	InternalLinks StringList `json:"internal_links" db:"internal_links"`
	ExternalLinks StringList `json:"external_links" db:"external_links"`

	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}

// NewPageEvidence creates an evidence record with a fresh identity.
func NewPageEvidence(auditID int64, pageURL string, pageType PageType) *PageEvidence {
	return &PageEvidence{
		ID:        uuid.New().String(),
		AuditID:   auditID,
		URL:       pageURL,
		Type:      pageType,
		FetchedAt: time.Now(),
	}
}

// PageIssue is one non-OK finding attributed to a page, capped for display.
type PageIssue struct {
	Name       string     `json:"name"`
	Section    Section    `json:"section"`
	Importance Importance `json:"importance"`
	Status     ItemStatus `json:"status"`
}

// MaxTopIssues caps the issue list attached to a page summary.
const MaxTopIssues = 5

// PageIssueSummary aggregates the findings for one crawled page with at
// least one non-OK item.
type PageIssueSummary struct {
	URL              string      `json:"url"`
	Type             PageType    `json:"type"`
	PriorityOFICount int         `json:"priority_ofi_count"`
	OFICount         int         `json:"ofi_count"`
	TopIssues        []PageIssue `json:"top_issues"`
}

// AddIssue counts an issue and appends it to the capped top-issue list.
func (p *PageIssueSummary) AddIssue(issue PageIssue) {
	switch issue.Status {
	case ItemStatusPriorityOFI:
		p.PriorityOFICount++
	case ItemStatusOFI:
		p.OFICount++
	default:
		return
	}
	if len(p.TopIssues) < MaxTopIssues {
		p.TopIssues = append(p.TopIssues, issue)
	}
}
