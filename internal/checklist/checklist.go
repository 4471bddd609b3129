// Package checklist defines the audit checklist: every question, its fixed
// section and importance, the page types it applies to, and the pure
// evaluator that scores it against page evidence.
//
// Each question is statically bound to exactly one section and one
// importance at definition time; nothing is inferred from names at
// display time.
package checklist

import (
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// Evaluation is the outcome of running one evaluator against one page.
type Evaluation struct {
	Satisfied bool
	// Measurement is the observed value the decision was based on,
	// e.g. "word_count=412".
	Measurement string
	// Note explains a not-satisfied outcome, including evidence gaps.
	Note string
}

// EvaluatorFunc inspects a page evidence snapshot and decides whether the
// question is satisfied. Evaluators are total: they never panic, and they
// treat absent or malformed evidence as not satisfied with a note.
type EvaluatorFunc func(ev *domain.PageEvidence) Evaluation

// Question is one checklist entry.
type Question struct {
	// ID is the stable question identifier.
	ID          string
	Name        string
	Description string
	Section     domain.Section
	Importance  domain.Importance
	// AppliesTo lists the page types the question is evaluated against.
	// Empty means every fetched page.
	AppliesTo []domain.PageType
	Evaluate  EvaluatorFunc
}

// Applies reports whether the question is evaluated for the given page type.
func (q *Question) Applies(t domain.PageType) bool {
	if len(q.AppliesTo) == 0 {
		return true
	}
	for _, pt := range q.AppliesTo {
		if pt == t {
			return true
		}
	}
	return false
}

// ForSection returns the questions of one section in definition order.
func ForSection(section domain.Section) []Question {
	var out []Question
	for _, q := range questions {
		if q.Section == section {
			out = append(out, q)
		}
	}
	return out
}

// All returns every question in definition order.
func All() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// ByID returns the question with the given ID.
func ByID(id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// servicePages lists the page types that count as service-flavored content.
var servicePages = []domain.PageType{domain.PageTypeService}

// questions is the fixed checklist. Order within a section is display order.
var questions = []Question{
	// On-page
	{
		ID:          "onpage.title_present",
		Name:        "Page has a title tag",
		Description: "Every page should carry a non-empty <title> element.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceHigh,
		Evaluate:    evalTitlePresent,
	},
	{
		ID:          "onpage.title_length",
		Name:        "Title length is within range",
		Description: "Titles between 30 and 60 characters render fully in search results.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceMedium,
		Evaluate:    evalTitleLength,
	},
	{
		ID:          "onpage.meta_description",
		Name:        "Meta description present and sized",
		Description: "A meta description between 70 and 160 characters should be present.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceMedium,
		Evaluate:    evalMetaDescription,
	},
	{
		ID:          "onpage.single_h1",
		Name:        "Exactly one H1 heading",
		Description: "Pages should carry exactly one H1 element.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceMedium,
		Evaluate:    evalSingleH1,
	},
	{
		ID:          "onpage.word_count",
		Name:        "Sufficient body content",
		Description: "Pages should contain at least 600 words of body text.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceHigh,
		Evaluate:    evalWordCount,
	},
	{
		ID:          "onpage.paragraph_length",
		Name:        "Readable paragraph length",
		Description: "Average paragraph length should not exceed 100 words.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceLow,
		Evaluate:    evalParagraphLength,
	},
	{
		ID:          "onpage.image_alt",
		Name:        "Images carry alt text",
		Description: "Every image should carry a descriptive alt attribute.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceMedium,
		Evaluate:    evalImageAlt,
	},
	{
		ID:          "onpage.canonical",
		Name:        "Canonical URL declared",
		Description: "Pages should declare a canonical link element.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceLow,
		Evaluate:    evalCanonical,
	},
	{
		ID:          "onpage.https",
		Name:        "Page served over HTTPS",
		Description: "All pages should be served over a secure connection.",
		Section:     domain.SectionOnPage,
		Importance:  domain.ImportanceHigh,
		Evaluate:    evalHTTPS,
	},

	// Structure & navigation
	{
		ID:          "structure.nav_present",
		Name:        "Site navigation present",
		Description: "Pages should expose a navigation element for crawlers and users.",
		Section:     domain.SectionStructure,
		Importance:  domain.ImportanceHigh,
		Evaluate:    evalNavPresent,
	},
	{
		ID:          "structure.internal_links",
		Name:        "Pages link internally",
		Description: "Every page should link to at least three other pages on the site.",
		Section:     domain.SectionStructure,
		Importance:  domain.ImportanceMedium,
		Evaluate:    evalInternalLinks,
	},
	{
		ID:          "structure.homepage_links",
		Name:        "Homepage links into site sections",
		Description: "The homepage should link to at least five internal pages.",
		Section:     domain.SectionStructure,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   []domain.PageType{domain.PageTypeHomepage},
		Evaluate:    evalHomepageLinks,
	},

	// Contact page
	{
		ID:          "contact.phone",
		Name:        "Contact page lists a phone number",
		Description: "The contact page should present a reachable phone number.",
		Section:     domain.SectionContact,
		Importance:  domain.ImportanceHigh,
		AppliesTo:   []domain.PageType{domain.PageTypeContact},
		Evaluate:    evalContactPhone,
	},
	{
		ID:          "contact.address",
		Name:        "Contact page lists a street address",
		Description: "The contact page should present a physical address.",
		Section:     domain.SectionContact,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   []domain.PageType{domain.PageTypeContact},
		Evaluate:    evalContactAddress,
	},
	{
		ID:          "contact.form",
		Name:        "Contact page offers a form",
		Description: "The contact page should offer a submission form.",
		Section:     domain.SectionContact,
		Importance:  domain.ImportanceLow,
		AppliesTo:   []domain.PageType{domain.PageTypeContact},
		Evaluate:    evalContactForm,
	},

	// Service pages
	{
		ID:          "service.content_depth",
		Name:        "Service pages have sufficient depth",
		Description: "Service pages should contain at least 600 words describing the offering.",
		Section:     domain.SectionService,
		Importance:  domain.ImportanceHigh,
		AppliesTo:   servicePages,
		Evaluate:    evalWordCount,
	},
	{
		ID:          "service.title_present",
		Name:        "Service pages carry descriptive titles",
		Description: "Each service page should carry a non-empty title tag.",
		Section:     domain.SectionService,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   servicePages,
		Evaluate:    evalTitlePresent,
	},
	{
		ID:          "service.contact_path",
		Name:        "Service pages link toward contact",
		Description: "Service pages should present a phone number or link toward contact.",
		Section:     domain.SectionService,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   servicePages,
		Evaluate:    evalConversionPath,
	},

	// Location pages
	{
		ID:          "location.address",
		Name:        "Location pages list an address",
		Description: "Each location page should present its physical address.",
		Section:     domain.SectionLocation,
		Importance:  domain.ImportanceHigh,
		AppliesTo:   []domain.PageType{domain.PageTypeLocation},
		Evaluate:    evalContactAddress,
	},
	{
		ID:          "location.content_depth",
		Name:        "Location pages have local content",
		Description: "Location pages should contain at least 600 words of locally relevant content.",
		Section:     domain.SectionLocation,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   []domain.PageType{domain.PageTypeLocation},
		Evaluate:    evalWordCount,
	},

	// Service-area pages
	{
		ID:          "servicearea.content_depth",
		Name:        "Service-area pages have sufficient depth",
		Description: "Service-area pages should contain at least 600 words.",
		Section:     domain.SectionServiceArea,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   []domain.PageType{domain.PageTypeServiceArea},
		Evaluate:    evalWordCount,
	},
	{
		ID:          "servicearea.conversion_path",
		Name:        "Service-area pages offer a conversion path",
		Description: "Service-area pages should present a phone number or contact form.",
		Section:     domain.SectionServiceArea,
		Importance:  domain.ImportanceMedium,
		AppliesTo:   []domain.PageType{domain.PageTypeServiceArea},
		Evaluate:    evalConversionPath,
	},
}
