package classifier

import (
	"github.com/rivalworks/rivalaudit/internal/checklist"
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// stabilityQuestions are deficiencies touching security or duplicate-content
// control, which destabilize how the site is crawled and indexed.
var stabilityQuestions = map[string]bool{
	"onpage.https":     true,
	"onpage.canonical": true,
}

// businessQuestions are deficiencies that block a conversion or compliance
// path for the business.
var businessQuestions = map[string]bool{
	"contact.phone":               true,
	"contact.address":             true,
	"contact.form":                true,
	"service.contact_path":        true,
	"servicearea.conversion_path": true,
	"location.address":            true,
}

// DeriveContext maps a deficient question and the page evidence it failed
// on to the four weighted criteria. The mapping is a fixed table over the
// question's static attributes, keeping classification deterministic.
func DeriveContext(q checklist.Question, ev *domain.PageEvidence) CriteriaContext {
	ctx := CriteriaContext{
		StabilityImpact: stabilityQuestions[q.ID],
		BusinessImpact:  businessQuestions[q.ID],
	}

	// High-importance questions degrade what visitors and search result
	// renderings show.
	if q.Importance == domain.ImportanceHigh {
		ctx.UserImpactSeverity = true
	}

	// Structural and markup deficiencies compound as the site grows.
	switch q.Section {
	case domain.SectionStructure:
		ctx.TechnicalDebtCriticality = true
	case domain.SectionOnPage:
		if q.ID == "onpage.single_h1" || q.ID == "onpage.canonical" || q.ID == "onpage.title_present" {
			ctx.TechnicalDebtCriticality = true
		}
	}

	// A deficiency observed on the homepage is always user-facing.
	if ev != nil && ev.Type == domain.PageTypeHomepage {
		ctx.UserImpactSeverity = true
	}

	return ctx
}
