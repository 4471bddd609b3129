// Package classifier implements the OFI escalation decision: a deficient
// checklist item becomes a Priority OFI when at least two of the four
// weighted risk criteria are satisfied, otherwise it stays an ordinary OFI.
package classifier

import (
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// EscalationThreshold is the number of satisfied criteria required to
// escalate an item to Priority OFI. Fixed policy, not configurable per
// call, so classifications stay auditable and reproducible.
const EscalationThreshold = 2

// CriteriaContext supplies the boolean outcome of each weighted criterion
// category for one deficient item.
type CriteriaContext struct {
	// StabilityImpact is true when the deficiency affects system or
	// crawl stability signals (security, duplicate-content control).
	StabilityImpact bool
	// UserImpactSeverity is true when the deficiency degrades what a
	// visitor sees or how a result renders.
	UserImpactSeverity bool
	// BusinessImpact is true when the deficiency blocks a conversion or
	// compliance path.
	BusinessImpact bool
	// TechnicalDebtCriticality is true when the deficiency compounds
	// over time if left unaddressed.
	TechnicalDebtCriticality bool
}

// satisfied returns the criterion outcome for the given category.
func (c CriteriaContext) satisfied(category domain.CriterionCategory) bool {
	switch category {
	case domain.CriterionStability:
		return c.StabilityImpact
	case domain.CriterionUserImpact:
		return c.UserImpactSeverity
	case domain.CriterionBusinessImpact:
		return c.BusinessImpact
	case domain.CriterionTechnicalDebt:
		return c.TechnicalDebtCriticality
	}
	return false
}

// Classify decides the severity of a deficient item. The returned
// rationale records every criterion checked and its outcome, in the fixed
// category order, so the decision can be reconstructed later. Output is
// fully determined by the input context.
func Classify(ctx CriteriaContext) *domain.Rationale {
	rationale := &domain.Rationale{
		Checks: make([]domain.CriterionCheck, 0, len(domain.CriterionOrder())),
	}

	for _, category := range domain.CriterionOrder() {
		outcome := ctx.satisfied(category)
		rationale.Checks = append(rationale.Checks, domain.CriterionCheck{
			Criterion: category,
			Satisfied: outcome,
		})
		if outcome {
			rationale.SatisfiedCount++
		}
	}

	if rationale.SatisfiedCount >= EscalationThreshold {
		rationale.Status = domain.ItemStatusPriorityOFI
	} else {
		rationale.Status = domain.ItemStatusOFI
	}

	return rationale
}

// Apply classifies a deficient item in place: the current rationale (if
// any) is shifted to PreviousRationale, the new status and rationale are
// set, and the classification display block in notes is rewritten. Apply
// is the only writer of that block; operator text in notes is preserved.
func Apply(item *domain.AuditItem, ctx CriteriaContext) {
	rationale := Classify(ctx)

	if item.Rationale != nil {
		item.PreviousRationale = item.Rationale
	}
	item.Rationale = rationale
	item.Status = rationale.Status
	item.Notes = domain.AppendNotesBlock(item.Notes, rationale)
}
