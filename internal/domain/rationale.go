package domain

import (
	"fmt"
	"strings"
)

// CriterionCategory is the weight category of a classification criterion.
type CriterionCategory string

const (
	CriterionStability      CriterionCategory = "stability"
	CriterionUserImpact     CriterionCategory = "userImpact"
	CriterionBusinessImpact CriterionCategory = "businessImpact"
	CriterionTechnicalDebt  CriterionCategory = "technicalDebt"
)

// CriterionOrder returns the four weighted categories in the fixed order
// the classifier checks them, so rationale traces are reproducible.
func CriterionOrder() []CriterionCategory {
	return []CriterionCategory{
		CriterionStability,
		CriterionUserImpact,
		CriterionBusinessImpact,
		CriterionTechnicalDebt,
	}
}

// CriterionCheck records the boolean outcome of one criterion evaluation.
type CriterionCheck struct {
	Criterion CriterionCategory `json:"criterion"`
	Satisfied bool              `json:"satisfied"`
}

// Rationale is the classifier's decision-tree trace: which criteria were
// checked, their outcomes, and the resulting status. It carries no
// timestamps so that identical inputs always produce identical traces.
type Rationale struct {
	Status         ItemStatus       `json:"status"`
	Checks         []CriterionCheck `json:"checks"`
	SatisfiedCount int              `json:"satisfied_count"`
}

// Equal reports whether two rationales carry the same status and trace.
func (r *Rationale) Equal(other *Rationale) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Status != other.Status || r.SatisfiedCount != other.SatisfiedCount {
		return false
	}
	if len(r.Checks) != len(other.Checks) {
		return false
	}
	for i := range r.Checks {
		if r.Checks[i] != other.Checks[i] {
			return false
		}
	}
	return true
}

// Notes block delimiters. The classifier is the only writer of the text
// between them; operator text outside the block is preserved verbatim.
const (
	notesBlockOpen  = "[classification]"
	notesBlockClose = "[/classification]"
)

// NotesBlock renders the rationale as a delimited display block for
// embedding in an item's free-text notes.
func (r *Rationale) NotesBlock() string {
	var b strings.Builder
	b.WriteString(notesBlockOpen)
	b.WriteString("\n")
	for _, check := range r.Checks {
		fmt.Fprintf(&b, "%s=%t\n", check.Criterion, check.Satisfied)
	}
	fmt.Fprintf(&b, "satisfied=%d status=%s\n", r.SatisfiedCount, r.Status)
	b.WriteString(notesBlockClose)
	return b.String()
}

// AppendNotesBlock replaces any existing classification block in notes
// with the rationale's block, preserving surrounding operator text.
func AppendNotesBlock(notes string, r *Rationale) string {
	stripped := StripNotesBlock(notes)
	if stripped == "" {
		return r.NotesBlock()
	}
	return stripped + "\n" + r.NotesBlock()
}

// StripNotesBlock removes the classification block from notes, returning
// only the operator-authored text.
func StripNotesBlock(notes string) string {
	start := strings.Index(notes, notesBlockOpen)
	if start < 0 {
		return strings.TrimSpace(notes)
	}
	end := strings.Index(notes, notesBlockClose)
	if end < 0 {
		return strings.TrimSpace(notes[:start])
	}
	end += len(notesBlockClose)
	return strings.TrimSpace(notes[:start] + notes[end:])
}
