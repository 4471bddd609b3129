package orchestrator

import (
	"fmt"

	"github.com/rivalworks/rivalaudit/internal/checklist"
	"github.com/rivalworks/rivalaudit/internal/classifier"
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// Assemble evaluates the full checklist against the crawled pages and
// builds the result tree. All six sections are always present: a section
// whose questions apply to no crawled page holds N/A items rather than
// being omitted.
//
// previous carries the item state from an earlier pass of the same record
// (continuation). Operator notes and overrides survive; re-classified
// items keep their prior rationale as history so severity movement is
// visible.
func Assemble(pages []*domain.PageEvidence, previous domain.Results) domain.Results {
	priorItems := indexItems(previous)
	results := make(domain.Results, len(domain.AllSections()))

	for _, section := range domain.AllSections() {
		sectionQuestions := checklist.ForSection(section)
		items := make([]domain.AuditItem, 0, len(sectionQuestions))
		for i := range sectionQuestions {
			items = append(items, buildItem(&sectionQuestions[i], pages, priorItems[sectionQuestions[i].Name]))
		}
		results[section] = items
	}

	return results
}

// buildItem evaluates one question across every applicable fetched page.
// The item is OK only when every applicable page satisfies the question;
// one failing page makes the item deficient and the classifier decides
// its severity from the first failure observed.
func buildItem(q *checklist.Question, pages []*domain.PageEvidence, prior *domain.AuditItem) domain.AuditItem {
	item := domain.AuditItem{
		Name:        q.Name,
		Description: q.Description,
		Importance:  q.Importance,
	}

	if prior != nil {
		if prior.ManualOverride {
			// An operator decision sticks across continuations.
			return *prior
		}
		item.Notes = domain.StripNotesBlock(prior.Notes)
		item.Rationale = prior.Rationale
	}

	var firstFailure *domain.PageEvidence
	var failureNote string
	applicable := 0

	for _, page := range pages {
		if !page.Fetched || !q.Applies(page.Type) {
			continue
		}
		applicable++
		eval := q.Evaluate(page)
		if !eval.Satisfied && firstFailure == nil {
			firstFailure = page
			failureNote = eval.Note
		}
	}

	switch {
	case applicable == 0:
		item.Status = domain.ItemStatusNA
		item.Rationale = nil
	case firstFailure == nil:
		item.Status = domain.ItemStatusOK
		item.Rationale = nil
	default:
		if failureNote != "" {
			note := fmt.Sprintf("%s (%s)", failureNote, firstFailure.URL)
			if item.Notes == "" {
				item.Notes = note
			}
		}
		classifier.Apply(&item, classifier.DeriveContext(*q, firstFailure))
	}

	return item
}

// SummarizePages builds per-page issue summaries from the evidence set.
// Only fetched pages with at least one deficiency appear.
func SummarizePages(pages []*domain.PageEvidence) []domain.PageIssueSummary {
	questions := checklist.All()
	summaries := []domain.PageIssueSummary{}

	for _, page := range pages {
		if !page.Fetched {
			continue
		}
		summary := domain.PageIssueSummary{URL: page.URL, Type: page.Type}
		for i := range questions {
			q := &questions[i]
			if !q.Applies(page.Type) {
				continue
			}
			if q.Evaluate(page).Satisfied {
				continue
			}
			rationale := classifier.Classify(classifier.DeriveContext(*q, page))
			summary.AddIssue(domain.PageIssue{
				Name:       q.Name,
				Section:    q.Section,
				Importance: q.Importance,
				Status:     rationale.Status,
			})
		}
		if summary.PriorityOFICount+summary.OFICount > 0 {
			summaries = append(summaries, summary)
		}
	}

	return summaries
}

// indexItems flattens a result tree into a name-keyed lookup.
func indexItems(results domain.Results) map[string]*domain.AuditItem {
	if results == nil {
		return nil
	}
	index := make(map[string]*domain.AuditItem)
	for _, items := range results {
		for i := range items {
			index[items[i].Name] = &items[i]
		}
	}
	return index
}
