package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// fetchedPage returns a minimal fetched evidence snapshot for mutation in
// table cases.
func fetchedPage() *domain.PageEvidence {
	return &domain.PageEvidence{
		URL:     "https://example.com/",
		Type:    domain.PageTypeHomepage,
		Fetched: true,
	}
}

func TestEvaluatorsGuardUnfetchedEvidence(t *testing.T) {
	unfetched := &domain.PageEvidence{Fetched: false, SkipReason: "http status 500"}

	for _, q := range All() {
		t.Run(q.ID, func(t *testing.T) {
			eval := q.Evaluate(unfetched)
			assert.False(t, eval.Satisfied)
			assert.Equal(t, "page not fetched: http status 500", eval.Note)

			eval = q.Evaluate(nil)
			assert.False(t, eval.Satisfied)
			assert.NotEmpty(t, eval.Note)
		})
	}
}

func TestEvalWordCountBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		wordCount int
		satisfied bool
	}{
		{"well below minimum", 100, false},
		{"one below minimum", MinWordCount - 1, false},
		{"exactly at minimum", MinWordCount, true},
		{"above minimum", MinWordCount + 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fetchedPage()
			ev.WordCount = tt.wordCount

			eval := evalWordCount(ev)
			assert.Equal(t, tt.satisfied, eval.Satisfied)
			assert.Contains(t, eval.Measurement, "word_count=")
		})
	}
}

func TestEvalTitleLengthBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		satisfied bool
	}{
		{"empty", 0, false},
		{"one short", MinTitleLength - 1, false},
		{"minimum", MinTitleLength, true},
		{"maximum", MaxTitleLength, true},
		{"one long", MaxTitleLength + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fetchedPage()
			for i := 0; i < tt.length; i++ {
				ev.Title += "x"
			}

			eval := evalTitleLength(ev)
			assert.Equal(t, tt.satisfied, eval.Satisfied)
		})
	}
}

func TestEvalMetaDescriptionBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		satisfied bool
	}{
		{"missing", 0, false},
		{"too short", MinMetaDescriptionLength - 1, false},
		{"minimum", MinMetaDescriptionLength, true},
		{"maximum", MaxMetaDescriptionLength, true},
		{"too long", MaxMetaDescriptionLength + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fetchedPage()
			for i := 0; i < tt.length; i++ {
				ev.MetaDescription += "d"
			}

			eval := evalMetaDescription(ev)
			assert.Equal(t, tt.satisfied, eval.Satisfied)
		})
	}
}

func TestEvalParagraphLength(t *testing.T) {
	ev := fetchedPage()
	ev.ParagraphCount = 4
	ev.AvgParagraphWords = MaxAvgParagraphWords

	assert.True(t, evalParagraphLength(ev).Satisfied)

	ev.AvgParagraphWords = MaxAvgParagraphWords + 1
	assert.False(t, evalParagraphLength(ev).Satisfied)

	ev.ParagraphCount = 0
	eval := evalParagraphLength(ev)
	assert.False(t, eval.Satisfied)
	assert.Equal(t, "no paragraphs found", eval.Note)
}

func TestEvalSingleH1(t *testing.T) {
	ev := fetchedPage()

	ev.H1Count = 0
	assert.False(t, evalSingleH1(ev).Satisfied)

	ev.H1Count = 1
	assert.True(t, evalSingleH1(ev).Satisfied)

	ev.H1Count = 2
	assert.False(t, evalSingleH1(ev).Satisfied)
}

func TestEvalImageAlt(t *testing.T) {
	ev := fetchedPage()
	ev.ImageCount = 5

	assert.True(t, evalImageAlt(ev).Satisfied)

	ev.ImagesMissingAlt = 2
	eval := evalImageAlt(ev)
	assert.False(t, eval.Satisfied)
	assert.Equal(t, "images_missing_alt=2/5", eval.Measurement)
}

func TestEvalLinkCounts(t *testing.T) {
	ev := fetchedPage()
	ev.InternalLinks = domain.StringList{"a", "b", "c"}

	assert.True(t, evalInternalLinks(ev).Satisfied)
	assert.False(t, evalHomepageLinks(ev).Satisfied)

	ev.InternalLinks = append(ev.InternalLinks, "d", "e")
	assert.True(t, evalHomepageLinks(ev).Satisfied)

	ev.InternalLinks = domain.StringList{"a", "b"}
	assert.False(t, evalInternalLinks(ev).Satisfied)
}

func TestEvalContactSignals(t *testing.T) {
	ev := fetchedPage()
	ev.Type = domain.PageTypeContact

	assert.False(t, evalContactPhone(ev).Satisfied)
	assert.False(t, evalContactAddress(ev).Satisfied)
	assert.False(t, evalContactForm(ev).Satisfied)
	assert.False(t, evalConversionPath(ev).Satisfied)

	ev.HasPhone = true
	assert.True(t, evalContactPhone(ev).Satisfied)
	assert.True(t, evalConversionPath(ev).Satisfied)

	ev.HasPhone = false
	ev.HasContactForm = true
	assert.True(t, evalConversionPath(ev).Satisfied)

	ev.HasAddress = true
	assert.True(t, evalContactAddress(ev).Satisfied)
}

func TestQuestionApplicability(t *testing.T) {
	homepageLinks, ok := ByID("structure.homepage_links")
	require.True(t, ok)
	assert.True(t, homepageLinks.Applies(domain.PageTypeHomepage))
	assert.False(t, homepageLinks.Applies(domain.PageTypeService))

	titlePresent, ok := ByID("onpage.title_present")
	require.True(t, ok)
	for _, pt := range []domain.PageType{
		domain.PageTypeHomepage, domain.PageTypeContact, domain.PageTypeGeneric,
	} {
		assert.True(t, titlePresent.Applies(pt))
	}
}

func TestEverySectionHasQuestions(t *testing.T) {
	for _, section := range domain.AllSections() {
		assert.NotEmpty(t, ForSection(section), "section %s has no questions", section)
	}
}

func TestQuestionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, q := range All() {
		assert.False(t, seen[q.ID], "duplicate question id %s", q.ID)
		seen[q.ID] = true
		require.NotNil(t, q.Evaluate, "question %s has no evaluator", q.ID)
	}
}
