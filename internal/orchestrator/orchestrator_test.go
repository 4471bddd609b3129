package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

// stubCrawler returns canned crawl results and records the states it was
// called with.
type stubCrawler struct {
	mu      sync.Mutex
	results []*crawler.Result
	err     error
	states  []crawler.State
	block   chan struct{}
}

func (s *stubCrawler) Crawl(
	_ context.Context,
	auditID int64,
	_ string,
	state crawler.State,
) (*crawler.Result, error) {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)

	if s.err != nil {
		return nil, s.err
	}

	result := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	// Stamp the audit ID the way the real crawler does.
	out := &crawler.Result{Frontier: result.Frontier, ReachedMaxPages: result.ReachedMaxPages}
	for _, page := range result.Pages {
		copied := *page
		copied.AuditID = auditID
		out.Pages = append(out.Pages, &copied)
	}
	return out, nil
}

func goodHomepage() *domain.PageEvidence {
	return &domain.PageEvidence{
		ID:                "p1",
		URL:               "https://example.com/",
		Type:              domain.PageTypeHomepage,
		Fetched:           true,
		StatusCode:        200,
		Title:             "Acme Plumbing - Emergency Repairs in Toronto",
		MetaDescription:   "Fast and licensed plumbing repairs across the greater Toronto area, day or night.",
		CanonicalURL:      "https://example.com/",
		HTTPS:             true,
		H1Count:           1,
		WordCount:         900,
		ParagraphCount:    9,
		AvgParagraphWords: 80,
		HasNav:            true,
		InternalLinks:     domain.StringList{"a", "b", "c", "d", "e"},
		FetchedAt:         time.Now(),
	}
}

func thinServicePage() *domain.PageEvidence {
	page := goodHomepage()
	page.ID = "p2"
	page.URL = "https://example.com/services/plumbing"
	page.Type = domain.PageTypeService
	page.Title = "" // missing title
	page.WordCount = 200
	page.HasPhone = true
	return page
}

func contactPage() *domain.PageEvidence {
	page := goodHomepage()
	page.ID = "p3"
	page.URL = "https://example.com/contact"
	page.Type = domain.PageTypeContact
	page.Title = "Contact Acme Plumbing in Toronto Today"
	page.HasPhone = true
	page.HasAddress = true
	page.HasContactForm = true
	return page
}

func newTestOrchestrator(t *testing.T, stub *stubCrawler) (*Orchestrator, *lifecycle.Manager, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	manager := lifecycle.NewManager(store, logger.NewNoOp(), nil, domain.DefaultTTL)
	return New(store, manager, stub, logger.NewNoOp()), manager, store
}

func TestRunAuditProducesAllSixSections(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{{
		Pages: []*domain.PageEvidence{goodHomepage(), thinServicePage(), contactPage()},
	}}}
	orch, manager, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, audit.Status)
	orch.Wait()

	done, err := manager.Get(context.Background(), audit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)

	require.Len(t, done.Results, 6)
	for _, section := range domain.AllSections() {
		assert.Contains(t, done.Results, section, "missing section %s", section)
		assert.NotEmpty(t, done.Results[section])
	}

	// No location or service-area pages were crawled, so those sections
	// hold N/A items rather than disappearing.
	for _, item := range done.Results[domain.SectionLocation] {
		assert.Equal(t, domain.ItemStatusNA, item.Status)
	}
	for _, item := range done.Results[domain.SectionServiceArea] {
		assert.Equal(t, domain.ItemStatusNA, item.Status)
	}
}

func TestRunAuditClassifiesDeficiencies(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{{
		Pages: []*domain.PageEvidence{goodHomepage(), thinServicePage(), contactPage()},
	}}}
	orch, manager, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)
	orch.Wait()

	done, err := manager.Get(context.Background(), audit.ID)
	require.NoError(t, err)

	byName := map[string]domain.AuditItem{}
	for _, items := range done.Results {
		for _, item := range items {
			byName[item.Name] = item
		}
	}

	// The service page is missing its title: user-facing and compounding.
	titleItem := byName["Page has a title tag"]
	assert.Equal(t, domain.ItemStatusPriorityOFI, titleItem.Status)
	require.NotNil(t, titleItem.Rationale)
	assert.GreaterOrEqual(t, titleItem.Rationale.SatisfiedCount, 2)

	// Thin content off the homepage satisfies only one criterion.
	wordItem := byName["Sufficient body content"]
	assert.Equal(t, domain.ItemStatusOFI, wordItem.Status)

	// Contact page has every signal.
	assert.Equal(t, domain.ItemStatusOK, byName["Contact page lists a phone number"].Status)

	// Summary counts match the item statuses.
	require.NotNil(t, done.Summary)
	recount := domain.SummarizeResults(done.Results)
	assert.Equal(t, recount, done.Summary)
	assert.Equal(t, 3, done.PagesAnalyzed)
}

func TestRunAuditCrawlFailureFailsRecord(t *testing.T) {
	stub := &stubCrawler{err: crawler.ErrSeedUnreachable}
	orch, _, store := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)
	orch.Wait()

	done, err := store.GetByID(context.Background(), audit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, done.Status)
	require.NotNil(t, done.ErrorMessage)
	assert.Contains(t, *done.ErrorMessage, "seed page unreachable")
	// All-or-nothing: a failed audit carries no partial results.
	assert.Nil(t, done.Results)
	assert.Nil(t, done.Summary)
}

func TestContinueNotResumable(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{{
		Pages: []*domain.PageEvidence{goodHomepage()},
	}}}
	orch, _, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)
	orch.Wait()

	// The crawl exhausted the site, so there is nothing to resume.
	_, err = orch.Continue(context.Background(), audit.ID)
	assert.ErrorIs(t, err, ErrNotResumable)
}

func TestContinueMergesNewPages(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{
		{
			Pages:           []*domain.PageEvidence{goodHomepage(), thinServicePage()},
			Frontier:        []string{"https://example.com/contact"},
			ReachedMaxPages: true,
		},
		{
			Pages: []*domain.PageEvidence{contactPage()},
		},
	}}
	orch, manager, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)
	orch.Wait()

	first, err := manager.Get(context.Background(), audit.ID)
	require.NoError(t, err)
	require.True(t, first.Resumable())
	// Contact questions had no page yet.
	for _, item := range first.Results[domain.SectionContact] {
		assert.Equal(t, domain.ItemStatusNA, item.Status)
	}

	_, err = orch.Continue(context.Background(), audit.ID)
	require.NoError(t, err)
	orch.Wait()

	second, err := manager.Get(context.Background(), audit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.Equal(t, 3, second.PagesAnalyzed)
	assert.False(t, second.ReachedMaxPages)

	// The continuation crawl was seeded with the stored frontier and the
	// already-analyzed URLs.
	require.Len(t, stub.states, 2)
	assert.Equal(t, []string{"https://example.com/contact"}, stub.states[1].Frontier)
	assert.Contains(t, stub.states[1].Visited, "https://example.com/")

	// Contact items were re-evaluated against the newly crawled page.
	var phoneItem *domain.AuditItem
	for i, item := range second.Results[domain.SectionContact] {
		if item.Name == "Contact page lists a phone number" {
			phoneItem = &second.Results[domain.SectionContact][i]
		}
	}
	require.NotNil(t, phoneItem)
	assert.Equal(t, domain.ItemStatusOK, phoneItem.Status)
}

func TestContinueWhileRunningConflicts(t *testing.T) {
	block := make(chan struct{})
	stub := &stubCrawler{
		results: []*crawler.Result{{Pages: []*domain.PageEvidence{goodHomepage()}}},
		block:   block,
	}
	orch, _, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)

	_, err = orch.Continue(context.Background(), audit.ID)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	orch.Wait()
}

func TestExclusiveSerializesWithRuns(t *testing.T) {
	block := make(chan struct{})
	stub := &stubCrawler{
		results: []*crawler.Result{{
			Pages:           []*domain.PageEvidence{goodHomepage()},
			Frontier:        []string{"https://example.com/contact"},
			ReachedMaxPages: true,
		}},
		block: block,
	}
	orch, _, _ := newTestOrchestrator(t, stub)

	audit, err := orch.Start(context.Background(), "https://example.com/", nil)
	require.NoError(t, err)

	// While the run holds the slot, an exclusive write is refused.
	err = orch.Exclusive(audit.ID, func() error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	orch.Wait()

	// Once the slot is free the write runs, and a continuation started
	// inside it is refused rather than racing the write.
	ran := false
	err = orch.Exclusive(audit.ID, func() error {
		ran = true
		_, continueErr := orch.Continue(context.Background(), audit.ID)
		assert.ErrorIs(t, continueErr, ErrAlreadyRunning)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestContinueUnknownAudit(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{{}}}
	orch, _, _ := newTestOrchestrator(t, stub)

	_, err := orch.Continue(context.Background(), 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestContinuePreservesManualOverride(t *testing.T) {
	stub := &stubCrawler{results: []*crawler.Result{
		{
			Pages:           []*domain.PageEvidence{goodHomepage(), thinServicePage()},
			Frontier:        []string{"https://example.com/contact"},
			ReachedMaxPages: true,
		},
		{
			Pages: []*domain.PageEvidence{contactPage()},
		},
	}}
	orch, manager, store := newTestOrchestrator(t, stub)
	ctx := context.Background()

	audit, err := orch.Start(ctx, "https://example.com/", nil)
	require.NoError(t, err)
	orch.Wait()

	// An operator waves the thin-content finding through.
	stored, err := manager.Get(ctx, audit.ID)
	require.NoError(t, err)
	for section, items := range stored.Results {
		for i := range items {
			if items[i].Name == "Sufficient body content" {
				stored.Results[section][i].Status = domain.ItemStatusOK
				stored.Results[section][i].ManualOverride = true
			}
		}
	}
	require.NoError(t, store.Update(ctx, stored))

	_, err = orch.Continue(ctx, audit.ID)
	require.NoError(t, err)
	orch.Wait()

	second, err := manager.Get(ctx, audit.ID)
	require.NoError(t, err)
	for _, items := range second.Results {
		for _, item := range items {
			if item.Name == "Sufficient body content" {
				assert.Equal(t, domain.ItemStatusOK, item.Status)
				assert.True(t, item.ManualOverride)
			}
		}
	}
}

func TestAssembleDowngradeKeepsHistory(t *testing.T) {
	const itemName = "Exactly one H1 heading"

	findItem := func(results domain.Results) *domain.AuditItem {
		for _, items := range results {
			for i := range items {
				if items[i].Name == itemName {
					return &items[i]
				}
			}
		}
		return nil
	}

	// First pass: the homepage has no H1, which is user-facing on top of
	// the markup debt and escalates.
	badHome := goodHomepage()
	badHome.H1Count = 0
	first := Assemble([]*domain.PageEvidence{badHome}, nil)

	firstItem := findItem(first)
	require.NotNil(t, firstItem)
	require.Equal(t, domain.ItemStatusPriorityOFI, firstItem.Status)

	// Second pass: the homepage is fixed; only a generic page still has a
	// heading problem, which satisfies a single criterion.
	genericBadH1 := goodHomepage()
	genericBadH1.URL = "https://example.com/blog/post"
	genericBadH1.Type = domain.PageTypeGeneric
	genericBadH1.H1Count = 2
	second := Assemble([]*domain.PageEvidence{goodHomepage(), genericBadH1}, first)

	secondItem := findItem(second)
	require.NotNil(t, secondItem)
	assert.Equal(t, domain.ItemStatusOFI, secondItem.Status)
	require.NotNil(t, secondItem.PreviousRationale)
	assert.Equal(t, domain.ItemStatusPriorityOFI, secondItem.PreviousRationale.Status)
	assert.True(t, secondItem.Downgraded())
}

func TestAssembleSkippedPageYieldsNA(t *testing.T) {
	// A discovered contact page that failed to fetch contributes no
	// evidence, so the contact section reads N/A rather than deficient.
	skipped := contactPage()
	skipped.Fetched = false
	skipped.StatusCode = 503

	results := Assemble([]*domain.PageEvidence{goodHomepage(), skipped}, nil)

	for _, item := range results[domain.SectionContact] {
		assert.Equal(t, domain.ItemStatusNA, item.Status, item.Name)
	}
}

func TestSummarizePages(t *testing.T) {
	summaries := SummarizePages([]*domain.PageEvidence{goodHomepage(), thinServicePage()})

	// The clean homepage may still carry minor findings, but the thin
	// service page must be present with a Priority OFI.
	var service *domain.PageIssueSummary
	for i := range summaries {
		if summaries[i].URL == "https://example.com/services/plumbing" {
			service = &summaries[i]
		}
	}
	require.NotNil(t, service)
	assert.Positive(t, service.PriorityOFICount)
	assert.NotEmpty(t, service.TopIssues)
	assert.LessOrEqual(t, len(service.TopIssues), domain.MaxTopIssues)
}
