package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
	"github.com/rivalworks/rivalaudit/internal/orchestrator"
	"github.com/rivalworks/rivalaudit/internal/reporting"
)

// stubCrawler returns one canned result for every crawl.
type stubCrawler struct {
	result *crawler.Result
	err    error
}

func (s *stubCrawler) Crawl(
	_ context.Context,
	auditID int64,
	_ string,
	_ crawler.State,
) (*crawler.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := &crawler.Result{
		Frontier:        s.result.Frontier,
		ReachedMaxPages: s.result.ReachedMaxPages,
	}
	for _, page := range s.result.Pages {
		copied := *page
		copied.AuditID = auditID
		out.Pages = append(out.Pages, &copied)
	}
	return out, nil
}

type testEnv struct {
	router *gin.Engine
	orch   *orchestrator.Orchestrator
	store  *database.MemoryStore
	clock  *time.Time
}

func newTestEnv(t *testing.T, stub *stubCrawler) *testEnv {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{store: database.NewMemoryStore(), clock: &now}

	log := logger.NewNoOp()
	manager := lifecycle.NewManager(env.store, log, func() time.Time { return *env.clock }, domain.DefaultTTL)
	env.orch = orchestrator.New(env.store, manager, stub, log)
	env.router = SetupRouter(log, Dependencies{
		Store:        env.store,
		Manager:      manager,
		Orchestrator: env.orch,
		Aggregator:   reporting.NewAggregator(env.store, log),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decentPage() *domain.PageEvidence {
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
		WordCount:         300, // thin content, guarantees at least one finding
		ParagraphCount:    5,
		AvgParagraphWords: 60,
		HasNav:            true,
		InternalLinks:     domain.StringList{"a", "b", "c", "d", "e"},
		FetchedAt:         time.Now(),
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubCrawler{result: &crawler.Result{}})

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartAuditValidation(t *testing.T) {
	env := newTestEnv(t, &stubCrawler{result: &crawler.Result{}})

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "ftp://example.com/"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartAndFetchAudit(t *testing.T) {
	stub := &stubCrawler{result: &crawler.Result{Pages: []*domain.PageEvidence{decentPage()}}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var created AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, domain.StatusPending, created.Status)

	env.orch.Wait()

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/audits/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, domain.StatusCompleted, fetched.Status)
	assert.Len(t, fetched.Results, 6)
	assert.NotNil(t, fetched.Summary)
	// The thin homepage shows up in the per-page summaries.
	require.NotEmpty(t, fetched.Pages)
	assert.Equal(t, "https://example.com/", fetched.Pages[0].URL)
}

func TestGetAuditNotFound(t *testing.T) {
	env := newTestEnv(t, &stubCrawler{result: &crawler.Result{}})

	w := env.do(t, http.MethodGet, "/api/v1/audits/424242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/audits/banana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAuditExpiredReturnsNotFound(t *testing.T) {
	stub := &stubCrawler{result: &crawler.Result{Pages: []*domain.PageEvidence{decentPage()}}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	env.orch.Wait()

	*env.clock = env.clock.Add(domain.DefaultTTL + time.Hour)

	// Expired looks the same as deleted, whether or not the sweep ran.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/audits/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContinueNotTruncatedIsNoOp(t *testing.T) {
	// The crawl exhausts the site, so there is nothing to resume.
	stub := &stubCrawler{result: &crawler.Result{Pages: []*domain.PageEvidence{decentPage()}}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	env.orch.Wait()

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/audits/%d/continue", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var unchanged AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unchanged))
	assert.Equal(t, domain.StatusCompleted, unchanged.Status)
	assert.Equal(t, 1, unchanged.PagesAnalyzed)
	env.orch.Wait()

	stored, err := env.store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PagesAnalyzed)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
}

func TestContinueResumableAudit(t *testing.T) {
	stub := &stubCrawler{result: &crawler.Result{
		Pages:           []*domain.PageEvidence{decentPage()},
		Frontier:        []string{"https://example.com/more"},
		ReachedMaxPages: true,
	}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	env.orch.Wait()

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/audits/%d/continue", created.ID), nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	env.orch.Wait()
}

func TestOverrideItem(t *testing.T) {
	stub := &stubCrawler{result: &crawler.Result{Pages: []*domain.PageEvidence{decentPage()}}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	env.orch.Wait()

	path := fmt.Sprintf("/api/v1/audits/%d/items/%s",
		created.ID, url.PathEscape("Sufficient body content"))
	w = env.do(t, http.MethodPost, path, OverrideItemRequest{
		Status: domain.ItemStatusOK,
		Note:   "content rewrite shipped, verified by hand",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := env.store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	found := false
	for _, items := range stored.Results {
		for _, item := range items {
			if item.Name == "Sufficient body content" {
				found = true
				assert.Equal(t, domain.ItemStatusOK, item.Status)
				assert.True(t, item.ManualOverride)
				assert.Contains(t, item.Notes, "content rewrite shipped")
			}
		}
	}
	assert.True(t, found)

	// Unknown statuses and items are rejected.
	w = env.do(t, http.MethodPost, path, map[string]string{"status": "Sort Of OK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/audits/%d/items/%s", created.ID, url.PathEscape("No Such Item")),
		OverrideItemRequest{Status: domain.ItemStatusOK})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeklyReportEndpoint(t *testing.T) {
	stub := &stubCrawler{result: &crawler.Result{Pages: []*domain.PageEvidence{decentPage()}}}
	env := newTestEnv(t, stub)

	w := env.do(t, http.MethodPost, "/api/v1/audits", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, w.Code)
	env.orch.Wait()

	end := env.clock.Add(time.Hour).Format(time.RFC3339)
	w = env.do(t, http.MethodGet, "/api/v1/reports/weekly?end="+end, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report reporting.WeeklyReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.AuditsCompleted)
	assert.Positive(t, report.Decisions)

	// An explicit start that excludes the audit empties the report.
	start := env.clock.Add(30 * time.Minute).Format(time.RFC3339)
	w = env.do(t, http.MethodGet, "/api/v1/reports/weekly?start="+start+"&end="+end, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Zero(t, report.AuditsCompleted)

	w = env.do(t, http.MethodGet, "/api/v1/reports/weekly?end=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/reports/weekly?start="+end+"&end="+end, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
