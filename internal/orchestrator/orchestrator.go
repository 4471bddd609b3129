// Package orchestrator drives a full audit run: crawl, evaluate, classify,
// assemble the six fixed sections, and complete or fail the record as a
// single unit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

var (
	// ErrAlreadyRunning is returned when a continuation is requested while
	// the audit is still being processed.
	ErrAlreadyRunning = errors.New("audit already running")
	// ErrNotResumable is returned when a continuation is requested for an
	// audit that did not stop at the page ceiling.
	ErrNotResumable = errors.New("audit is not resumable")
)

// SiteCrawler is the crawl dependency; satisfied by crawler.Crawler.
type SiteCrawler interface {
	Crawl(ctx context.Context, auditID int64, seed string, state crawler.State) (*crawler.Result, error)
}

// Orchestrator coordinates crawls and audit record lifecycle. Runs execute
// on background goroutines; Wait blocks until in-flight runs finish.
type Orchestrator struct {
	store   database.Store
	manager *lifecycle.Manager
	crawler SiteCrawler
	log     logger.Interface

	mu       sync.Mutex
	inflight map[int64]struct{}
	wg       sync.WaitGroup
}

// New creates an orchestrator.
func New(
	store database.Store,
	manager *lifecycle.Manager,
	siteCrawler SiteCrawler,
	log logger.Interface,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		manager:  manager,
		crawler:  siteCrawler,
		log:      log,
		inflight: make(map[int64]struct{}),
	}
}

// Start creates a pending audit record and launches the run asynchronously.
// The returned record reflects the pending state; callers poll for the
// outcome.
func (o *Orchestrator) Start(ctx context.Context, targetURL string, userID *string) (*domain.AuditRecord, error) {
	audit, err := o.manager.Create(ctx, targetURL, userID)
	if err != nil {
		return nil, err
	}

	o.acquire(audit.ID)
	o.launch(audit, crawler.State{}, nil)

	return audit.Clone(), nil
}

// Continue resumes a completed audit that stopped at the page ceiling. The
// persisted frontier seeds the new crawl, previously analyzed pages are
// never re-fetched, and the whole result set is re-evaluated so item
// severities can move in either direction.
func (o *Orchestrator) Continue(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	audit, err := o.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !audit.Resumable() {
		if lifecycle.IsActiveStatus(audit.Status) {
			return nil, ErrAlreadyRunning
		}
		return nil, ErrNotResumable
	}
	if !o.tryAcquire(id) {
		return nil, ErrAlreadyRunning
	}

	// A continuation restarts the clock so the merged result has a full
	// window to be read.
	if extendErr := o.manager.Extend(ctx, audit); extendErr != nil {
		o.release(id)
		return nil, extendErr
	}

	previousResults := audit.Results
	priorPages, pagesErr := o.store.GetByAudit(ctx, id)
	if pagesErr != nil {
		o.release(id)
		return nil, fmt.Errorf("failed to load prior evidence: %w", pagesErr)
	}

	state := crawler.State{Frontier: audit.Frontier}
	for _, page := range priorPages {
		state.Visited = append(state.Visited, page.URL)
	}

	o.launch(audit, state, previousResults)

	return audit.Clone(), nil
}

// Wait blocks until every in-flight run has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Exclusive runs fn while holding the record's in-flight slot, so no crawl
// run can start or write concurrently. Returns ErrAlreadyRunning when a run
// holds the slot.
func (o *Orchestrator) Exclusive(id int64, fn func() error) error {
	if !o.tryAcquire(id) {
		return ErrAlreadyRunning
	}
	defer o.release(id)
	return fn()
}

// launch runs the audit on a background goroutine. The caller must already
// hold the in-flight slot.
func (o *Orchestrator) launch(audit *domain.AuditRecord, state crawler.State, previous domain.Results) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release(audit.ID)
		o.run(context.Background(), audit, state, previous)
	}()
}

// run executes one crawl-and-classify pass. Any failure, including a
// panic, fails the record; results are only ever persisted whole.
func (o *Orchestrator) run(
	ctx context.Context,
	audit *domain.AuditRecord,
	state crawler.State,
	previous domain.Results,
) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("audit run panicked", "audit_id", audit.ID, "panic", fmt.Sprint(r))
			o.fail(ctx, audit, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := o.manager.MarkProcessing(ctx, audit); err != nil {
		o.log.Error("failed to mark audit processing", "audit_id", audit.ID, "error", err.Error())
		return
	}

	result, err := o.crawler.Crawl(ctx, audit.ID, audit.URL, state)
	if err != nil {
		o.fail(ctx, audit, err.Error())
		return
	}

	for _, page := range result.Pages {
		if storeErr := o.store.StorePage(ctx, page); storeErr != nil {
			o.fail(ctx, audit, fmt.Sprintf("failed to persist page evidence: %v", storeErr))
			return
		}
	}

	pages, loadErr := o.store.GetByAudit(ctx, audit.ID)
	if loadErr != nil {
		o.fail(ctx, audit, fmt.Sprintf("failed to load page evidence: %v", loadErr))
		return
	}

	results := Assemble(pages, previous)
	summary := domain.SummarizeResults(results)

	analyzed := 0
	for _, page := range pages {
		if page.Fetched {
			analyzed++
		}
	}

	// Leave the reader a reasonable window to fetch the finished audit.
	if o.manager.RemainingTTL(audit) < o.manager.TTL()/3 {
		if extendErr := o.manager.Extend(ctx, audit); extendErr != nil {
			o.fail(ctx, audit, fmt.Sprintf("failed to extend audit: %v", extendErr))
			return
		}
	}

	completeErr := o.manager.Complete(
		ctx, audit, results, summary, analyzed, result.ReachedMaxPages, result.Frontier,
	)
	if completeErr != nil {
		o.log.Error("failed to complete audit", "audit_id", audit.ID, "error", completeErr.Error())
	}
}

// fail transitions the record to failed, logging when even that fails.
func (o *Orchestrator) fail(ctx context.Context, audit *domain.AuditRecord, reason string) {
	if err := o.manager.Fail(ctx, audit, reason); err != nil {
		o.log.Error("failed to mark audit failed",
			"audit_id", audit.ID,
			"reason", reason,
			"error", err.Error(),
		)
	}
}

func (o *Orchestrator) acquire(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight[id] = struct{}{}
}

func (o *Orchestrator) tryAcquire(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.inflight[id]; running {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
}
