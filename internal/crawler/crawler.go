package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rivalworks/rivalaudit/internal/domain"
	"github.com/rivalworks/rivalaudit/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Skip reasons recorded on pages that were discovered but not evaluated.
const (
	reasonRobotsDisallowed = "robots_disallowed"
	reasonParseError       = "parse_error"
)

// ErrSeedUnreachable is returned when the seed page itself cannot be
// fetched. This is the only per-page failure that aborts a crawl.
var ErrSeedUnreachable = errors.New("seed page unreachable")

// FetchResult is the raw outcome of one page fetch.
type FetchResult struct {
	HTML       []byte
	StatusCode int
	FinalURL   string
}

// Fetcher supplies raw page content to the crawler. Redirect, DNS, and
// TLS handling are its responsibility.
type Fetcher interface {
	FetchPage(ctx context.Context, pageURL string, timeout time.Duration) (*FetchResult, error)
}

// RobotsAllower checks robots.txt compliance.
type RobotsAllower interface {
	IsAllowed(ctx context.Context, rawURL string) (bool, error)
}

// Config bounds one crawl run.
type Config struct {
	// MaxPages is the hard page-count ceiling.
	MaxPages int
	// MaxDuration is the crawl-wide wall-clock budget.
	MaxDuration time.Duration
	// FetchTimeout bounds each individual page fetch.
	FetchTimeout time.Duration
	// Workers is the number of concurrent fetch workers.
	Workers int
	// RespectRobots enables robots.txt checking.
	RespectRobots bool
}

// Default crawl budgets.
const (
	DefaultMaxPages     = 20
	DefaultMaxDuration  = 90 * time.Second
	DefaultFetchTimeout = 10 * time.Second
	DefaultWorkers      = 4
)

// withDefaults fills zero config fields with the default budgets.
func (c Config) withDefaults() Config {
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// State seeds a continuation crawl: URLs already analyzed in the record
// and the frontier of discovered-but-unfetched links.
type State struct {
	Visited  []string
	Frontier []string
}

// Result is the outcome of one crawl run.
type Result struct {
	Pages []*domain.PageEvidence
	// Frontier holds discovered links that were not fetched before a
	// budget stopped the crawl.
	Frontier []string
	// ReachedMaxPages is true only when the page ceiling, not the
	// timer, was the stopping cause.
	ReachedMaxPages bool
}

// Crawler discovers and fetches same-site pages breadth-first from a seed
// URL under page-count and wall-clock budgets.
type Crawler struct {
	fetcher   Fetcher
	robots    RobotsAllower
	extractor *EvidenceExtractor
	log       logger.Interface
	cfg       Config
}

// New creates a crawler. robots may be nil when RespectRobots is false.
func New(fetcher Fetcher, robots RobotsAllower, log logger.Interface, cfg Config) *Crawler {
	return &Crawler{
		fetcher:   fetcher,
		robots:    robots,
		extractor: NewEvidenceExtractor(),
		log:       log,
		cfg:       cfg.withDefaults(),
	}
}

// pageOutcome carries one worker's result back to the coordinator.
type pageOutcome struct {
	evidence *domain.PageEvidence
}

// Crawl runs a breadth-first crawl from seed. A non-empty state resumes a
// truncated crawl: its frontier seeds the queue and its visited URLs are
// never re-fetched. The seed itself being unreachable is the only fatal
// failure; every other fetch problem is recorded as a skipped page.
func (c *Crawler) Crawl(ctx context.Context, auditID int64, seed string, state State) (*Result, error) {
	normalizedSeed, err := NormalizeURL(seed)
	if err != nil {
		return nil, fmt.Errorf("crawl seed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.MaxDuration)
	defer cancel()

	visited := make(map[string]struct{}, len(state.Visited)+c.cfg.MaxPages)
	for _, u := range state.Visited {
		visited[u] = struct{}{}
	}

	result := &Result{}
	var queue []string

	resuming := len(state.Visited) > 0
	if resuming {
		for _, link := range state.Frontier {
			if _, seen := visited[link]; seen {
				continue
			}
			visited[link] = struct{}{}
			queue = append(queue, link)
		}
	} else {
		// Fetch the seed synchronously so an unreachable site fails the
		// whole run before any workers start.
		visited[normalizedSeed] = struct{}{}
		seedPage := c.fetchOne(ctx, auditID, normalizedSeed)
		if !seedPage.Fetched {
			return nil, fmt.Errorf("%w: %s", ErrSeedUnreachable, seedPage.SkipReason)
		}
		result.Pages = append(result.Pages, seedPage)
		queue = c.enqueueLinks(queue, visited, normalizedSeed, seedPage)
	}

	c.runWorkers(ctx, auditID, normalizedSeed, visited, queue, result)

	c.log.Info("crawl finished",
		"audit_id", auditID,
		"pages", len(result.Pages),
		"frontier", len(result.Frontier),
		"reached_max_pages", result.ReachedMaxPages,
	)

	return result, nil
}

// runWorkers drains the frontier with a bounded worker pool. It stops the
// moment the page ceiling or the time budget is reached and records which
// budget was the stopping cause.
func (c *Crawler) runWorkers(
	ctx context.Context,
	auditID int64,
	seed string,
	visited map[string]struct{},
	queue []string,
	result *Result,
) {
	// Buffered so workers can always deliver after cancellation.
	outcomes := make(chan pageOutcome, c.cfg.Workers)
	inflight := make(map[string]struct{}, c.cfg.Workers)
	attempted := len(result.Pages)
	timedOut := false

	for {
		// Launch while there is worker capacity, queued work, and page budget.
		for len(inflight) < c.cfg.Workers && len(queue) > 0 && attempted+len(inflight) < c.cfg.MaxPages {
			next := queue[0]
			queue = queue[1:]
			inflight[next] = struct{}{}

			go func(pageURL string) {
				outcomes <- pageOutcome{evidence: c.fetchOne(ctx, auditID, pageURL)}
			}(next)
		}

		if len(inflight) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			timedOut = true
			// Unfinished work stays discoverable for continuation.
			for pageURL := range inflight {
				queue = append(queue, pageURL)
			}
			inflight = nil
		case outcome := <-outcomes:
			delete(inflight, outcome.evidence.URL)
			attempted++
			result.Pages = append(result.Pages, outcome.evidence)
			queue = c.enqueueLinks(queue, visited, seed, outcome.evidence)
		}

		if timedOut {
			break
		}
	}

	result.Frontier = queue
	result.ReachedMaxPages = !timedOut && attempted >= c.cfg.MaxPages && len(queue) > 0
}

// enqueueLinks adds a page's unseen same-site links to the queue.
func (c *Crawler) enqueueLinks(
	queue []string,
	visited map[string]struct{},
	seed string,
	page *domain.PageEvidence,
) []string {
	for _, link := range page.InternalLinks {
		if !SameSite(seed, link) {
			continue
		}
		if _, seen := visited[link]; seen {
			continue
		}
		visited[link] = struct{}{}
		queue = append(queue, link)
	}
	return queue
}

// fetchOne fetches and extracts a single page. Failures never propagate:
// the returned evidence has Fetched false and a skip reason.
func (c *Crawler) fetchOne(ctx context.Context, auditID int64, pageURL string) *domain.PageEvidence {
	ev := domain.NewPageEvidence(auditID, pageURL, ClassifyPageType(pageURL))

	if c.cfg.RespectRobots && c.robots != nil {
		allowed, robotsErr := c.robots.IsAllowed(ctx, pageURL)
		if robotsErr == nil && !allowed {
			ev.SkipReason = reasonRobotsDisallowed
			c.log.Info("page skipped", "url", pageURL, "reason", reasonRobotsDisallowed)
			return ev
		}
	}

	fetched, fetchErr := c.fetcher.FetchPage(ctx, pageURL, c.cfg.FetchTimeout)
	if fetchErr != nil {
		ev.SkipReason = fetchErr.Error()
		c.log.Info("page fetch failed", "url", pageURL, "error", fetchErr.Error())
		return ev
	}

	ev.StatusCode = fetched.StatusCode
	if fetched.StatusCode < http.StatusOK || fetched.StatusCode >= http.StatusMultipleChoices {
		ev.SkipReason = fmt.Sprintf("http status %d", fetched.StatusCode)
		c.log.Info("page fetch failed", "url", pageURL, "status", fetched.StatusCode)
		return ev
	}

	finalURL := fetched.FinalURL
	if finalURL == "" {
		finalURL = pageURL
	}
	if extractErr := c.extractor.Extract(ev, finalURL, fetched.HTML); extractErr != nil {
		ev.SkipReason = reasonParseError
		c.log.Info("page skipped", "url", pageURL, "reason", reasonParseError, "error", extractErr.Error())
		return ev
	}

	ev.Fetched = true
	return ev
}

// HTTPFetcher implements Fetcher on a shared http.Client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTP fetcher with the given user agent.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// FetchPage performs the HTTP GET request for one page.
func (f *HTTPFetcher) FetchPage(
	ctx context.Context,
	pageURL string,
	timeout time.Duration,
) (*FetchResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		HTML:       body,
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
	}, nil
}
