package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

// defaultRobotsCacheTTL is how long a fetched robots.txt is trusted.
const defaultRobotsCacheTTL = 24 * time.Hour

// RobotsChecker checks and caches robots.txt rules per host. Missing or
// errored robots.txt results in allow-all, which is standard practice.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]*robotsCacheEntry // keyed by host
}

type robotsCacheEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool
}

// NewRobotsChecker creates a new RobotsChecker.
func NewRobotsChecker(httpClient *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		httpClient: httpClient,
		userAgent:  userAgent,
		cacheTTL:   defaultRobotsCacheTTL,
		cache:      make(map[string]*robotsCacheEntry),
	}
}

// IsAllowed checks whether the given URL may be fetched under the host's
// robots.txt, fetching and caching the file on first use per host.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return false, fmt.Errorf("robots: parse url: %w", parseErr)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry, ok := r.cachedEntry(host)
	if !ok {
		entry = r.fetchAndCache(ctx, host, parsed.Scheme)
	}

	if entry.allowAll {
		return true, nil
	}
	return entry.data.TestAgent(parsed.Path, r.userAgent), nil
}

// cachedEntry returns a cached entry if it exists and is not stale.
func (r *RobotsChecker) cachedEntry(host string) (*robotsCacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok || time.Since(entry.fetchedAt) > r.cacheTTL {
		return nil, false
	}
	return entry, true
}

// fetchAndCache fetches robots.txt for the host and caches the outcome.
// Fetch failures and non-2xx responses degrade to allow-all.
func (r *RobotsChecker) fetchAndCache(ctx context.Context, host, scheme string) *robotsCacheEntry {
	if scheme == "" {
		scheme = "https"
	}

	entry := &robotsCacheEntry{fetchedAt: time.Now(), allowAll: true}

	body, statusCode, fetchErr := r.doFetch(ctx, scheme+"://"+host+robotsTxtPath)
	if fetchErr == nil && statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		if robots, parseErr := robotstxt.FromBytes(body); parseErr == nil {
			entry.data = robots
			entry.allowAll = false
		}
	}

	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()

	return entry
}

// doFetch performs the HTTP GET request for a robots.txt URL.
func (r *RobotsChecker) doFetch(ctx context.Context, robotsURL string) (body []byte, statusCode int, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if reqErr != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", reqErr)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, doErr := r.httpClient.Do(req)
	if doErr != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", doErr)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", readErr)
	}
	return body, resp.StatusCode, nil
}
