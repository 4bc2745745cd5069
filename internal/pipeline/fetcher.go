package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pitwall/stewarding/internal/cache"
	"github.com/pitwall/stewarding/internal/model"
	"github.com/pitwall/stewarding/internal/util"
	"github.com/pitwall/stewarding/internal/worker"
)

// ErrRobotsDisallowed reports that robots.txt forbids the requested URL.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

const maxRedirects = 5

// Fetcher performs all outbound HTTP for a batch: the listing page, cached
// briefly so repeated triggers stay cheap, and the documents themselves,
// rate limited per host and gated on robots.txt.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64

	listingCache cache.Cache
	cacheTTL     time.Duration

	limiter *worker.Limiter
	robots  *util.RobotsChecker
}

// NewFetcher wires a fetcher from configuration. listingCache may be nil to
// disable listing caching.
func NewFetcher(cfg model.HTTPConfig, rl model.RateLimitConfig, listingCache cache.Cache, cacheTTL time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:    cfg.UserAgent,
		maxBody:      cfg.MaxBodyBytes,
		listingCache: listingCache,
		cacheTTL:     cacheTTL,
		limiter:      worker.NewLimiter(rl.RequestsPerSecond, rl.Burst),
		robots:       util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
	}
}

// FetchListing downloads a listing page, consulting the cache first.
func (f *Fetcher) FetchListing(ctx context.Context, url string) ([]byte, error) {
	key := cache.CacheKey(url)
	if f.listingCache != nil {
		if body, ok := f.listingCache.Get(key); ok {
			return body, nil
		}
	}

	body, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if f.listingCache != nil {
		f.listingCache.Set(key, body, f.cacheTTL)
	}
	return body, nil
}

// FetchDocument downloads one document fully into memory.
func (f *Fetcher) FetchDocument(ctx context.Context, url string) ([]byte, error) {
	return f.fetch(ctx, url)
}

// FetchDocumentToFile spools one document to a temp file and returns its
// path with a cleanup func. Used when documents should not be held in memory.
func (f *Fetcher) FetchDocumentToFile(ctx context.Context, url string) (string, func(), error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp, err := os.CreateTemp("", "stewarding-doc-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	_, err = io.Copy(tmp, io.LimitReader(resp.Body, f.maxBody))
	closeErr := tmp.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", url, err)
	}
	if closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", url, closeErr)
	}
	return tmp.Name(), cleanup, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	if !f.robots.IsAllowed(ctx, url) {
		return nil, fmt.Errorf("%s: %w", url, ErrRobotsDisallowed)
	}
	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}
