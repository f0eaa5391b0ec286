// Package fetcher retrieves and decodes the two upstream feeds: the XMLTV
// guide document and the M3U playlist.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/voyagen/guidevault/internal/filecache"
	"github.com/voyagen/guidevault/internal/metrics"
)

// Fetcher retrieves a remote resource with bounded retries, falling back to
// the local file cache when available and the fetch is not forced.
//
// Fetcher never writes the cache itself: the caller persists the returned
// bytes so later stages can stream the document from disk.
type Fetcher struct {
	Client    *http.Client
	Cache     *filecache.Cache
	UserAgent string
	Attempts  int           // total attempts per fetch, default 3
	Backoff   time.Duration // base backoff between attempts, default 2s
	Logger    *log.Logger
}

// Fetch returns the content for url. When force is false a cache hit on
// cacheKey short-circuits the network fetch. On retry exhaustion the error is
// returned; callers log it and skip that data source for the current cycle.
func (f *Fetcher) Fetch(ctx context.Context, url, cacheKey string, force bool) ([]byte, error) {
	logger := f.logger()
	if !force && f.Cache != nil {
		if data, err := f.Cache.Get(cacheKey); err == nil {
			logger.Printf("fetcher: cache hit for %s (%d bytes)", cacheKey, len(data))
			return data, nil
		}
	}

	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := f.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.FetchAttempts.WithLabelValues(cacheKey).Inc()
		data, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		logger.Printf("fetcher: attempt %d/%d for %s failed: %v", attempt, attempts, cacheKey, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			metrics.FetchFailures.WithLabelValues(cacheKey).Inc()
			return nil, ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
	metrics.FetchFailures.WithLabelValues(cacheKey).Inc()
	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", cacheKey, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return body, nil
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}
