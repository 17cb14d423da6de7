package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchConfig holds GetAll configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests.
	MaxConcurrency int

	// Timeout bounds each URL, retries included.
	Timeout time.Duration
}

// DefaultBatchConfig returns the default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// GetAll revalidates urls in parallel. The first failure cancels the
// remaining requests; results fetched so far are returned with the error.
func (c *Client) GetAll(ctx context.Context, urls []string, cfg BatchConfig) (map[string]*Result, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	start := time.Now()
	results := make(map[string]*Result, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			urlCtx, cancel := context.WithTimeout(gctx, cfg.Timeout)
			defer cancel()

			res, err := c.Get(urlCtx, url)
			if err != nil {
				return fmt.Errorf("get %s: %w", url, err)
			}

			mu.Lock()
			results[url] = res
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	cached := 0
	for _, res := range results {
		if res.FromCache {
			cached++
		}
	}
	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.
		Int("requested", len(urls)).
		Int("fetched", len(results)).
		Int("not_modified", cached).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return results, err
}
