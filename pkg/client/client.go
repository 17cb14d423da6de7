// Package client provides an HTTP client that revalidates previously seen
// responses with conditional requests and retries transient failures.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
	"github.com/Sternrassler/conditional-get/pkg/logging"
	"github.com/rs/zerolog"
)

// Client fetches resources and remembers their validators per URL.
type Client struct {
	httpClient *http.Client
	validators *validatorCache
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// HTTPClient performs the requests. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// User-Agent header sent with every request.
	UserAgent string

	// Retry controls backoff for 5xx and network errors.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  userAgent,
		Retry:      DefaultRetryConfig(),
	}
}

// Result is a usable response. On a 304 the body and headers come from the
// earlier 200 and FromCache is set.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FromCache  bool
}

// New creates a new Client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Retry.MaxAttempts < 0 {
		return nil, fmt.Errorf("retry max attempts must be >= 0 (got %d)", cfg.Retry.MaxAttempts)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		validators: newValidatorCache(),
		config:     cfg,
		logger:     logging.NewLogger("conditional-client"),
	}, nil
}

// Get fetches url, sending If-None-Match or If-Modified-Since when an
// earlier response for the same URL carried validators.
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	cached := c.validators.get(url)
	var result *Result

	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() (ErrorClass, error) {
		r, class, err := c.do(ctx, url, cached)
		if err != nil {
			return class, err
		}
		result = r
		return "", nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if !errors.Is(err, ErrContextCancelled) {
				err = fmt.Errorf("%w: %w", ErrContextCancelled, err)
			}
		}
		return nil, err
	}
	return result, nil
}

// Forget drops the remembered response for url.
func (c *Client) Forget(url string) {
	c.validators.set(url, nil)
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, url string, cached *entry) (*Result, ErrorClass, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ErrorClassClient, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if cached.hasValidators() {
		addConditionalHeaders(req, cached)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return nil, ErrorClassNetwork, &StatusError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		return nil, ErrorClassNetwork, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}
	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified {
		if cached == nil {
			return nil, ErrorClassClient, &StatusError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Message:    "not modified without a cached response",
			}
		}
		revalidationsTotal.WithLabelValues("not_modified").Inc()
		c.logger.Debug().Str("url", url).Msg("Response not modified")

		// Keep refreshed validators for the next revalidation.
		refreshed := &entry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get(freshness.HeaderLastModified),
			header:       mergeHeaders(cached.header, resp.Header),
			body:         cached.body,
		}
		if refreshed.etag == "" {
			refreshed.etag = cached.etag
		}
		if refreshed.lastModified == "" {
			refreshed.lastModified = cached.lastModified
		}
		c.validators.set(url, refreshed)

		return &Result{
			StatusCode: resp.StatusCode,
			Header:     refreshed.header.Clone(),
			Body:       bytes.Clone(cached.body),
			FromCache:  true,
		}, "", nil
	}

	if class := classify(resp.StatusCode, nil); class != "" {
		return nil, class, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	if cached.hasValidators() {
		revalidationsTotal.WithLabelValues("modified").Inc()
	}
	if resp.StatusCode == http.StatusOK {
		c.validators.set(url, entryFromResponse(resp, bytes.Clone(body)))
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, "", nil
}

// mergeHeaders returns a copy of base with the values present in update
// replacing it, as a 304 may carry refreshed validators.
func mergeHeaders(base, update http.Header) http.Header {
	merged := base.Clone()
	if merged == nil {
		merged = make(http.Header)
	}
	for k, v := range update {
		merged[k] = append([]string(nil), v...)
	}
	return merged
}
