package client

import (
	"net/http"
	"sync"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
)

// entry is the last usable response seen for a URL.
type entry struct {
	etag         string
	lastModified string
	header       http.Header
	body         []byte
}

// hasValidators reports whether a conditional request can be made.
func (e *entry) hasValidators() bool {
	return e != nil && (e.etag != "" || e.lastModified != "")
}

// addConditionalHeaders sets If-None-Match, or If-Modified-Since when no
// ETag is known. Last-Modified has one-second resolution, so a second
// update within the same second would be reported as unchanged by time.
func addConditionalHeaders(req *http.Request, e *entry) {
	if e.etag != "" {
		req.Header.Set(freshness.HeaderIfNoneMatch, e.etag)
		return
	}
	if e.lastModified != "" {
		req.Header.Set(freshness.HeaderIfModifiedSince, e.lastModified)
	}
}

// entryFromResponse captures validators and body of a 200 response.
// Returns nil when the response carries no validators.
func entryFromResponse(resp *http.Response, body []byte) *entry {
	e := &entry{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get(freshness.HeaderLastModified),
		header:       resp.Header.Clone(),
		body:         body,
	}
	if !e.hasValidators() {
		return nil
	}
	return e
}

// validatorCache maps URLs to their last entry. Safe for concurrent use.
type validatorCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newValidatorCache() *validatorCache {
	return &validatorCache{entries: make(map[string]*entry)}
}

func (c *validatorCache) get(url string) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[url]
}

func (c *validatorCache) set(url string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e == nil {
		delete(c.entries, url)
		return
	}
	c.entries[url] = e
}
