// Package store persists documents served through conditional GET.
// Every write bumps a document's revision and modification time, which
// are what its cache key and Last-Modified are derived from.
package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document is the unit of content served by docserver.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CacheKey is "<id>:<revision>". Documents without an ID have no key.
func (d Document) CacheKey() (string, bool) {
	if d.ID == "" {
		return "", false
	}
	return d.ID + ":" + strconv.FormatInt(d.Revision, 10), true
}

// LastModified is UpdatedAt, absent while the document was never stored.
func (d Document) LastModified() (time.Time, bool) {
	return d.UpdatedAt, !d.UpdatedAt.IsZero()
}

// Validate checks the fields a caller controls.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if strings.ContainsAny(d.ID, ":/ ") {
		return fmt.Errorf("%w: id %q contains reserved characters", ErrInvalidDocument, d.ID)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDocument)
	}
	return nil
}
