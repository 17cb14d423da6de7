package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidDocument indicates a document failed validation or could not be decoded.
	ErrInvalidDocument = errors.New("invalid document")
)

// Store is implemented by the document backends.
type Store interface {
	// Get returns the document with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)

	// List returns all documents ordered by ID. An empty store yields an
	// empty, non-nil slice.
	List(ctx context.Context) ([]Document, error)

	// Put creates or replaces a document. The stored revision is the
	// previous revision plus one and UpdatedAt is set to the store's clock;
	// caller-supplied values for both are ignored.
	Put(ctx context.Context, doc Document) (Document, error)

	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Clock returns the current time. Stores use it to stamp UpdatedAt.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
