package freshness

import (
	"strings"
	"time"
)

// KeySeparator joins member keys into a composite cache key.
const KeySeparator = "-"

// AggregateKey joins the present cache keys of entities, in order, with
// KeySeparator. The result depends on order. Returns false when no entity
// reports a key.
func AggregateKey(entities []any) (string, bool) {
	keys := make([]string, 0, len(entities))
	for _, entity := range entities {
		if key, ok := keyOf(entity); ok {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return "", false
	}
	return strings.Join(keys, KeySeparator), true
}

// AggregateLastModified returns the most recent modification time reported
// by entities. Returns false when no entity reports one.
func AggregateLastModified(entities []any) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, entity := range entities {
		t, ok := lastModifiedOf(entity)
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// Aggregate computes the Metadata for an ordered group of entities.
func Aggregate(entities ...any) Metadata {
	var md Metadata
	md.CacheKey, md.HasKey = AggregateKey(entities)
	md.LastModified, md.HasLastModified = AggregateLastModified(entities)
	return md
}

// Of computes the Metadata for a single entity.
func Of(entity any) Metadata {
	return Aggregate(entity)
}

// Entities converts a typed slice into the []any form taken by the
// aggregation functions, preserving order.
func Entities[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
