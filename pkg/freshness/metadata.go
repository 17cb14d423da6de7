package freshness

import (
	"net/http"
	"time"
)

// Keyed is implemented by entities that expose a content-derived cache key.
// The boolean is false when the entity has no key to offer.
type Keyed interface {
	CacheKey() (string, bool)
}

// Timestamped is implemented by entities that know when they last changed.
// The boolean is false when the entity has no timestamp to offer.
type Timestamped interface {
	LastModified() (time.Time, bool)
}

// Provider is implemented by entities that report their metadata as a
// single value instead of through Keyed and Timestamped.
type Provider interface {
	CacheMetadata() Metadata
}

// Metadata is the cache key and modification time representing one entity
// or a group of entities.
type Metadata struct {
	// CacheKey is the (possibly composite) cache key. Only meaningful when HasKey is set.
	CacheKey string
	HasKey   bool

	// LastModified is the most recent modification time. Only meaningful when HasLastModified is set.
	LastModified    time.Time
	HasLastModified bool
}

// NewMetadata builds Metadata, treating an empty key or a zero time as absent.
func NewMetadata(key string, lastModified time.Time) Metadata {
	return Metadata{
		CacheKey:        key,
		HasKey:          key != "",
		LastModified:    lastModified,
		HasLastModified: !lastModified.IsZero(),
	}
}

// IsEmpty reports whether neither a key nor a timestamp is present.
func (m Metadata) IsEmpty() bool {
	return !m.HasKey && !m.HasLastModified
}

// FormatHTTPDate renders t in the RFC 7231 IMF-fixdate format used by
// Last-Modified and If-Modified-Since.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

func keyOf(entity any) (string, bool) {
	switch e := entity.(type) {
	case nil:
		return "", false
	case Metadata:
		return e.CacheKey, e.HasKey
	case *Metadata:
		if e == nil {
			return "", false
		}
		return e.CacheKey, e.HasKey
	case Provider:
		md := e.CacheMetadata()
		return md.CacheKey, md.HasKey
	case Keyed:
		return e.CacheKey()
	default:
		return "", false
	}
}

func lastModifiedOf(entity any) (time.Time, bool) {
	switch e := entity.(type) {
	case nil:
		return time.Time{}, false
	case Metadata:
		return e.LastModified, e.HasLastModified
	case *Metadata:
		if e == nil {
			return time.Time{}, false
		}
		return e.LastModified, e.HasLastModified
	case Provider:
		md := e.CacheMetadata()
		return md.LastModified, md.HasLastModified
	case Timestamped:
		return e.LastModified()
	default:
		return time.Time{}, false
	}
}
