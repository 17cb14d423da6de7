package negotiate

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
)

func loadRecord(rec record) LoadFunc {
	return func(r *http.Request) (any, freshness.Metadata, error) {
		return rec, freshness.Of(rec), nil
	}
}

func TestHandler_RoundTrip(t *testing.T) {
	rec := record{ID: "doc", Version: 3, Updated: updated}
	h := New(nil).Handler(loadRecord(rec), JSON, ContentTypeJSON)

	// First request: full body with validators.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"doc","version":3,"updated":"2024-04-02T09:00:00Z"}`, w.Body.String())

	etag := w.Header().Get("ETag")
	lastModified := w.Header().Get("Last-Modified")
	require.NotEmpty(t, etag)
	require.Equal(t, "Tue, 02 Apr 2024 09:00:00 GMT", lastModified)
	require.Equal(t, fmt.Sprint(w.Body.Len()), w.Header().Get("Content-Length"))

	// Revalidate with the ETag.
	req := httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotModified, w.Code)
	require.Empty(t, w.Body.String())
	require.Equal(t, etag, w.Header().Get("ETag"))

	// Revalidate with the date.
	req = httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-Modified-Since", lastModified)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotModified, w.Code)
}

func TestHandler_StaleValidators(t *testing.T) {
	rec := record{ID: "doc", Version: 4, Updated: updated}
	h := New(nil).Handler(loadRecord(rec), JSON, ContentTypeJSON)

	req := httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-None-Match", `"outdated", W/"also-outdated"`)
	req.Header.Set("If-Modified-Since", updated.Add(-time.Second).Format(http.TimeFormat))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.String())
}

func TestHandler_MalformedDateFallsBackToFullResponse(t *testing.T) {
	rec := record{ID: "doc", Version: 1, Updated: updated}
	key, _ := rec.CacheKey()
	h := New(nil).Handler(loadRecord(rec), JSON, ContentTypeJSON)

	req := httptest.NewRequest(http.MethodGet, "/doc", nil)
	req.Header.Set("If-Modified-Since", "last tuesday")
	// A matching tag does not rescue the request: evaluation aborted.
	req.Header.Set("If-None-Match", `"`+freshness.MD5Hash(key)+`"`)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.String())
	require.NotEmpty(t, w.Header().Get("ETag"))
}

func TestHandler_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("document x: %w", ErrNotFound), want: http.StatusNotFound},
		{name: "other", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			load := func(r *http.Request) (any, freshness.Metadata, error) {
				return nil, freshness.Metadata{}, tt.err
			}
			w := httptest.NewRecorder()
			New(nil).Handler(load, JSON, ContentTypeJSON).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandler_SerializationError(t *testing.T) {
	failing := func(v any) ([]byte, error) { return nil, errors.New("cannot encode") }
	h := New(nil).Handler(loadRecord(record{ID: "doc"}), failing, ContentTypeJSON)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doc", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_Head(t *testing.T) {
	h := New(nil).Handler(loadRecord(record{ID: "doc", Updated: updated}), JSON, ContentTypeJSON)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/doc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
	require.NotEmpty(t, w.Header().Get("Content-Length"))
}
