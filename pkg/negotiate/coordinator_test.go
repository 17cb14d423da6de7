package negotiate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
)

type record struct {
	ID      string    `json:"id"`
	Version int       `json:"version"`
	Updated time.Time `json:"updated"`
}

func (r record) CacheKey() (string, bool) {
	return r.ID + ":" + strconv.Itoa(r.Version), r.ID != ""
}

func (r record) LastModified() (time.Time, bool) {
	return r.Updated, !r.Updated.IsZero()
}

// countingSerializer wraps JSON and counts invocations.
type countingSerializer struct {
	calls int
	err   error
}

func (s *countingSerializer) serialize(v any) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return JSON(v)
}

var updated = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

func TestRespond_Stale(t *testing.T) {
	c := New(nil)
	ser := &countingSerializer{}
	rec := record{ID: "r1", Version: 1, Updated: updated}

	resp, err := c.RespondEntity(freshness.ConditionalRequest{}, rec, ser.serialize, ContentTypeJSON)
	if err != nil {
		t.Fatalf("RespondEntity() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if ser.calls != 1 {
		t.Errorf("serializer called %d times, want 1", ser.calls)
	}
	if got := resp.Header.Get(HeaderContentType); got != ContentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get(HeaderContentLength); got != strconv.Itoa(len(resp.Body)) {
		t.Errorf("Content-Length = %q, body is %d bytes", got, len(resp.Body))
	}
	if got := resp.Header.Get(HeaderLastModified); got != "Tue, 02 Apr 2024 09:00:00 GMT" {
		t.Errorf("Last-Modified = %q", got)
	}
	key, _ := rec.CacheKey()
	if got, want := resp.Header.Get(HeaderETag), `"`+freshness.MD5Hash(key)+`"`; got != want {
		t.Errorf("ETag = %q, want %q", got, want)
	}
}

func TestRespond_FreshSkipsSerializer(t *testing.T) {
	c := New(nil)
	rec := record{ID: "r1", Version: 2, Updated: updated}
	key, _ := rec.CacheKey()

	tests := []struct {
		name string
		cond freshness.ConditionalRequest
	}{
		{
			name: "by tag",
			cond: freshness.ConditionalRequest{IfNoneMatch: []string{freshness.MD5Hash(key)}},
		},
		{
			name: "by wildcard",
			cond: freshness.ConditionalRequest{IfNoneMatch: []string{"*"}},
		},
		{
			name: "by time",
			cond: freshness.ConditionalRequest{
				IfModifiedSince:    freshness.FormatHTTPDate(updated),
				HasIfModifiedSince: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ser := &countingSerializer{}
			resp, err := c.RespondEntity(tt.cond, rec, ser.serialize, ContentTypeJSON)
			if err != nil {
				t.Fatalf("RespondEntity() error = %v", err)
			}
			if resp.StatusCode != http.StatusNotModified {
				t.Errorf("StatusCode = %d, want 304", resp.StatusCode)
			}
			if len(resp.Body) != 0 {
				t.Errorf("304 body has %d bytes", len(resp.Body))
			}
			if ser.calls != 0 {
				t.Errorf("serializer called %d times on fresh request", ser.calls)
			}
			if resp.Header.Get(HeaderETag) == "" || resp.Header.Get(HeaderLastModified) == "" {
				t.Errorf("304 missing cache headers: %v", resp.Header)
			}
			if resp.Header.Get(HeaderContentType) != "" {
				t.Error("304 should not carry Content-Type")
			}
		})
	}
}

func TestRespond_NoMetadata(t *testing.T) {
	c := New(nil)
	ser := &countingSerializer{}

	resp, err := c.RespondCollection(freshness.ConditionalRequest{IfNoneMatch: []string{"*"}}, nil, []record{}, ser.serialize, ContentTypeJSON)
	if err != nil {
		t.Fatalf("RespondCollection() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(HeaderETag) != "" || resp.Header.Get(HeaderLastModified) != "" {
		t.Errorf("empty collection should emit no cache headers: %v", resp.Header)
	}
	if string(resp.Body) != "[]" {
		t.Errorf("Body = %q, want []", resp.Body)
	}
}

func TestRespond_Collection(t *testing.T) {
	records := []record{
		{ID: "a", Version: 1, Updated: updated},
		{ID: "b", Version: 1, Updated: updated.Add(time.Hour)},
	}
	c := New(freshness.NewEvaluator(freshness.XXHash))

	resp, err := c.RespondCollection(freshness.ConditionalRequest{}, freshness.Entities(records), records, JSON, ContentTypeJSON)
	if err != nil {
		t.Fatalf("RespondCollection() error = %v", err)
	}

	ka, _ := records[0].CacheKey()
	kb, _ := records[1].CacheKey()
	if got, want := resp.Header.Get(HeaderETag), `"`+freshness.XXHash(ka+"-"+kb)+`"`; got != want {
		t.Errorf("ETag = %q, want %q", got, want)
	}
	if got, want := resp.Header.Get(HeaderLastModified), freshness.FormatHTTPDate(updated.Add(time.Hour)); got != want {
		t.Errorf("Last-Modified = %q, want %q", got, want)
	}
}

func TestRespond_SerializationErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	ser := &countingSerializer{err: boom}

	resp, err := New(nil).RespondEntity(freshness.ConditionalRequest{}, record{ID: "x"}, ser.serialize, ContentTypeJSON)
	if err != boom {
		t.Errorf("error = %v, want the serializer's error unchanged", err)
	}
	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
	if ser.calls != 1 {
		t.Errorf("serializer called %d times, want 1 (no retry)", ser.calls)
	}
}

func TestRespond_MalformedTimestamp(t *testing.T) {
	ser := &countingSerializer{}
	cond := freshness.ConditionalRequest{IfModifiedSince: "", HasIfModifiedSince: true}

	_, err := New(nil).RespondEntity(cond, record{ID: "x", Updated: updated}, ser.serialize, ContentTypeJSON)
	if !errors.Is(err, freshness.ErrMalformedTimestamp) {
		t.Errorf("error = %v, want ErrMalformedTimestamp", err)
	}
	if ser.calls != 0 {
		t.Errorf("serializer called %d times after evaluation failed", ser.calls)
	}
}

func TestETagFormat(t *testing.T) {
	if got := Strong.Format("abc"); got != `"abc"` {
		t.Errorf("Strong.Format = %s", got)
	}
	if got := Weak.Format("abc"); got != `W/"abc"` {
		t.Errorf("Weak.Format = %s", got)
	}

	c := New(nil, WithETagFormat(Weak))
	header := c.CacheHeaders(freshness.NewMetadata("k", time.Time{}))
	if got, want := header.Get(HeaderETag), `W/"`+freshness.MD5Hash("k")+`"`; got != want {
		t.Errorf("ETag = %q, want %q", got, want)
	}
}

func TestResponse_WriteTo(t *testing.T) {
	resp := &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Etag": []string{`"x"`}},
		Body:       []byte("hello"),
	}
	w := httptest.NewRecorder()

	if err := resp.WriteTo(w); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if w.Code != http.StatusOK || w.Body.String() != "hello" || w.Header().Get("ETag") != `"x"` {
		t.Errorf("recorded %d %q %v", w.Code, w.Body.String(), w.Header())
	}

	notModified := &Response{StatusCode: http.StatusNotModified, Header: http.Header{}}
	w = httptest.NewRecorder()
	if err := notModified.WriteTo(w); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 || !notModified.NotModified() {
		t.Errorf("recorded %d with %d body bytes", w.Code, w.Body.Len())
	}
}
