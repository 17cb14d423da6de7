// Package negotiate turns freshness verdicts into HTTP responses: 304 with
// validators only, or 200 with validators and a serialized body.
package negotiate

import (
	"net/http"
	"strconv"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
	"github.com/Sternrassler/conditional-get/pkg/logging"
	"github.com/rs/zerolog"
)

// Response header names.
const (
	HeaderLastModified  = "Last-Modified"
	HeaderETag          = "ETag"
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
)

// Serializer renders a value into a response body. Its errors are returned
// by the Coordinator unchanged.
type Serializer func(v any) ([]byte, error)

// Response is a negotiated response ready to be written.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NotModified reports whether the response is a 304.
func (r *Response) NotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

// WriteTo copies the response onto w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range r.Header {
		dst[key] = append([]string(nil), values...)
	}
	w.WriteHeader(r.StatusCode)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// Coordinator aggregates metadata, evaluates freshness and builds responses.
type Coordinator struct {
	evaluator *freshness.Evaluator
	etag      ETagFormat
	logger    zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithETagFormat selects strong (default) or weak ETag output.
func WithETagFormat(format ETagFormat) Option {
	return func(c *Coordinator) {
		c.etag = format
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator. A nil evaluator uses MD5 entity tags.
func New(evaluator *freshness.Evaluator, opts ...Option) *Coordinator {
	if evaluator == nil {
		evaluator = freshness.NewEvaluator(nil)
	}
	c := &Coordinator{
		evaluator: evaluator,
		etag:      Strong,
		logger:    logging.NewLogger("negotiate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheHeaders returns the Last-Modified and ETag headers for md. Absent
// fields produce no header.
func (c *Coordinator) CacheHeaders(md freshness.Metadata) http.Header {
	header := make(http.Header, 4)
	if md.HasLastModified {
		header.Set(HeaderLastModified, freshness.FormatHTTPDate(md.LastModified))
	}
	if md.HasKey {
		header.Set(HeaderETag, c.etag.Format(c.evaluator.ETag(md.CacheKey)))
	}
	return header
}

// Respond negotiates a response for v described by md. When the request is
// fresh the serializer is not called; otherwise it is called exactly once.
func (c *Coordinator) Respond(cond freshness.ConditionalRequest, md freshness.Metadata, v any, serialize Serializer, contentType string) (*Response, error) {
	header := c.CacheHeaders(md)

	verdict, err := c.evaluator.Evaluate(cond, md)
	if err != nil {
		return nil, err
	}

	if verdict == freshness.Fresh {
		Responses.WithLabelValues("304").Inc()
		c.logger.Debug().
			Str("etag", header.Get(HeaderETag)).
			Str("last_modified", header.Get(HeaderLastModified)).
			Msg("Not modified")
		return &Response{StatusCode: http.StatusNotModified, Header: header}, nil
	}

	body, err := serialize(v)
	if err != nil {
		SerializationErrors.Inc()
		return nil, err
	}

	header.Set(HeaderContentType, contentType)
	header.Set(HeaderContentLength, strconv.Itoa(len(body)))

	Responses.WithLabelValues("200").Inc()
	ResponseBytes.Observe(float64(len(body)))
	c.logger.Debug().
		Str("etag", header.Get(HeaderETag)).
		Int("bytes", len(body)).
		Msg("Serving full response")

	return &Response{StatusCode: http.StatusOK, Header: header, Body: body}, nil
}

// RespondEntity negotiates a response for a single entity.
func (c *Coordinator) RespondEntity(cond freshness.ConditionalRequest, entity any, serialize Serializer, contentType string) (*Response, error) {
	return c.Respond(cond, freshness.Of(entity), entity, serialize, contentType)
}

// RespondCollection negotiates a response for an ordered collection. The
// metadata comes from entities; v is what gets serialized, usually the
// typed slice entities were built from.
func (c *Coordinator) RespondCollection(cond freshness.ConditionalRequest, entities []any, v any, serialize Serializer, contentType string) (*Response, error) {
	return c.Respond(cond, freshness.Aggregate(entities...), v, serialize, contentType)
}
