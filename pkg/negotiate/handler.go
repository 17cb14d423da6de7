package negotiate

import (
	"errors"
	"net/http"

	"github.com/Sternrassler/conditional-get/pkg/freshness"
)

// ErrNotFound is returned by a LoadFunc when the requested object does not
// exist. The handler answers 404.
var ErrNotFound = errors.New("not found")

// LoadFunc fetches the object for a request together with its metadata.
type LoadFunc func(r *http.Request) (v any, md freshness.Metadata, err error)

// Handler adapts the coordinator to net/http. A malformed If-Modified-Since
// does not fail the request: the response is renegotiated without
// conditional headers, which always yields a full 200.
func (c *Coordinator) Handler(load LoadFunc, serialize Serializer, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, md, err := load(r)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			c.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Load failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		cond := freshness.FromHeader(r.Header)
		resp, err := c.Respond(cond, md, v, serialize, contentType)
		if errors.Is(err, freshness.ErrMalformedTimestamp) {
			c.logger.Warn().
				Err(err).
				Str("path", r.URL.Path).
				Msg("Ignoring conditional headers, serving full response")
			resp, err = c.Respond(freshness.ConditionalRequest{}, md, v, serialize, contentType)
		}
		if err != nil {
			c.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Response negotiation failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if r.Method == http.MethodHead {
			resp.Body = nil
		}
		if err := resp.WriteTo(w); err != nil {
			c.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
		}
	})
}
