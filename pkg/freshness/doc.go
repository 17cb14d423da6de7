// Package freshness decides whether a conditional HTTP request can be
// answered with 304 Not Modified.
//
// The package has two halves:
//
//   - Aggregation reduces one entity or an ordered collection of entities to
//     a single Metadata value: a composite cache key (present keys joined
//     with "-", in input order) and the most recent modification time.
//   - Evaluation compares that Metadata against the If-Modified-Since and
//     If-None-Match headers of a request and returns Fresh or Stale.
//
// # Entities
//
// An entity opts into caching by implementing Keyed, Timestamped, both or
// neither. Types that cannot carry the methods can be wrapped by an adapter
// that returns a Metadata value; Metadata is itself accepted as an entity.
//
//	type Article struct {
//		ID       string
//		Revision int
//		Updated  time.Time
//	}
//
//	func (a Article) CacheKey() (string, bool) {
//		return fmt.Sprintf("%s:%d", a.ID, a.Revision), a.ID != ""
//	}
//
//	func (a Article) LastModified() (time.Time, bool) {
//		return a.Updated, !a.Updated.IsZero()
//	}
//
// # Evaluation
//
//	evaluator := freshness.NewEvaluator(freshness.MD5Hash)
//	md := freshness.Aggregate(freshness.Entities(articles)...)
//	verdict, err := evaluator.Evaluate(freshness.FromHeader(r.Header), md)
//	if errors.Is(err, freshness.ErrMalformedTimestamp) {
//		// treat as stale
//	}
//
// A request is fresh when the entity was not modified after
// If-Modified-Since, or when the hashed cache key (or "*") appears in
// If-None-Match. A request without either header is always stale.
//
// # Metrics
//
//   - conditional_freshness_evaluations_total{verdict,reason}
//   - conditional_malformed_timestamps_total{field}
package freshness
