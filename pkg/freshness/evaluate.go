package freshness

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sternrassler/conditional-get/pkg/logging"
	"github.com/rs/zerolog"
)

// HeaderLastModified names the stored timestamp in TimestampError.
const HeaderLastModified = "Last-Modified"

// Verdict is the outcome of a freshness evaluation.
type Verdict int

const (
	// Stale means the full representation must be sent.
	Stale Verdict = iota

	// Fresh means the client's copy is current and 304 may be sent.
	Fresh
)

// String returns "fresh" or "stale".
func (v Verdict) String() string {
	if v == Fresh {
		return "fresh"
	}
	return "stale"
}

// Reason records which predicate made a request fresh.
type Reason string

const (
	ReasonNone Reason = "none"
	ReasonTime Reason = "time"
	ReasonTag  Reason = "tag"
	ReasonBoth Reason = "both"
)

// Evaluator compares conditional request headers with entity metadata.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	hash   HashFunc
	logger zerolog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator that derives entity tags with hash.
// A nil hash selects MD5Hash.
func NewEvaluator(hash HashFunc, opts ...Option) *Evaluator {
	if hash == nil {
		hash = MD5Hash
	}
	e := &Evaluator{
		hash:   hash,
		logger: logging.NewLogger("freshness"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ETag returns the unquoted entity tag token for a cache key.
func (e *Evaluator) ETag(cacheKey string) string {
	return e.hash(cacheKey)
}

// Evaluate decides whether cond can be answered with 304 for md.
// It returns an error wrapping ErrMalformedTimestamp when a timestamp
// that takes part in the comparison cannot be parsed.
func (e *Evaluator) Evaluate(cond ConditionalRequest, md Metadata) (Verdict, error) {
	verdict, _, err := e.EvaluateWithReason(cond, md)
	return verdict, err
}

// EvaluateWithReason is Evaluate plus the predicate that fired.
func (e *Evaluator) EvaluateWithReason(cond ConditionalRequest, md Metadata) (Verdict, Reason, error) {
	// Nothing to compare: neither predicate can hold and no header is parsed.
	if !cond.IsConditional() || md.IsEmpty() {
		Evaluations.WithLabelValues(Stale.String(), string(ReasonNone)).Inc()
		return Stale, ReasonNone, nil
	}

	byTime, err := e.freshByTime(cond, md)
	if err != nil {
		var tsErr *TimestampError
		if errors.As(err, &tsErr) {
			MalformedTimestamps.WithLabelValues(tsErr.Field).Inc()
		}
		e.logger.Debug().Err(err).Msg("Freshness evaluation aborted")
		return Stale, ReasonNone, err
	}
	byTag, etag := e.freshByTag(cond, md)

	verdict, reason := Stale, ReasonNone
	switch {
	case byTime && byTag:
		verdict, reason = Fresh, ReasonBoth
	case byTime:
		verdict, reason = Fresh, ReasonTime
	case byTag:
		verdict, reason = Fresh, ReasonTag
	}

	Evaluations.WithLabelValues(verdict.String(), string(reason)).Inc()

	ev := e.logger.Debug().
		Str("verdict", verdict.String()).
		Str("reason", string(reason))
	if cond.HasIfModifiedSince {
		ev = ev.Str("if_modified_since", cond.IfModifiedSince)
	}
	if md.HasLastModified {
		ev = ev.Time("last_modified", md.LastModified)
	}
	if etag != "" {
		ev = ev.Str("etag", etag)
	}
	ev.Strs("if_none_match", cond.IfNoneMatch).Msg("Freshness evaluated")

	return verdict, reason, nil
}

// freshByTime holds when the entity was not modified after If-Modified-Since.
// Equal timestamps count as fresh.
func (e *Evaluator) freshByTime(cond ConditionalRequest, md Metadata) (bool, error) {
	if !cond.HasIfModifiedSince || !md.HasLastModified {
		return false, nil
	}

	since, err := http.ParseTime(strings.TrimSpace(cond.IfModifiedSince))
	if err != nil {
		return false, &TimestampError{Field: HeaderIfModifiedSince, Value: cond.IfModifiedSince, Err: err}
	}

	// Round-trip through the wire format: truncates to whole seconds and
	// rejects times an HTTP-date cannot represent.
	wire := FormatHTTPDate(md.LastModified)
	modified, err := http.ParseTime(wire)
	if err != nil {
		return false, &TimestampError{Field: HeaderLastModified, Value: wire, Err: err}
	}

	return !modified.After(since), nil
}

// freshByTag holds when If-None-Match contains the wildcard or the hashed
// cache key. The computed tag is returned for logging.
func (e *Evaluator) freshByTag(cond ConditionalRequest, md Metadata) (bool, string) {
	if len(cond.IfNoneMatch) == 0 || !md.HasKey {
		return false, ""
	}

	etag := e.hash(md.CacheKey)
	for _, candidate := range cond.IfNoneMatch {
		if candidate == Wildcard || candidate == etag {
			return true, etag
		}
	}
	return false, etag
}
