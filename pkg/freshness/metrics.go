package freshness

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Evaluations tracks freshness verdicts and which predicate produced them.
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_freshness_evaluations_total",
			Help: "Total number of freshness evaluations by verdict and reason",
		},
		[]string{"verdict", "reason"},
	)

	// MalformedTimestamps tracks evaluations aborted by unparsable dates.
	MalformedTimestamps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_malformed_timestamps_total",
			Help: "Total number of evaluations aborted by a malformed timestamp",
		},
		[]string{"field"}, // "If-Modified-Since", "Last-Modified"
	)
)
