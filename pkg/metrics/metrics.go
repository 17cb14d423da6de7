// Package metrics is the reference for the Prometheus metrics exported by
// conditional-get. Collectors are declared with promauto in the package that
// owns them (freshness, negotiate, store, client) so that no package has to
// import a central registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all collectors are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Freshness (pkg/freshness):
//   - conditional_freshness_evaluations_total{verdict,reason} (Counter)
//   - conditional_malformed_timestamps_total{field} (Counter)
//
// Responses (pkg/negotiate):
//   - conditional_responses_total{status} (Counter): 200 vs 304
//   - conditional_response_bytes (Histogram): serialized body size
//   - conditional_serialization_errors_total (Counter)
//
// Store (pkg/store):
//   - conditional_store_operations_total{backend,operation} (Counter)
//   - conditional_store_errors_total{backend,operation} (Counter)
//
// Client (pkg/client):
//   - conditional_client_requests_total{status} (Counter)
//   - conditional_client_request_duration_seconds (Histogram): retries included
//   - conditional_client_revalidations_total{outcome} (Counter): not_modified vs modified
//   - conditional_client_retries_total{error_class} (Counter)
//
// Example Prometheus Queries:
//
//   # Share of requests answered with 304
//   sum(rate(conditional_responses_total{status="304"}[5m])) /
//   sum(rate(conditional_responses_total[5m]))
//
//   # Which validator is doing the work
//   sum by (reason) (rate(conditional_freshness_evaluations_total{verdict="fresh"}[5m]))
