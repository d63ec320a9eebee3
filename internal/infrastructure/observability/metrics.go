package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors exposed on /metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annuaire_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_searches_total",
			Help: "Structure searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchResultCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annuaire_search_results",
			Help:    "Number of structures returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	AssociationMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_association_mutations_total",
			Help: "Association attach/update/detach calls by kind and outcome",
		},
		[]string{"kind", "operation", "outcome"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	IndexOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_index_operations_total",
			Help: "Search index writes by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Outcome returns the label value used for an operation result
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
