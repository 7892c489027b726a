// Package metrics provides Prometheus metrics for HTTP serving and the
// reconciliation pipeline:
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//   - reconciliation_runs_total: Counter with a result label (ok, format_error,
//     schema_error, reconciliation_error, internal_error)
//   - reconciled_records_total and dead_stock_records_total
//
// All metrics register with the Prometheus default registry at package init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	ReconciliationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Reconciliation runs by result",
		},
		[]string{"result"},
	)

	ReconciledRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciled_records_total",
			Help: "Reconciled records produced across all runs",
		},
	)

	DeadStockRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dead_stock_records_total",
			Help: "Records classified as dead stock across all runs",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ReconciliationRuns)
	prometheus.MustRegister(ReconciledRecordsTotal)
	prometheus.MustRegister(DeadStockRecordsTotal)
}
