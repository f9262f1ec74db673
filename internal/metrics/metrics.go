// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "verificapessoa"

var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_requests_total",
			Help:      "Search engine fetch attempts by outcome",
		},
		[]string{"engine", "outcome"}, // ok, blocked, rate_limited, http_error, transport_error, parse_error
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine"},
	)

	EngineResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_results_total",
			Help:      "Raw results parsed per engine",
		},
		[]string{"engine"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End to end background search duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Classified findings by category (placeholders excluded)",
		},
		[]string{"category"},
	)

	CreditsDebitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_debited_total",
			Help:      "Credits consumed by completed searches",
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EngineRequestsTotal,
			EngineRequestDuration,
			EngineResultsTotal,
			SearchDuration,
			FindingsTotal,
			CreditsDebitedTotal,
		)
	})
}
