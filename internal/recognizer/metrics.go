package recognizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pass outcomes.
const (
	outcomeResults   = "results"
	outcomeEmpty     = "empty"
	outcomeCancelled = "cancelled"
	outcomeFault     = "fault"
	outcomeRejected  = "rejected"
)

// Back-end attempt outcomes.
const (
	attemptMatch   = "match"
	attemptNoMatch = "no_match"
	attemptFault   = "fault"
)

var (
	passesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_recognitions_total",
			Help: "Total number of recognition passes",
		},
		[]string{"outcome"},
	)

	passDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docscan_recognition_duration_seconds",
			Help:    "Recognition pass duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	backendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_backend_attempts_total",
			Help: "Total number of back-end attempts",
		},
		[]string{"kind", "outcome"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docscan_backend_duration_seconds",
			Help:    "Back-end attempt duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	resultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_results_total",
			Help: "Total number of results returned, by kind",
		},
		[]string{"kind"},
	)
)
