package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"

	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	WorkUnitOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timebill_work_unit_outcomes_total",
			Help: "Work unit writes by outcome",
		},
		[]string{"outcome"},
	)

	BillDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timebill_bill_deletions_total",
			Help: "Bill deletions by result",
		},
		[]string{"result"},
	)

	RateResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timebill_rate_resolutions_total",
			Help: "Rate lookups by result",
		},
		[]string{"result"},
	)

	// Seconds. Path is the route pattern, not the raw URL.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timebill_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordWorkUnitOutcome(outcome string) {
	WorkUnitOutcomes.WithLabelValues(outcome).Inc()
}

func RecordBillDeletion(result string) {
	BillDeletions.WithLabelValues(result).Inc()
}

func RecordRateResolution(result string) {
	RateResolutions.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
