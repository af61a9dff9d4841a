package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	decisionsTotal        *prometheus.CounterVec
	automaticCreditsTotal *prometheus.CounterVec
	historicalImportRows  *prometheus.CounterVec
	evidenceUploadsTotal  *prometheus.CounterVec
	evidenceUploadLatency prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the ledger service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_submissions_total",
			Help: "Manual credit submissions by outcome.",
		}, []string{"outcome"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_decisions_total",
			Help: "Moderator decisions by outcome.",
		}, []string{"outcome"})

		automaticCreditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_automatic_credits_total",
			Help: "Course completion notifications handled by the automatic credit bridge, by outcome.",
		}, []string{"outcome"})

		historicalImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_historical_import_rows_total",
			Help: "Historical points rows processed by import, by status.",
		}, []string{"status"})

		evidenceUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_evidence_uploads_total",
			Help: "Evidence uploads by outcome.",
		}, []string{"outcome"})

		evidenceUploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_evidence_upload_latency_seconds",
			Help:    "Latency distribution for evidence uploads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			decisionsTotal,
			automaticCreditsTotal,
			historicalImportRows,
			evidenceUploadsTotal,
			evidenceUploadLatency,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Submissions exposes the manual submission counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Decisions exposes the moderator decision counter.
func Decisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// AutomaticCredits exposes the bridge outcome counter.
func AutomaticCredits() *prometheus.CounterVec {
	RegisterMetrics()
	return automaticCreditsTotal
}

// HistoricalImportRows exposes the historical import row counter.
func HistoricalImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return historicalImportRows
}

// EvidenceUploads exposes the evidence upload counter.
func EvidenceUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return evidenceUploadsTotal
}

// EvidenceUploadLatency exposes the evidence upload latency histogram.
func EvidenceUploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return evidenceUploadLatency
}
