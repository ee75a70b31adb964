// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codag_analyses_total",
			Help: "Total number of analysis requests by final status",
		},
		[]string{"status"},
	)

	AnalysesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codag_analyses_failed_total",
			Help: "Total number of failed analyses by error code",
		},
		[]string{"error_code"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "codag_analysis_duration_seconds",
			Help: "Duration of the full analysis pipeline in seconds",
		},
		[]string{"status"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codag_generation_attempts_total",
			Help: "Model service call attempts by outcome",
		},
		[]string{"outcome"},
	)

	TruncationRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codag_truncation_repairs_total",
			Help: "Truncated response repair attempts by result",
		},
		[]string{"result"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codag_cache_requests_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
