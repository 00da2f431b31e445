package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the pipeline
type Metrics struct {
	// Orchestrator metrics
	JobsRunning   prometheus.Gauge
	JobsCompleted *prometheus.CounterVec // status: completed, failed, cancelled
	JobRetries    prometheus.Counter
	JobDuration   prometheus.Histogram

	// Event bus metrics
	EventsPublished *prometheus.CounterVec // type
	HandlerErrors   *prometheus.CounterVec // agent
	CascadeDrops    prometheus.Counter

	// Domain metrics
	RollupsComputed   prometheus.Counter
	RollupsDebounced  prometheus.Counter
	IssuesRaised      *prometheus.CounterVec // severity
	CommitmentsByPath *prometheus.CounterVec // path: auto, confirmation
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		JobsRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lifeos_jobs_running",
			Help: "Number of jobs currently executing",
		}),
		JobsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_jobs_total",
			Help: "Total jobs reaching a terminal state, by status",
		}, []string{"status"}),
		JobRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_job_retries_total",
			Help: "Total job retry attempts",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeos_job_duration_seconds",
			Help:    "Job execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_events_published_total",
			Help: "Domain events published, by type",
		}, []string{"type"}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_handler_errors_total",
			Help: "Agent handler errors during event delivery, by agent",
		}, []string{"agent"}),
		CascadeDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_cascade_drops_total",
			Help: "Events dropped by the cascade step-budget guard",
		}),

		RollupsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_rollups_computed_total",
			Help: "Fulfilment rollup rows computed",
		}),
		RollupsDebounced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_rollups_debounced_total",
			Help: "Rollup requests coalesced by the debounce window",
		}),
		IssuesRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_integrity_issues_total",
			Help: "Integrity issues raised, by severity",
		}, []string{"severity"}),
		CommitmentsByPath: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_commitments_total",
			Help: "Commitments created, by path (auto vs confirmation)",
		}, []string{"path"}),
	}
}
