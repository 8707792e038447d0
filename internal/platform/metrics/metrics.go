package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PipelineRuns        prometheus.Counter
	PipelineRunsSkipped prometheus.Counter
	ScoutsChecked       prometheus.Counter
	FindingsLogged      prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PipelineRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_pipeline_runs_total",
			Help: "Total number of completed pipeline runs",
		}),
		PipelineRunsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_pipeline_runs_skipped_total",
			Help: "Total number of pipeline runs skipped because another run held the guard",
		}),
		ScoutsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_scouts_checked_total",
			Help: "Total number of per-scout drift checks evaluated",
		}),
		FindingsLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_drift_findings_total",
			Help: "Total number of drift findings written to the audit log",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_notifications_sent_total",
			Help: "Total number of notifications delivered to the push transport",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathfinder_notifications_failed_total",
			Help: "Total number of notification deliveries that failed",
		}),
	}
}
