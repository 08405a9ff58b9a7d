package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	taskRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablefetch_task_runs_total",
			Help: "Total number of fetch task runs by outcome.",
		},
		[]string{"connection_id", "status"},
	)

	rowsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablefetch_rows_fetched_total",
			Help: "Total number of rows returned to callers.",
		},
		[]string{"connection_id"},
	)

	fetchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablefetch_fetch_duration_seconds",
			Help:    "Latency of the remote table data fetch.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connection_id"},
	)
)

func init() {
	prometheus.MustRegister(taskRunsTotal, rowsFetchedTotal, fetchDurationSeconds)
}

func ObserveTaskRun(connectionID, status string, rows int, duration time.Duration) {
	taskRunsTotal.WithLabelValues(connectionID, status).Inc()
	if rows > 0 {
		rowsFetchedTotal.WithLabelValues(connectionID).Add(float64(rows))
	}
	fetchDurationSeconds.WithLabelValues(connectionID).Observe(duration.Seconds())
}
