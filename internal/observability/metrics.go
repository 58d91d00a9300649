// Package observability exposes Prometheus metrics for the sync pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "straviz",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of completed sync runs.",
	})
	syncRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "straviz",
		Subsystem: "sync",
		Name:      "records_total",
		Help:      "Number of activity records processed across all sync runs.",
	})
	syncDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "straviz",
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of completed sync runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "straviz",
		Subsystem: "sync",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed sync run.",
	})
)

func init() {
	prometheus.MustRegister(syncRunsTotal, syncRecordsTotal, syncDurationSeconds, lastSyncGauge)
}

// RecordSyncCompleted updates the sync watermark metrics after a committed run.
func RecordSyncCompleted(records int, elapsed time.Duration) {
	syncRunsTotal.Inc()
	syncRecordsTotal.Add(float64(records))
	syncDurationSeconds.Observe(elapsed.Seconds())
	lastSyncGauge.Set(float64(time.Now().Unix()))
}
