// Package metrics exposes job counters for prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tablesync/internal/syncerr"
)

// Recorder implements the engine's job recorder on prometheus collectors.
type Recorder struct {
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablesync",
				Name:      "jobs_total",
				Help:      "Total jobs run, by job kind and result.",
			}, []string{"job", "result"}),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tablesync",
				Name:      "job_duration_seconds",
				Help:      "Bucketed histogram of job run time (s).",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 16),
			}, []string{"job"}),

		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablesync",
				Name:      "rows_written_total",
				Help:      "Total rows written, by job kind.",
			}, []string{"job"}),
	}
	reg.MustRegister(r.jobs, r.duration, r.rows)
	return r
}

// JobFinished counts a job under "ok" or its failure kind.
func (r *Recorder) JobFinished(kind string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = syncerr.KindOf(err).String()
	}
	r.jobs.WithLabelValues(kind, result).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Recorder) RowsWritten(kind string, n int) {
	r.rows.WithLabelValues(kind).Add(float64(n))
}
