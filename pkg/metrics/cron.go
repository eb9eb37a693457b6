package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const jobLabel = "job"

// CronJobMetrics tracks per-job run counts and durations for the scheduled
// workers (invoice expiry, reconciliation sweeps, cart cleanup).
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the job metrics on reg. A nil registerer yields
// a no-op recorder so workers can run with metrics disabled.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marsos",
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of scheduled job runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{jobLabel}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marsos",
			Subsystem: "cron",
			Name:      "job_success",
			Help:      "Scheduled job runs that completed without error.",
		}, []string{jobLabel}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marsos",
			Subsystem: "cron",
			Name:      "job_failure",
			Help:      "Scheduled job runs that returned an error.",
		}, []string{jobLabel}),
	}
	reg.MustRegister(m.duration, m.success, m.failure)
	return m
}

// ObserveDuration records how long a run of the named job took.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(jobLabelValue(job)).Observe(duration.Seconds())
}

// IncSuccess counts a completed run of the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(jobLabelValue(job)).Inc()
}

// IncFailure counts a failed run of the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(jobLabelValue(job)).Inc()
}

// jobLabelValue keeps an unnamed job from producing an empty label value,
// which would register as a separate series that dashboards cannot query.
func jobLabelValue(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
