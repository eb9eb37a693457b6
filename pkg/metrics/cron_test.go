package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("sadad-expiry", 250*time.Millisecond)
	m.IncSuccess("sadad-expiry")
	m.IncFailure("sadad-expiry")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterFor(t, mfs, "marsos_cron_job_success", "sadad-expiry"); got != 1 {
		t.Fatalf("success counter = %f, want 1", got)
	}
	if got := counterFor(t, mfs, "marsos_cron_job_failure", "sadad-expiry"); got != 1 {
		t.Fatalf("failure counter = %f, want 1", got)
	}
	if got := histogramSumFor(t, mfs, "marsos_cron_job_duration_seconds", "sadad-expiry"); got <= 0 {
		t.Fatalf("duration sum = %f, want > 0", got)
	}
}

func TestCronJobMetricsLabelsUnnamedJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got := counterFor(t, mfs, "marsos_cron_job_success", "unknown"); got != 1 {
		t.Fatalf("unnamed job counter = %f, want 1 under label unknown", got)
	}
}

func TestCronJobMetricsNoOpWithoutRegisterer(t *testing.T) {
	m := NewCronJobMetrics(nil)
	m.ObserveDuration("sadad-expiry", time.Second)
	m.IncSuccess("sadad-expiry")
	m.IncFailure("sadad-expiry")

	var nilMetrics *CronJobMetrics
	nilMetrics.IncSuccess("sadad-expiry")
}

func counterFor(t *testing.T, mfs []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	return metricFor(t, mfs, name, job).GetCounter().GetValue()
}

func histogramSumFor(t *testing.T, mfs []*dto.MetricFamily, name, job string) float64 {
	t.Helper()
	return metricFor(t, mfs, name, job).GetHistogram().GetSampleSum()
}

func metricFor(t *testing.T, mfs []*dto.MetricFamily, name, job string) *dto.Metric {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == jobLabel && label.GetValue() == job {
					return metric
				}
			}
		}
	}
	t.Fatalf("metric %q with job=%q not found", name, job)
	return nil
}
