package jobxconsole

import (
	"context"

	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/logx"
)

// Sink writes scheduler telemetry to the log. Intended for development.
type Sink struct{}

// NewSink creates a console telemetry sink.
func NewSink() *Sink {
	return &Sink{}
}

// ReportStats logs a stats snapshot.
func (s *Sink) ReportStats(_ context.Context, st jobx.SchedulerStats) error {
	logx.WithFields(logx.Fields{
		"total":              st.Total,
		"pending":            st.Pending,
		"running":            st.Running,
		"completed":          st.Completed,
		"failed":             st.Failed,
		"success_rate":       st.SuccessRate,
		"circuit_state":      st.CircuitState.String(),
		"available_capacity": st.AvailableCapacity,
		"under_backpressure": st.UnderBackpressure,
	}).Info("jobx/console: scheduler stats")
	return nil
}

// ReportJobMetrics logs the outcome of one job.
func (s *Sink) ReportJobMetrics(_ context.Context, ev jobx.JobMetricsEvent) error {
	entry := logx.WithFields(logx.Fields{
		"job_id":             ev.JobID,
		"job_type":           ev.JobType,
		"status":             string(ev.Status),
		"retry_count":        ev.RetryCount,
		"processing_time_ms": ev.ProcessingTime.Milliseconds(),
	})
	for k, v := range ev.ResourceUsage {
		entry = entry.WithField("usage_"+k, v)
	}
	if ev.Error != "" {
		entry = entry.WithField("error", ev.Error)
	}
	entry.Debug("jobx/console: job finished")
	return nil
}
