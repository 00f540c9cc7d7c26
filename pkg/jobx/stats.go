package jobx

import (
	"context"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/asyncx"
	"github.com/Abraxas-365/jobsched/pkg/logx"
)

// SchedulerStats is a point-in-time snapshot of the scheduler. SlotsInUse
// can exceed Running while cancelled jobs are still returning; Retained is
// the number of terminal jobs kept for lookup.
type SchedulerStats struct {
	Total             int          `json:"total"`
	Pending           int          `json:"pending"`
	Running           int          `json:"running"`
	SlotsInUse        int          `json:"slots_in_use"`
	Completed         int          `json:"completed"`
	Failed            int          `json:"failed"`
	Cancelled         int          `json:"cancelled"`
	Retrying          int          `json:"retrying"`
	Retained          int          `json:"retained"`
	SuccessRate       float64      `json:"success_rate"`
	CircuitState      CircuitState `json:"circuit_state"`
	FailureCount      int          `json:"failure_count"`
	AvailableCapacity int          `json:"available_capacity"`
	MaxConcurrentJobs int          `json:"max_concurrent_jobs"`
	UnderBackpressure bool         `json:"under_backpressure"`
	Timestamp         time.Time    `json:"timestamp"`
}

// JobMetricsEvent is emitted once for every job that reaches a terminal state.
type JobMetricsEvent struct {
	JobID          string             `json:"job_id"`
	JobType        string             `json:"job_type"`
	Priority       Priority           `json:"priority"`
	Status         JobStatus          `json:"status"`
	RetryCount     int                `json:"retry_count"`
	ProcessingTime time.Duration      `json:"processing_time"`
	ResourceUsage  map[string]float64 `json:"resource_usage,omitempty"`
	Error          string             `json:"error,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// TelemetrySink receives stats snapshots and per-job metrics.
// Calls happen off the dispatch path; a slow or failing sink never delays scheduling.
type TelemetrySink interface {
	ReportStats(ctx context.Context, stats SchedulerStats) error
	ReportJobMetrics(ctx context.Context, event JobMetricsEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) ReportStats(context.Context, SchedulerStats) error       { return nil }
func (NopSink) ReportJobMetrics(context.Context, JobMetricsEvent) error { return nil }

// GetStats returns a consistent snapshot of the scheduler.
func (s *Scheduler) GetStats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Scheduler) statsLocked() SchedulerStats {
	cb := s.breaker.Snapshot()
	running := len(s.active)
	st := SchedulerStats{
		Total:             s.total,
		Pending:           s.queue.Len(),
		Running:           running,
		SlotsInUse:        s.limiter.InUse(),
		Completed:         s.completed,
		Failed:            s.failed,
		Cancelled:         s.cancelled,
		Retrying:          len(s.retrying),
		Retained:          s.history.len(),
		CircuitState:      cb.State,
		FailureCount:      cb.FailureCount,
		AvailableCapacity: s.limiter.Capacity() - running,
		MaxConcurrentJobs: s.limiter.Capacity(),
		UnderBackpressure: s.queue.Len() >= s.opts.BackpressureThreshold,
		Timestamp:         s.now(),
	}
	if st.AvailableCapacity < 0 {
		st.AvailableCapacity = 0
	}
	if s.total > 0 {
		st.SuccessRate = float64(s.completed) / float64(s.total)
	}
	return st
}

// statsLoop pushes a snapshot to the sink every StatsInterval until ctx is done.
func (s *Scheduler) statsLoop(ctx context.Context) {
	if s.opts.StatsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pushStats(ctx, s.GetStats())
		}
	}
}

// pushStats is skipped once the scheduler is stopping.
func (s *Scheduler) pushStats(ctx context.Context, st SchedulerStats) {
	sink, timeout := s.sink, s.opts.TelemetryTimeout
	asyncx.DoCtx(ctx, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := sink.ReportStats(ctx, st); err != nil {
			logx.WithError(err).Warn("jobx: telemetry stats push failed")
		}
	})
}

func (s *Scheduler) pushJobMetrics(job *Job) {
	ev := JobMetricsEvent{
		JobID:      job.ID,
		JobType:    job.Type,
		Priority:   job.Priority,
		Status:     job.Status,
		RetryCount: job.RetryCount,
		Error:      job.LastError,
		Timestamp:  s.now(),
	}
	if job.Metrics != nil {
		ev.ProcessingTime = job.Metrics.ProcessingTime
		ev.ResourceUsage = job.Metrics.ResourceUsage
	}
	sink, timeout := s.sink, s.opts.TelemetryTimeout
	asyncx.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := sink.ReportJobMetrics(ctx, ev); err != nil {
			logx.WithError(err).WithField("job_id", ev.JobID).Warn("jobx: telemetry job metrics push failed")
		}
	})
}
