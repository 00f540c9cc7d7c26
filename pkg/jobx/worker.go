package jobx

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/asyncx"
	"github.com/Abraxas-365/jobsched/pkg/logx"
)

// runWorker executes one dispatched job and records its outcome.
// job is a private copy handed to the processor.
func (s *Scheduler) runWorker(ctx context.Context, a *activeJob, job *Job) {
	defer s.workers.Done()
	defer a.cancel()

	started := time.Now()
	metrics, err := s.execute(ctx, job)
	elapsed := time.Since(started)

	s.finish(a, metrics, elapsed, err)
}

// execute races the processor against JobTimeout. Panics, timeouts and
// cancellations all come back as errors.
func (s *Scheduler) execute(ctx context.Context, job *Job) (*PerformanceMetrics, error) {
	p, ok := s.processor(job.Type)
	if !ok {
		return nil, jobxErrors.New(ErrNoProcessor).WithDetail("job_type", job.Type)
	}

	metrics, err := asyncx.WithTimeout(ctx, s.opts.JobTimeout, func(ctx context.Context) (*PerformanceMetrics, error) {
		return p.Process(ctx, job)
	})
	if err == nil {
		return metrics, nil
	}

	var pe *asyncx.PanicError
	switch {
	case errors.As(err, &pe):
		logx.WithFields(logx.Fields{
			"job_id":   job.ID,
			"job_type": job.Type,
			"panic":    pe.Value,
		}).Errorf("jobx: processor panicked\n%s", pe.Stack)
		return nil, jobxErrors.NewWithCause(ErrProcessingFailed, pe).WithDetail("job_id", job.ID)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return nil, jobxErrors.New(ErrCancelled).WithDetail("job_id", job.ID)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, jobxErrors.New(ErrTimeout).
			WithDetail("job_id", job.ID).
			WithDetail("timeout_ms", s.opts.JobTimeout.Milliseconds())
	default:
		return nil, jobxErrors.NewWithCause(ErrProcessingFailed, err).WithDetail("job_id", job.ID)
	}
}

// finish applies the outcome of a worker run and frees its slot.
func (s *Scheduler) finish(a *activeJob, metrics *PerformanceMetrics, elapsed time.Duration, err error) {
	defer s.wake()
	defer s.limiter.Release()

	s.mu.Lock()
	if s.active[a.job.ID] != a {
		// Cancelled while running; the outcome no longer matters.
		s.mu.Unlock()
		return
	}
	delete(s.active, a.job.ID)

	job := a.job
	now := s.now()
	fields := logx.Fields{
		"job_id":      job.ID,
		"job_type":    job.Type,
		"retry_count": job.RetryCount,
		"duration_ms": elapsed.Milliseconds(),
	}

	if err == nil {
		if metrics == nil {
			metrics = &PerformanceMetrics{}
		}
		if metrics.ProcessingTime <= 0 {
			metrics.ProcessingTime = elapsed
		}
		job.Status = JobStatusCompleted
		job.CompletedAt = &now
		job.Metrics = metrics
		job.LastError = ""
		s.completed++
		s.breaker.RecordSuccess()
		s.archiveLocked(job)
		snapshot := job.clone()
		s.mu.Unlock()

		logx.WithFields(fields).Debug("jobx: job completed")
		s.pushJobMetrics(snapshot)
		return
	}

	job.LastError = err.Error()
	job.Metrics = &PerformanceMetrics{ProcessingTime: elapsed}
	s.breaker.RecordFailure()

	if s.stopping && s.retry.ShouldRetry(job.RetryCount) {
		job.Status = JobStatusCancelled
		job.LastError = errSchedulerStopped
		job.CompletedAt = &now
		s.cancelled++
		s.archiveLocked(job)
		snapshot := job.clone()
		s.mu.Unlock()

		logx.WithError(err).WithFields(fields).Warn("jobx: job failed during shutdown, retry dropped")
		s.pushJobMetrics(snapshot)
		return
	}

	if s.retry.ShouldRetry(job.RetryCount) {
		job.RetryCount++
		delay := s.retry.NextDelay(job.RetryCount)
		job.Status = JobStatusRetrying
		s.retrying[job.ID] = struct{}{}
		s.retry.Schedule(job.ID, delay, func() { s.readmit(job) })
		s.mu.Unlock()

		logx.WithError(err).WithFields(fields).Warn("jobx: job failed")
		logx.WithFields(logx.Fields{
			"job_id":   job.ID,
			"attempt":  job.RetryCount,
			"delay_ms": delay.Milliseconds(),
		}).Info("jobx: retry scheduled")
		return
	}

	s.failJobLocked(job, now)
	snapshot := job.clone()
	s.mu.Unlock()

	if s.opts.Retry.MaxRetries > 0 {
		logx.WithError(err).WithFields(fields).Error("jobx: job failed, retries exhausted")
	} else {
		logx.WithError(err).WithFields(fields).Warn("jobx: job failed")
	}
	s.pushJobMetrics(snapshot)
}

// readmit sends a Retrying job back through admission once its delay elapsed.
func (s *Scheduler) readmit(job *Job) {
	s.mu.Lock()
	if s.jobs[job.ID] != job || job.Status != JobStatusRetrying {
		s.mu.Unlock()
		return
	}
	delete(s.retrying, job.ID)

	if s.stopping {
		now := s.now()
		job.Status = JobStatusCancelled
		job.LastError = errSchedulerStopped
		job.CompletedAt = &now
		s.cancelled++
		s.archiveLocked(job)
		snapshot := job.clone()
		s.mu.Unlock()
		s.pushJobMetrics(snapshot)
		return
	}

	if err := s.admitLocked(); err != nil {
		job.LastError = err.Error()
		s.failJobLocked(job, s.now())
		snapshot := job.clone()
		s.mu.Unlock()

		logx.WithError(err).WithField("job_id", job.ID).Error("jobx: retry rejected at admission")
		s.pushJobMetrics(snapshot)
		return
	}

	job.Status = JobStatusPending
	s.queue.Enqueue(job)
	s.updateBackpressureLocked()
	s.mu.Unlock()

	logx.WithFields(logx.Fields{"job_id": job.ID, "attempt": job.RetryCount}).Debug("jobx: job re-admitted")
	s.wake()
}

func (s *Scheduler) failJobLocked(job *Job, now time.Time) {
	job.Status = JobStatusFailed
	job.CompletedAt = &now
	s.failed++
	s.archiveLocked(job)
}
