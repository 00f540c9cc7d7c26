package jobx

import (
	"context"
	"strings"

	"github.com/Abraxas-365/jobsched/pkg/logx"
	"github.com/google/uuid"
)

// ScheduleJob admits a job and returns its id. It never waits for an
// execution slot: the job is queued and dispatched later by priority.
//
// It fails with ErrAdmissionRejected while the circuit breaker is open and,
// in BackpressureReject mode, with ErrBackpressure once the queue is full.
// A rejected job leaves no trace in the scheduler.
func (s *Scheduler) ScheduleJob(ctx context.Context, desc JobDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateDescriptor(desc); err != nil {
		return "", err
	}

	id := strings.TrimSpace(desc.ID)
	if id == "" {
		id = uuid.New().String()
	}

	s.mu.Lock()
	if existing, ok := s.jobs[id]; ok && !existing.Status.IsTerminal() {
		s.mu.Unlock()
		return "", jobxErrors.New(ErrDuplicateJob).
			WithDetail("job_id", id).
			WithDetail("status", string(existing.Status))
	}

	if err := s.admitLocked(); err != nil {
		s.mu.Unlock()
		logx.WithError(err).WithFields(logx.Fields{
			"job_id":   id,
			"job_type": desc.Type,
		}).Warn("jobx: job rejected")
		return "", err
	}

	job := newJob(id, desc, s.now())
	s.history.remove(id)
	s.jobs[id] = job
	s.queue.Enqueue(job)
	s.total++
	s.updateBackpressureLocked()
	s.mu.Unlock()

	logx.WithFields(logx.Fields{
		"job_id":   id,
		"job_type": job.Type,
		"priority": job.Priority.String(),
	}).Debug("jobx: job scheduled")

	s.wake()
	return id, nil
}

func validateDescriptor(desc JobDescriptor) error {
	if strings.TrimSpace(desc.Type) == "" {
		return jobxErrors.NewWithMessage(ErrInvalidJob, "job_type is required")
	}
	if !desc.Priority.Valid() {
		return jobxErrors.New(ErrInvalidJob).WithDetail("priority", int(desc.Priority))
	}
	return nil
}

// admitLocked runs the admission checks shared by new jobs and retries.
// It has no side effects on rejection.
func (s *Scheduler) admitLocked() error {
	if !s.breaker.CanAcceptJobs() {
		cb := s.breaker.Snapshot()
		return jobxErrors.New(ErrAdmissionRejected).
			WithDetail("circuit_state", cb.State.String()).
			WithDetail("failure_count", cb.FailureCount).
			WithDetail("retry_after_ms", s.breaker.RetryAfter().Milliseconds())
	}
	if s.opts.BackpressureMode == BackpressureReject && s.queue.Len() >= s.opts.BackpressureThreshold {
		return jobxErrors.New(ErrBackpressure).
			WithDetail("pending", s.queue.Len()).
			WithDetail("threshold", s.opts.BackpressureThreshold)
	}
	return nil
}

// updateBackpressureLocked tracks threshold crossings and logs once per crossing.
func (s *Scheduler) updateBackpressureLocked() {
	under := s.queue.Len() >= s.opts.BackpressureThreshold
	if under == s.bpActive {
		return
	}
	s.bpActive = under
	fields := logx.Fields{
		"pending":   s.queue.Len(),
		"threshold": s.opts.BackpressureThreshold,
		"mode":      s.opts.BackpressureMode.String(),
	}
	if under {
		logx.WithFields(fields).Warn("jobx: queue under backpressure")
		return
	}
	logx.WithFields(fields).Info("jobx: backpressure relieved")
}
