package jobx

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/kernel"
	"github.com/Abraxas-365/jobsched/pkg/logx"
)

// Processor runs one job. It must honor ctx: the scheduler cancels it on
// timeout and when the job is cancelled.
type Processor interface {
	Process(ctx context.Context, job *Job) (*PerformanceMetrics, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx context.Context, job *Job) (*PerformanceMetrics, error)

func (f ProcessorFunc) Process(ctx context.Context, job *Job) (*PerformanceMetrics, error) {
	return f(ctx, job)
}

const errSchedulerStopped = "scheduler stopped"

type activeJob struct {
	job    *Job
	cancel context.CancelFunc
	trial  uint64 // HalfOpen episode, zero for regular dispatches
}

// Scheduler admits jobs, dispatches them by priority under a fixed
// concurrency cap and retries failures with exponential backoff.
type Scheduler struct {
	opts Options
	now  func() time.Time
	sink TelemetrySink

	limiter *ConcurrencyLimiter
	breaker *CircuitBreaker
	retry   *RetryCoordinator

	mu        sync.Mutex
	jobs      map[string]*Job
	queue     *JobQueue
	active    map[string]*activeJob
	retrying  map[string]struct{}
	history   *history
	total     int
	completed int
	failed    int
	cancelled int
	bpActive  bool
	running   bool
	stopping  bool

	pmu        sync.RWMutex
	processors map[string]Processor

	workers sync.WaitGroup
	wakeCh  chan struct{}
}

// New creates a scheduler. It does not dispatch anything until Start is called.
func New(options ...Option) *Scheduler {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	opts.normalize()

	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}

	return &Scheduler{
		opts:       opts,
		now:        opts.Clock,
		sink:       sink,
		limiter:    NewConcurrencyLimiter(opts.MaxConcurrentJobs),
		breaker:    NewCircuitBreaker(opts.Circuit, opts.Clock),
		retry:      NewRetryCoordinator(opts.Retry),
		jobs:       make(map[string]*Job),
		queue:      NewJobQueue(),
		active:     make(map[string]*activeJob),
		retrying:   make(map[string]struct{}),
		history:    newHistory(opts.HistoryLimit),
		processors: make(map[string]Processor),
		wakeCh:     make(chan struct{}, 1),
	}
}

// Register adds a processor for a job type, replacing any previous one.
func (s *Scheduler) Register(jobType string, p Processor) {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	s.processors[jobType] = p
}

// Options returns the effective configuration.
func (s *Scheduler) Options() Options { return s.opts }

// Breaker exposes the circuit breaker for inspection.
func (s *Scheduler) Breaker() *CircuitBreaker { return s.breaker }

func (s *Scheduler) processor(jobType string) (Processor, bool) {
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	p, ok := s.processors[jobType]
	return p, ok
}

// GetJobStatus returns the status of a known job.
func (s *Scheduler) GetJobStatus(id string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return "", jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}
	return job.Status, nil
}

// GetJob returns a copy of a known job.
func (s *Scheduler) GetJob(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}
	return job.clone(), nil
}

// ListJobs returns copies of the known jobs, oldest first. An empty status
// lists every job; terminal jobs are only listed while they are in history.
func (s *Scheduler) ListJobs(status JobStatus, opts kernel.PaginationOptions) kernel.Paginated[*Job] {
	s.mu.Lock()
	all := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status == "" || job.Status == status {
			all = append(all, job.clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return kernel.Paginate(all, opts)
}

// CancelJob cancels a Pending, Running or Retrying job. A Running job is
// marked Cancelled at once; its processor observes the cancelled context
// and its outcome is discarded.
func (s *Scheduler) CancelJob(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}

	switch job.Status {
	case JobStatusPending:
		s.queue.Remove(id)
		s.updateBackpressureLocked()
	case JobStatusRunning:
		if a, ok := s.active[id]; ok {
			delete(s.active, id)
			a.cancel()
			s.breaker.AbortTrial(a.trial)
		}
	case JobStatusRetrying:
		s.retry.Cancel(id)
		delete(s.retrying, id)
	default:
		status := job.Status
		s.mu.Unlock()
		return jobxErrors.New(ErrNotCancellable).
			WithDetail("job_id", id).
			WithDetail("status", string(status))
	}

	from := job.Status
	now := s.now()
	job.Status = JobStatusCancelled
	job.CompletedAt = &now
	s.cancelled++
	s.archiveLocked(job)
	snapshot := job.clone()
	s.mu.Unlock()

	logx.WithFields(logx.Fields{"job_id": id, "from": string(from)}).Info("jobx: job cancelled")
	s.pushJobMetrics(snapshot)
	s.wake()
	return nil
}

// Start runs the dispatch loop and the stats reporter. It blocks until ctx
// is cancelled, then stops pending retries and waits up to ShutdownTimeout
// for running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.stopping = false
		s.mu.Unlock()
	}()

	logx.Infof("jobx: starting scheduler with %d slots", s.opts.MaxConcurrentJobs)

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		s.dispatchLoop(ctx)
	}()
	go func() {
		defer loops.Done()
		s.statsLoop(ctx)
	}()

	<-ctx.Done()
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	loops.Wait()
	logx.Info("jobx: shutting down scheduler...")
	s.stopRetries()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.opts.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		logx.Info("jobx: all workers stopped")
		return nil
	case <-timer.C:
		running := s.GetStats().Running
		logx.Warnf("jobx: shutdown timed out with %d jobs still running", running)
		return jobxErrors.New(ErrShutdownTimeout).WithDetail("running", running)
	}
}

// stopRetries cancels jobs waiting for re-admission. Jobs that fail while
// workers drain are cancelled in finish instead of being retried.
func (s *Scheduler) stopRetries() {
	ids := s.retry.Stop()
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	var cancelled []*Job
	now := s.now()
	for _, id := range ids {
		job, ok := s.jobs[id]
		if !ok || job.Status != JobStatusRetrying {
			continue
		}
		delete(s.retrying, id)
		job.Status = JobStatusCancelled
		job.LastError = errSchedulerStopped
		job.CompletedAt = &now
		s.cancelled++
		s.archiveLocked(job)
		cancelled = append(cancelled, job.clone())
	}
	s.mu.Unlock()

	for _, job := range cancelled {
		s.pushJobMetrics(job)
	}
	if len(cancelled) > 0 {
		logx.Warnf("jobx: cancelled %d jobs waiting for retry", len(cancelled))
	}
}

// dispatchLoop moves jobs from the queue to workers. It is the only
// caller of limiter.Acquire, so ScheduleJob never waits for a slot.
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if s.pendingCount() == 0 {
			if !s.idle(ctx, 0) {
				return
			}
			continue
		}

		if err := s.limiter.Acquire(ctx); err != nil {
			return
		}

		started, retryIn := s.dispatchNext(ctx)
		if started {
			continue
		}
		s.limiter.Release()
		if !s.idle(ctx, retryIn) {
			return
		}
	}
}

// dispatchNext starts the highest-priority job on an already acquired slot.
// When nothing was started, retryIn is how long to wait before trying
// again without a wake-up; zero means wait for a wake-up.
func (s *Scheduler) dispatchNext(ctx context.Context) (started bool, retryIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return false, 0
	}

	ok, trial := s.breaker.AllowDispatch()
	if !ok {
		if s.breaker.State() == CircuitOpen {
			return false, s.breaker.RetryAfter() + time.Millisecond
		}
		return false, 0
	}

	job := s.queue.DequeueHighest()
	s.updateBackpressureLocked()

	now := s.now()
	job.Status = JobStatusRunning
	job.StartedAt = &now
	job.CompletedAt = nil

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &activeJob{job: job, cancel: cancel, trial: trial}
	s.active[job.ID] = a

	logx.WithFields(logx.Fields{
		"job_id":   job.ID,
		"job_type": job.Type,
		"priority": job.Priority.String(),
		"attempt":  job.RetryCount + 1,
	}).Debug("jobx: dispatching job")

	s.workers.Add(1)
	go s.runWorker(jobCtx, a, job.clone())
	return true, 0
}

func (s *Scheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// idle waits for a wake-up, for d to elapse when d > 0, or for ctx.
// It returns false when ctx is done.
func (s *Scheduler) idle(ctx context.Context, d time.Duration) bool {
	var timeout <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.wakeCh:
	case <-timeout:
	}
	return true
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// archiveLocked moves a terminal job into the bounded history.
func (s *Scheduler) archiveLocked(job *Job) {
	for _, id := range s.history.add(job.ID) {
		delete(s.jobs, id)
	}
}
