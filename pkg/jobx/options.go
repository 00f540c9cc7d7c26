package jobx

import "time"

// BackpressureMode decides what happens when the pending queue reaches
// the backpressure threshold.
type BackpressureMode int

const (
	// BackpressureAdvisory keeps accepting jobs and only flags the condition.
	BackpressureAdvisory BackpressureMode = iota
	// BackpressureReject refuses new jobs with ErrBackpressure.
	BackpressureReject
)

func (m BackpressureMode) String() string {
	if m == BackpressureReject {
		return "reject"
	}
	return "advisory"
}

// RetryPolicy controls re-admission of failed jobs.
type RetryPolicy struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
}

// CircuitPolicy controls the circuit breaker.
type CircuitPolicy struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	// HalfOpenMaxRequests bounds the jobs dispatched while HalfOpen and
	// waiting for the first trial outcome.
	HalfOpenMaxRequests int
}

// Options configures a Scheduler.
type Options struct {
	MaxConcurrentJobs     int
	JobTimeout            time.Duration
	BackpressureThreshold int
	BackpressureMode      BackpressureMode
	Retry                 RetryPolicy
	Circuit               CircuitPolicy

	// StatsInterval is the period of telemetry pushes. Zero disables them.
	StatsInterval    time.Duration
	TelemetryTimeout time.Duration
	Sink             TelemetrySink

	// HistoryLimit bounds how many terminal jobs stay queryable.
	HistoryLimit    int
	ShutdownTimeout time.Duration

	Clock func() time.Time
}

func defaultOptions() Options {
	return Options{
		MaxConcurrentJobs:     10,
		JobTimeout:            30 * time.Second,
		BackpressureThreshold: 100,
		BackpressureMode:      BackpressureAdvisory,
		Retry: RetryPolicy{
			MaxRetries:        3,
			InitialDelay:      time.Second,
			BackoffMultiplier: 2,
			MaxDelay:          30 * time.Second,
		},
		Circuit: CircuitPolicy{
			FailureThreshold:    5,
			RecoveryTimeout:     60 * time.Second,
			HalfOpenMaxRequests: 1,
		},
		StatsInterval:    30 * time.Second,
		TelemetryTimeout: 5 * time.Second,
		HistoryLimit:     10000,
		ShutdownTimeout:  30 * time.Second,
		Clock:            time.Now,
	}
}

// normalize replaces invalid values with defaults.
func (o *Options) normalize() {
	d := defaultOptions()
	if o.MaxConcurrentJobs <= 0 {
		o.MaxConcurrentJobs = d.MaxConcurrentJobs
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = d.JobTimeout
	}
	if o.BackpressureThreshold <= 0 {
		o.BackpressureThreshold = d.BackpressureThreshold
	}
	if o.Retry.MaxRetries < 0 {
		o.Retry.MaxRetries = 0
	}
	if o.Retry.InitialDelay <= 0 {
		o.Retry.InitialDelay = d.Retry.InitialDelay
	}
	if o.Retry.BackoffMultiplier < 1 {
		o.Retry.BackoffMultiplier = 1
	}
	if o.Retry.MaxDelay < o.Retry.InitialDelay {
		o.Retry.MaxDelay = o.Retry.InitialDelay
	}
	if o.Circuit.FailureThreshold <= 0 {
		o.Circuit.FailureThreshold = d.Circuit.FailureThreshold
	}
	if o.Circuit.RecoveryTimeout <= 0 {
		o.Circuit.RecoveryTimeout = d.Circuit.RecoveryTimeout
	}
	if o.Circuit.HalfOpenMaxRequests <= 0 {
		o.Circuit.HalfOpenMaxRequests = 1
	}
	if o.TelemetryTimeout <= 0 {
		o.TelemetryTimeout = d.TelemetryTimeout
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = d.ShutdownTimeout
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Option is a functional option for configuring the scheduler.
type Option func(*Options)

// WithMaxConcurrentJobs sets the number of execution slots.
func WithMaxConcurrentJobs(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxConcurrentJobs = n
		}
	}
}

// WithJobTimeout sets how long a processor may run before the job fails with ErrTimeout.
func WithJobTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.JobTimeout = d
	}
}

// WithBackpressure sets the queue depth threshold and what happens at it.
func WithBackpressure(threshold int, mode BackpressureMode) Option {
	return func(o *Options) {
		o.BackpressureThreshold = threshold
		o.BackpressureMode = mode
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) {
		o.Retry = p
	}
}

// WithCircuitPolicy replaces the circuit breaker policy.
func WithCircuitPolicy(p CircuitPolicy) Option {
	return func(o *Options) {
		o.Circuit = p
	}
}

// WithTelemetry sets the sink and the interval of periodic stats pushes.
func WithTelemetry(sink TelemetrySink, interval time.Duration) Option {
	return func(o *Options) {
		o.Sink = sink
		o.StatsInterval = interval
	}
}

// WithTelemetryTimeout bounds each individual sink call.
func WithTelemetryTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.TelemetryTimeout = d
	}
}

// WithHistoryLimit sets how many terminal jobs are kept for status queries.
func WithHistoryLimit(n int) Option {
	return func(o *Options) {
		o.HistoryLimit = n
	}
}

// WithShutdownTimeout sets the maximum time to wait for running jobs on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}

// WithClock overrides the time source used for timestamps and the circuit breaker.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}
