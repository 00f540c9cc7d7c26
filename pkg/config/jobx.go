package config

import (
	"strings"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/jobx"
)

// JobxConfig configures the job scheduler.
type JobxConfig struct {
	MaxConcurrentJobs     int
	JobTimeout            time.Duration
	BackpressureThreshold int
	BackpressureMode      string

	RetryMaxRetries        int
	RetryInitialDelay      time.Duration
	RetryBackoffMultiplier float64
	RetryMaxDelay          time.Duration

	CBFailureThreshold    int
	CBRecoveryTimeout     time.Duration
	CBHalfOpenMaxRequests int

	StatsInterval   time.Duration
	HistoryLimit    int
	ShutdownTimeout time.Duration
}

func loadJobxConfig() JobxConfig {
	return JobxConfig{
		MaxConcurrentJobs:     getEnvInt("JOBX_MAX_CONCURRENT_JOBS", 10),
		JobTimeout:            getEnvMillis("JOBX_JOB_TIMEOUT_MS", 30*time.Second),
		BackpressureThreshold: getEnvInt("JOBX_BACKPRESSURE_THRESHOLD", 100),
		BackpressureMode:      getEnv("JOBX_BACKPRESSURE_MODE", "advisory"),

		RetryMaxRetries:        getEnvInt("JOBX_RETRY_MAX_RETRIES", 3),
		RetryInitialDelay:      getEnvMillis("JOBX_RETRY_INITIAL_DELAY_MS", time.Second),
		RetryBackoffMultiplier: getEnvFloat("JOBX_RETRY_BACKOFF_MULTIPLIER", 2.0),
		RetryMaxDelay:          getEnvMillis("JOBX_RETRY_MAX_DELAY_MS", 30*time.Second),

		CBFailureThreshold:    getEnvInt("JOBX_CB_FAILURE_THRESHOLD", 5),
		CBRecoveryTimeout:     getEnvMillis("JOBX_CB_RECOVERY_TIMEOUT_MS", 60*time.Second),
		CBHalfOpenMaxRequests: getEnvInt("JOBX_CB_HALF_OPEN_MAX_REQUESTS", 1),

		StatsInterval:   getEnvDuration("JOBX_STATS_INTERVAL", 30*time.Second),
		HistoryLimit:    getEnvInt("JOBX_HISTORY_LIMIT", 10000),
		ShutdownTimeout: getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// backpressureMode parses the configured mode. Anything but "reject" is advisory.
func (c JobxConfig) backpressureMode() jobx.BackpressureMode {
	if strings.EqualFold(strings.TrimSpace(c.BackpressureMode), "reject") {
		return jobx.BackpressureReject
	}
	return jobx.BackpressureAdvisory
}

// Options converts the configuration into scheduler options.
// The telemetry sink is wired separately by the caller.
func (c JobxConfig) Options() []jobx.Option {
	return []jobx.Option{
		jobx.WithMaxConcurrentJobs(c.MaxConcurrentJobs),
		jobx.WithJobTimeout(c.JobTimeout),
		jobx.WithBackpressure(c.BackpressureThreshold, c.backpressureMode()),
		jobx.WithRetryPolicy(jobx.RetryPolicy{
			MaxRetries:        c.RetryMaxRetries,
			InitialDelay:      c.RetryInitialDelay,
			BackoffMultiplier: c.RetryBackoffMultiplier,
			MaxDelay:          c.RetryMaxDelay,
		}),
		jobx.WithCircuitPolicy(jobx.CircuitPolicy{
			FailureThreshold:    c.CBFailureThreshold,
			RecoveryTimeout:     c.CBRecoveryTimeout,
			HalfOpenMaxRequests: c.CBHalfOpenMaxRequests,
		}),
		jobx.WithHistoryLimit(c.HistoryLimit),
		jobx.WithShutdownTimeout(c.ShutdownTimeout),
	}
}
