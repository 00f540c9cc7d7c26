package config_test

import (
	"testing"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/config"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Jobx.MaxConcurrentJobs != 10 || cfg.Jobx.BackpressureThreshold != 100 {
		t.Fatalf("unexpected jobx defaults %+v", cfg.Jobx)
	}
	if cfg.Jobx.RetryInitialDelay != time.Second || cfg.Jobx.CBRecoveryTimeout != time.Minute {
		t.Fatalf("unexpected duration defaults %+v", cfg.Jobx)
	}
	if cfg.Redis.Address() != "localhost:6379" {
		t.Fatalf("unexpected redis address %q", cfg.Redis.Address())
	}
}

func TestLoad_JobxFromEnv(t *testing.T) {
	t.Setenv("JOBX_MAX_CONCURRENT_JOBS", "4")
	t.Setenv("JOBX_JOB_TIMEOUT_MS", "1500")
	t.Setenv("JOBX_BACKPRESSURE_MODE", "Reject")
	t.Setenv("JOBX_RETRY_BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("JOBX_CB_FAILURE_THRESHOLD", "not-a-number")
	t.Setenv("JOBX_STATS_INTERVAL", "10s")

	cfg := config.Load()
	j := cfg.Jobx

	if j.MaxConcurrentJobs != 4 || j.JobTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected values %+v", j)
	}
	if j.RetryBackoffMultiplier != 1.5 || j.StatsInterval != 10*time.Second {
		t.Fatalf("unexpected values %+v", j)
	}
	if j.CBFailureThreshold != 5 {
		t.Fatalf("invalid value should fall back to default, got %d", j.CBFailureThreshold)
	}

	s := jobx.New(j.Options()...)
	opts := s.Options()
	if opts.MaxConcurrentJobs != 4 || opts.BackpressureMode != jobx.BackpressureReject {
		t.Fatalf("options not applied: %+v", opts)
	}
	if opts.Retry.BackoffMultiplier != 1.5 || opts.JobTimeout != 1500*time.Millisecond {
		t.Fatalf("options not applied: %+v", opts)
	}
}

func TestLoad_Telemetry(t *testing.T) {
	t.Setenv("TELEMETRY_PROVIDER", "nats")
	t.Setenv("TELEMETRY_SUBJECT", "sched.metrics")

	cfg := config.Load()
	if cfg.Telemetry.Provider != "nats" || cfg.Telemetry.Subject != "sched.metrics" {
		t.Fatalf("unexpected telemetry config %+v", cfg.Telemetry)
	}
}

func TestLoad_Server(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SERVER_STACK_TRACES", "false")

	cfg := config.Load()
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %q", cfg.Server.CORSOrigins)
	}
	if cfg.Server.StackTraces {
		t.Fatal("stack traces should be disabled")
	}
}
