// cmd/container.go
//
// Composition root. Owns infrastructure (Redis, NATS), the telemetry sink and
// the scheduler, and is the only place that knows about all of them.
package main

import (
	"context"

	"github.com/Abraxas-365/jobsched/pkg/asyncx"
	"github.com/Abraxas-365/jobsched/pkg/config"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxconsole"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxhttp"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxnats"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/jobsched/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the scheduler.
type Container struct {
	Config *config.Config

	// Infrastructure
	Redis *redis.Client
	NATS  *jobxnats.Sink

	Sink        jobx.TelemetrySink
	Scheduler   *jobx.Scheduler
	JobHandlers *jobxhttp.Handlers
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initTelemetry()
	c.initScheduler()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Telemetry sink
// ---------------------------------------------------------------------------

func (c *Container) initTelemetry() {
	tc := c.Config.Telemetry

	switch tc.Provider {
	case "redis":
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		c.Sink = jobxredis.NewSink(c.Redis,
			jobxredis.WithPrefix(tc.RedisPrefix),
			jobxredis.WithRetention(tc.MetricsRetention),
			jobxredis.WithTTL(tc.StatsTTL),
		)
		logx.Infof("  ✅ Redis telemetry sink configured (prefix: %s)", tc.RedisPrefix)

	case "nats":
		sink, err := jobxnats.Connect(tc.NATSURL, tc.Subject)
		if err != nil {
			logx.Fatalf("Failed to connect to NATS: %v", err)
		}
		c.NATS = sink
		c.Sink = sink
		logx.Infof("  ✅ NATS telemetry sink configured (subject: %s)", tc.Subject)

	case "console":
		c.Sink = jobxconsole.NewSink()
		logx.Info("  ✅ Console telemetry sink configured")

	case "none", "":
		c.Sink = jobx.NopSink{}
		logx.Info("  ✅ Telemetry disabled")

	default:
		logx.Fatalf("Unknown TELEMETRY_PROVIDER: %s (use 'console', 'redis', 'nats' or 'none')", tc.Provider)
	}
}

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

func (c *Container) initScheduler() {
	opts := append(c.Config.Jobx.Options(),
		jobx.WithTelemetry(c.Sink, c.Config.Jobx.StatsInterval),
		jobx.WithTelemetryTimeout(c.Config.Telemetry.PushTimeout),
	)
	c.Scheduler = jobx.New(opts...)
	registerProcessors(c.Scheduler)
	c.JobHandlers = jobxhttp.NewHandlers(c.Scheduler)

	o := c.Scheduler.Options()
	logx.Infof("  ✅ Scheduler configured (slots: %d, timeout: %s, backpressure: %d/%s)",
		o.MaxConcurrentJobs, o.JobTimeout, o.BackpressureThreshold, o.BackpressureMode)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the scheduler until ctx is cancelled.
// The returned future resolves with Start's result.
func (c *Container) StartBackgroundServices(ctx context.Context) *asyncx.Future[struct{}] {
	logx.Info("🔄 Starting background services...")
	return asyncx.Run(func() (struct{}, error) {
		return struct{}{}, c.Scheduler.Start(ctx)
	})
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.NATS != nil {
		c.NATS.Close()
		logx.Info("  ✅ NATS connection drained")
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func repeatString(s string, count int) string {
	result := ""
	for range count {
		result += s
	}
	return result
}
