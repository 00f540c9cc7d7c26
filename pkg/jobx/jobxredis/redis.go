package jobxredis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/errx"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/redis/go-redis/v9"
)

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "No telemetry recorded")
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal telemetry")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal telemetry")
	ErrWrite     = redisErrors.Register("WRITE", errx.TypeExternal, 502, "Failed to write telemetry to Redis")
	ErrRead      = redisErrors.Register("READ", errx.TypeExternal, 502, "Failed to read telemetry from Redis")
)

// Sink stores scheduler telemetry in Redis:
//
//	<prefix>:stats          latest stats snapshot (JSON, expires after StatsTTL)
//	<prefix>:metrics        list of recent job metrics, newest first, capped at Retention
//	<prefix>:job:<id>       last metrics of one job (JSON, expires after StatsTTL)
type Sink struct {
	rdb       *redis.Client
	prefix    string
	retention int64
	ttl       time.Duration
}

// Option configures a Sink.
type Option func(*Sink)

// WithPrefix sets the key prefix. Default "jobx".
func WithPrefix(prefix string) Option {
	return func(s *Sink) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention caps the metrics list. Default 1000.
func WithRetention(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.retention = int64(n)
		}
	}
}

// WithTTL sets the expiry of the stats and per-job keys. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Sink) {
		s.ttl = d
	}
}

// NewSink creates a Redis-backed telemetry sink.
func NewSink(rdb *redis.Client, opts ...Option) *Sink {
	s := &Sink{rdb: rdb, prefix: "jobx", retention: 1000, ttl: 5 * time.Minute}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sink) statsKey() string        { return fmt.Sprintf("%s:stats", s.prefix) }
func (s *Sink) metricsKey() string      { return fmt.Sprintf("%s:metrics", s.prefix) }
func (s *Sink) jobKey(id string) string { return fmt.Sprintf("%s:job:%s", s.prefix, id) }

// ReportStats overwrites the latest snapshot.
func (s *Sink) ReportStats(ctx context.Context, st jobx.SchedulerStats) error {
	data, err := json.Marshal(st)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err)
	}
	if err := s.rdb.Set(ctx, s.statsKey(), data, s.ttl).Err(); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("key", s.statsKey())
	}
	return nil
}

// ReportJobMetrics records one job outcome.
func (s *Sink) ReportJobMetrics(ctx context.Context, ev jobx.JobMetricsEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", ev.JobID)
	}

	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, s.metricsKey(), data)
	pipe.LTrim(ctx, s.metricsKey(), 0, s.retention-1)
	pipe.Set(ctx, s.jobKey(ev.JobID), data, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("job_id", ev.JobID)
	}
	return nil
}

// LatestStats returns the last snapshot written.
func (s *Sink) LatestStats(ctx context.Context) (*jobx.SchedulerStats, error) {
	data, err := s.rdb.Get(ctx, s.statsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("key", s.statsKey())
		}
		return nil, redisErrors.NewWithCause(ErrRead, err).WithDetail("key", s.statsKey())
	}

	var st jobx.SchedulerStats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err)
	}
	return &st, nil
}

// RecentJobMetrics returns up to limit events, newest first.
func (s *Sink) RecentJobMetrics(ctx context.Context, limit int) ([]jobx.JobMetricsEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.rdb.LRange(ctx, s.metricsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrRead, err).WithDetail("key", s.metricsKey())
	}

	events := make([]jobx.JobMetricsEvent, 0, len(raw))
	for _, item := range raw {
		var ev jobx.JobMetricsEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, redisErrors.NewWithCause(ErrUnmarshal, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// JobMetrics returns the last recorded outcome of one job.
func (s *Sink) JobMetrics(ctx context.Context, jobID string) (*jobx.JobMetricsEvent, error) {
	data, err := s.rdb.Get(ctx, s.jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
		}
		return nil, redisErrors.NewWithCause(ErrRead, err).WithDetail("job_id", jobID)
	}

	var ev jobx.JobMetricsEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}
	return &ev, nil
}
