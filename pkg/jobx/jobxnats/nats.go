package jobxnats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/errx"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/nats-io/nats.go"
)

var natsErrors = errx.NewRegistry("JOBX_NATS")

var (
	ErrConnect = natsErrors.Register("CONNECT", errx.TypeExternal, 502, "Failed to connect to NATS")
	ErrMarshal = natsErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal telemetry")
	ErrPublish = natsErrors.Register("PUBLISH", errx.TypeExternal, 502, "Failed to publish telemetry")
)

// Sink publishes scheduler telemetry as JSON on NATS subjects:
// <subject>.stats for snapshots and <subject>.jobs for per-job metrics.
type Sink struct {
	nc      *nats.Conn
	subject string
	owned   bool
}

// Connect dials NATS with unlimited reconnects and returns a sink that
// owns the connection.
func Connect(url, subject string) (*Sink, error) {
	nc, err := nats.Connect(url,
		nats.Name("jobsched-telemetry"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, natsErrors.NewWithCause(ErrConnect, err).WithDetail("url", url)
	}
	s := NewSink(nc, subject)
	s.owned = true
	return s, nil
}

// NewSink wraps an existing connection.
func NewSink(nc *nats.Conn, subject string) *Sink {
	if subject == "" {
		subject = "jobx.telemetry"
	}
	return &Sink{nc: nc, subject: subject}
}

// StatsSubject is where snapshots are published.
func (s *Sink) StatsSubject() string { return s.subject + ".stats" }

// JobsSubject is where per-job metrics are published.
func (s *Sink) JobsSubject() string { return s.subject + ".jobs" }

func (s *Sink) ReportStats(ctx context.Context, st jobx.SchedulerStats) error {
	return s.publishJSON(ctx, s.StatsSubject(), st)
}

func (s *Sink) ReportJobMetrics(ctx context.Context, ev jobx.JobMetricsEvent) error {
	return s.publishJSON(ctx, s.JobsSubject(), ev)
}

func (s *Sink) publishJSON(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return natsErrors.NewWithCause(ErrMarshal, err)
	}
	if err := s.nc.Publish(subject, b); err != nil {
		return natsErrors.NewWithCause(ErrPublish, err).WithDetail("subject", subject)
	}
	return nil
}

// Close drains the connection if the sink opened it.
func (s *Sink) Close() {
	if s.owned && s.nc != nil {
		_ = s.nc.Drain()
	}
}
