package jobxnats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/errx"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxnats"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
)

func TestConnect_Unreachable(t *testing.T) {
	_, err := jobxnats.Connect("nats://127.0.0.1:1", "jobx.telemetry")
	if !errx.IsCode(err, jobxnats.ErrConnect) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestSink_Subjects(t *testing.T) {
	s := jobxnats.NewSink(nil, "")
	if s.StatsSubject() != "jobx.telemetry.stats" || s.JobsSubject() != "jobx.telemetry.jobs" {
		t.Fatalf("unexpected subjects %q %q", s.StatsSubject(), s.JobsSubject())
	}
}

func runServer(t *testing.T) string {
	t.Helper()
	srv := natsserver.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func subscribe(t *testing.T, url, subject string) <-chan *nats.Msg {
	t.Helper()
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(nc.Close)

	ch := make(chan *nats.Msg, 4)
	if _, err := nc.ChanSubscribe(subject, ch); err != nil {
		t.Fatal(err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}
	return ch
}

func receive(t *testing.T, ch <-chan *nats.Msg, v any) string {
	t.Helper()
	select {
	case msg := <-ch:
		if err := json.Unmarshal(msg.Data, v); err != nil {
			t.Fatalf("invalid JSON on %s: %v", msg.Subject, err)
		}
		return msg.Subject
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
		return ""
	}
}

func TestSink_PublishesTelemetry(t *testing.T) {
	url := runServer(t)
	msgs := subscribe(t, url, "sched.telemetry.>")

	sink, err := jobxnats.Connect(url, "sched.telemetry")
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	ctx := context.Background()

	if err := sink.ReportStats(ctx, jobx.SchedulerStats{
		Total:        4,
		Completed:    3,
		SuccessRate:  0.75,
		CircuitState: jobx.CircuitHalfOpen,
	}); err != nil {
		t.Fatal(err)
	}
	var st jobx.SchedulerStats
	if subj := receive(t, msgs, &st); subj != sink.StatsSubject() {
		t.Fatalf("stats published on %q", subj)
	}
	if st.Total != 4 || st.SuccessRate != 0.75 || st.CircuitState != jobx.CircuitHalfOpen {
		t.Fatalf("unexpected stats %+v", st)
	}

	if err := sink.ReportJobMetrics(ctx, jobx.JobMetricsEvent{
		JobID:          "j1",
		JobType:        "render",
		Priority:       jobx.PriorityHigh,
		Status:         jobx.JobStatusCompleted,
		ProcessingTime: 120 * time.Millisecond,
		ResourceUsage:  map[string]float64{"cpu": 0.25},
	}); err != nil {
		t.Fatal(err)
	}
	var ev jobx.JobMetricsEvent
	if subj := receive(t, msgs, &ev); subj != sink.JobsSubject() {
		t.Fatalf("job metrics published on %q", subj)
	}
	if ev.JobID != "j1" || ev.Priority != jobx.PriorityHigh || ev.ProcessingTime != 120*time.Millisecond ||
		ev.ResourceUsage["cpu"] != 0.25 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSink_CancelledContext(t *testing.T) {
	url := runServer(t)
	sink, err := jobxnats.Connect(url, "")
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.ReportStats(ctx, jobx.SchedulerStats{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
