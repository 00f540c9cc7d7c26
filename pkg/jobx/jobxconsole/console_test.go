package jobxconsole_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxconsole"
	"github.com/Abraxas-365/jobsched/pkg/logx"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Level = logx.LevelDebug
	cfg.EnableColors = false
	cfg.Output = &buf

	prev := logx.GetDefaultLogger()
	logx.SetDefaultLogger(logx.NewLogger(cfg))
	t.Cleanup(func() { logx.SetDefaultLogger(prev) })
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("invalid log line %q: %v", raw, err)
		}
		out = append(out, line)
	}
	return out
}

func TestSink_ReportsStatsAndJobs(t *testing.T) {
	buf := captureLogs(t)
	sink := jobxconsole.NewSink()
	ctx := context.Background()

	if err := sink.ReportStats(ctx, jobx.SchedulerStats{Total: 3, Completed: 2, CircuitState: jobx.CircuitClosed}); err != nil {
		t.Fatal(err)
	}
	if err := sink.ReportJobMetrics(ctx, jobx.JobMetricsEvent{
		JobID:          "j1",
		JobType:        "render",
		Status:         jobx.JobStatusFailed,
		ProcessingTime: 250 * time.Millisecond,
		ResourceUsage:  map[string]float64{"cpu": 0.5},
		Error:          "boom",
	}); err != nil {
		t.Fatal(err)
	}

	got := lines(t, buf)
	if len(got) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(got))
	}
	if got[0]["total"] != float64(3) || got[0]["circuit_state"] != "closed" {
		t.Fatalf("unexpected stats line %v", got[0])
	}
	if got[1]["job_id"] != "j1" || got[1]["usage_cpu"] != 0.5 || got[1]["error"] != "boom" ||
		got[1]["processing_time_ms"] != float64(250) {
		t.Fatalf("unexpected job line %v", got[1])
	}
}
