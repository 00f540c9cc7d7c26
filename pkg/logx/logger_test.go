package logx_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/jobsched/pkg/logx"
)

func newBufferLogger(format logx.Format, level logx.Level) (*logx.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.Level = level
	cfg.EnableColors = false
	cfg.Output = &buf
	return logx.NewLogger(cfg), &buf
}

func TestLogger_JSONIncludesFieldsAndError(t *testing.T) {
	l, buf := newBufferLogger(logx.FormatJSON, logx.LevelInfo)

	l.WithFields(logx.Fields{"job_id": "a1", "retry": 2}).WithError(errors.New("boom")).Warn("job failed")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["level"] != "WARN" || line["message"] != "job failed" {
		t.Fatalf("unexpected line %v", line)
	}
	if line["job_id"] != "a1" || line["error"] != "boom" {
		t.Fatalf("missing fields in %v", line)
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, buf := newBufferLogger(logx.FormatConsole, logx.LevelWarn)

	l.WithField("k", "v").Info("hidden")
	l.WithField("k", "v").Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown k=v") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logx.Level{
		"debug":   logx.LevelDebug,
		"WARNING": logx.LevelWarn,
		"off":     logx.LevelOff,
		"garbage": logx.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var cfg struct {
		Level logx.Level `json:"level"`
	}
	if err := json.Unmarshal([]byte(`{"level":"warning"}`), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Level != logx.LevelWarn {
		t.Fatalf("level = %v, want WARN", cfg.Level)
	}

	out, err := json.Marshal(cfg)
	if err != nil || string(out) != `{"level":"WARN"}` {
		t.Fatalf("marshal = %s, %v", out, err)
	}

	if err := json.Unmarshal([]byte(`{"level":"loud"}`), &cfg); err == nil {
		t.Fatal("unknown level should be rejected")
	}
	if _, ok := logx.LookupLevel("loud"); ok {
		t.Fatal("LookupLevel should report unknown names")
	}
}
