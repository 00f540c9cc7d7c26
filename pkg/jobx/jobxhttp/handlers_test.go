package jobxhttp_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxhttp"
	"github.com/Abraxas-365/jobsched/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newApp(t *testing.T) (*fiber.App, *jobx.Scheduler) {
	t.Helper()
	s := jobx.New(jobx.WithBackpressure(1, jobx.BackpressureReject))
	app := fiber.New(fiber.Config{ErrorHandler: jobxhttp.ErrorHandler})
	jobxhttp.NewHandlers(s).RegisterRoutes(app)
	return app, s
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

func TestHandlers_ScheduleAndQuery(t *testing.T) {
	app, s := newApp(t)

	code, body := do(t, app, http.MethodPost, "/api/v1/jobs",
		`{"id":"job-1","job_type":"render","priority":"high","payload":{"frames":24}}`)
	if code != http.StatusAccepted || body["id"] != "job-1" || body["status"] != "pending" {
		t.Fatalf("schedule: %d %v", code, body)
	}

	job, err := s.GetJob("job-1")
	if err != nil || job.Priority != jobx.PriorityHigh || string(job.Payload.Content) != `{"frames":24}` {
		t.Fatalf("job not stored as sent: %+v, %v", job, err)
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/jobs/job-1", "")
	if code != http.StatusOK || body["status"] != "pending" || body["priority"] != "high" {
		t.Fatalf("get: %d %v", code, body)
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/jobs/job-1/status", "")
	if code != http.StatusOK || body["status"] != "pending" {
		t.Fatalf("status: %d %v", code, body)
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/jobs?status=pending&page_size=10", "")
	items, _ := body["items"].([]any)
	if code != http.StatusOK || len(items) != 1 {
		t.Fatalf("list: %d %v", code, body)
	}

	code, body = do(t, app, http.MethodGet, "/api/v1/stats", "")
	if code != http.StatusOK || body["total"] != float64(1) || body["circuit_state"] != "closed" {
		t.Fatalf("stats: %d %v", code, body)
	}
}

func TestHandlers_Errors(t *testing.T) {
	app, _ := newApp(t)

	code, body := do(t, app, http.MethodGet, "/api/v1/jobs/unknown", "")
	if code != http.StatusNotFound || body["code"] != jobx.ErrJobNotFound.Code {
		t.Fatalf("unknown job: %d %v", code, body)
	}

	code, body = do(t, app, http.MethodPost, "/api/v1/jobs", `{"job_type":"render","priority":"urgent"}`)
	if code != http.StatusBadRequest || body["code"] != jobx.ErrInvalidJob.Code {
		t.Fatalf("bad priority: %d %v", code, body)
	}

	code, _ = do(t, app, http.MethodPost, "/api/v1/jobs", `{not json`)
	if code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", code)
	}

	do(t, app, http.MethodPost, "/api/v1/jobs", `{"job_type":"render"}`)
	code, body = do(t, app, http.MethodPost, "/api/v1/jobs", `{"job_type":"render"}`)
	if code != http.StatusTooManyRequests || body["code"] != jobx.ErrBackpressure.Code {
		t.Fatalf("backpressure: %d %v", code, body)
	}
}

func TestHandlers_Cancel(t *testing.T) {
	app, s := newApp(t)

	if _, err := s.ScheduleJob(context.Background(), jobx.JobDescriptor{ID: "c1", Type: "render"}); err != nil {
		t.Fatal(err)
	}

	code, _ := do(t, app, http.MethodDelete, "/api/v1/jobs/c1", "")
	if code != http.StatusNoContent {
		t.Fatalf("cancel: %d", code)
	}

	code, body := do(t, app, http.MethodDelete, "/api/v1/jobs/c1", "")
	if code != http.StatusConflict || body["code"] != jobx.ErrNotCancellable.Code {
		t.Fatalf("second cancel: %d %v", code, body)
	}
}
