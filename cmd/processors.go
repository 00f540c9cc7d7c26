package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/jobx"
)

// registerProcessors installs the demo processors. Real deployments
// register their own per job type.
func registerProcessors(s *jobx.Scheduler) {
	s.Register("noop", jobx.ProcessorFunc(noopProcessor))
	s.Register("sleep", jobx.ProcessorFunc(sleepProcessor))
}

func noopProcessor(context.Context, *jobx.Job) (*jobx.PerformanceMetrics, error) {
	return &jobx.PerformanceMetrics{}, nil
}

type sleepPayload struct {
	DurationMS int `json:"duration_ms"`
}

// sleepProcessor waits payload.duration_ms (default 100) or until cancelled.
func sleepProcessor(ctx context.Context, job *jobx.Job) (*jobx.PerformanceMetrics, error) {
	p := sleepPayload{DurationMS: 100}
	if len(job.Payload.Content) > 0 {
		if err := json.Unmarshal(job.Payload.Content, &p); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	timer := time.NewTimer(time.Duration(p.DurationMS) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &jobx.PerformanceMetrics{
		ProcessingTime: time.Since(start),
		ResourceUsage:  map[string]float64{"slept_ms": float64(p.DurationMS)},
	}, nil
}
