package jobx

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority orders pending jobs. Higher values dispatch first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// ParsePriority parses a priority name. The empty string is Normal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return PriorityNormal, jobxErrors.New(ErrInvalidJob).WithDetail("priority", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobDescriptor is what a caller submits to ScheduleJob.
type JobDescriptor struct {
	// ID is optional; a UUID is generated when empty.
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"job_type"`
	Priority Priority          `json:"priority"`
	Payload  json.RawMessage   `json:"payload,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Payload is the opaque content handed to a processor.
type Payload struct {
	Content  json.RawMessage   `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PerformanceMetrics is reported by a processor for one execution.
type PerformanceMetrics struct {
	ProcessingTime time.Duration      `json:"processing_time"`
	ResourceUsage  map[string]float64 `json:"resource_usage,omitempty"`
}

// Job is the scheduler's record of one unit of work.
// Values returned to callers and processors are copies.
type Job struct {
	ID          string              `json:"id"`
	Type        string              `json:"job_type"`
	Priority    Priority            `json:"priority"`
	Payload     Payload             `json:"payload"`
	Status      JobStatus           `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	RetryCount  int                 `json:"retry_count"`
	LastError   string              `json:"last_error,omitempty"`
	Metrics     *PerformanceMetrics `json:"metrics,omitempty"`
}

func newJob(id string, desc JobDescriptor, now time.Time) *Job {
	j := &Job{
		ID:        id,
		Type:      desc.Type,
		Priority:  desc.Priority,
		Status:    JobStatusPending,
		CreatedAt: now,
		Payload: Payload{
			Content:  append(json.RawMessage(nil), desc.Payload...),
			Metadata: copyStrings(desc.Metadata),
		},
	}
	return j
}

func (j *Job) clone() *Job {
	c := *j
	c.Payload.Content = append(json.RawMessage(nil), j.Payload.Content...)
	c.Payload.Metadata = copyStrings(j.Payload.Metadata)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Metrics != nil {
		m := *j.Metrics
		if j.Metrics.ResourceUsage != nil {
			m.ResourceUsage = make(map[string]float64, len(j.Metrics.ResourceUsage))
			for k, v := range j.Metrics.ResourceUsage {
				m.ResourceUsage[k] = v
			}
		}
		c.Metrics = &m
	}
	return &c
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
