package jobx

import (
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/logx"
)

// CircuitState is the state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

func (s CircuitState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CircuitState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "closed":
		*s = CircuitClosed
	case "open":
		*s = CircuitOpen
	case "half_open":
		*s = CircuitHalfOpen
	default:
		return fmt.Errorf("jobx: unknown circuit state %q", b)
	}
	return nil
}

// CircuitSnapshot is a point-in-time view of the breaker.
type CircuitSnapshot struct {
	State           CircuitState `json:"state"`
	FailureCount    int          `json:"failure_count"`
	LastFailureTime *time.Time   `json:"last_failure_time,omitempty"`
}

// CircuitBreaker stops admission after repeated failures and probes
// for recovery once the recovery timeout has elapsed.
type CircuitBreaker struct {
	policy CircuitPolicy
	now    func() time.Time

	mu             sync.Mutex
	state          CircuitState
	failures       int
	lastFailure    time.Time
	trialsInFlight int
	// episode numbers HalfOpen periods; trial grants carry it.
	episode uint64
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(policy CircuitPolicy, now func() time.Time) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	if policy.HalfOpenMaxRequests <= 0 {
		policy.HalfOpenMaxRequests = 1
	}
	return &CircuitBreaker{policy: policy, now: now}
}

// CanAcceptJobs reports whether new work may be admitted. An Open breaker
// whose recovery timeout has elapsed moves to HalfOpen here.
func (b *CircuitBreaker) CanAcceptJobs() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state != CircuitOpen
}

// AllowDispatch reports whether a queued job may start now. While HalfOpen
// only HalfOpenMaxRequests trial jobs may be in flight; for those, trial is
// the non-zero HalfOpen episode that granted them.
func (b *CircuitBreaker) AllowDispatch() (ok bool, trial uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	switch b.state {
	case CircuitClosed:
		return true, 0
	case CircuitHalfOpen:
		if b.trialsInFlight >= b.policy.HalfOpenMaxRequests {
			return false, 0
		}
		b.trialsInFlight++
		return true, b.episode
	default:
		return false, 0
	}
}

// AbortTrial returns a trial slot whose job ended without an outcome.
// Grants from an earlier HalfOpen episode are ignored.
func (b *CircuitBreaker) AbortTrial(trial uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if trial == 0 || trial != b.episode || b.state != CircuitHalfOpen {
		return
	}
	if b.trialsInFlight > 0 {
		b.trialsInFlight--
	}
}

// RecordSuccess notes a successful execution.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitClosed:
		b.failures = 0
	case CircuitHalfOpen:
		b.transition(CircuitClosed)
		b.failures = 0
		b.trialsInFlight = 0
	}
}

// RecordFailure notes a failed execution.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	switch b.state {
	case CircuitClosed:
		if b.failures >= b.policy.FailureThreshold {
			b.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		b.trialsInFlight = 0
		b.transition(CircuitOpen)
	}
}

// State returns the stored state without evaluating the recovery timeout.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RetryAfter returns how long until an Open breaker may probe again.
// It is zero when the breaker is not Open.
func (b *CircuitBreaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != CircuitOpen {
		return 0
	}
	d := b.policy.RecoveryTimeout - b.now().Sub(b.lastFailure)
	if d < 0 {
		return 0
	}
	return d
}

// Snapshot returns the breaker's state, failure count and last failure time.
func (b *CircuitBreaker) Snapshot() CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := CircuitSnapshot{State: b.state, FailureCount: b.failures}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		s.LastFailureTime = &t
	}
	return s
}

// maybeHalfOpen must be called with mu held.
func (b *CircuitBreaker) maybeHalfOpen() {
	if b.state == CircuitOpen && b.now().Sub(b.lastFailure) > b.policy.RecoveryTimeout {
		b.trialsInFlight = 0
		b.episode++
		b.transition(CircuitHalfOpen)
	}
}

func (b *CircuitBreaker) transition(to CircuitState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	entry := logx.WithFields(logx.Fields{
		"from":          from.String(),
		"to":            to.String(),
		"failure_count": b.failures,
	})
	if to == CircuitOpen {
		entry.Warn("jobx: circuit breaker opened")
		return
	}
	entry.Info("jobx: circuit breaker state changed")
}
