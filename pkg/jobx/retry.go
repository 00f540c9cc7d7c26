package jobx

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Delay returns the wait before the n-th retry (1-based):
// min(InitialDelay * BackoffMultiplier^(n-1), MaxDelay).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialDelay) * math.Pow(mult, float64(n-1))
	if p.MaxDelay > 0 && (math.IsInf(d, 0) || math.IsNaN(d) || d > float64(p.MaxDelay)) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// RetryCoordinator decides whether a failed job gets another attempt and
// holds the timers of jobs waiting to be re-admitted.
type RetryCoordinator struct {
	policy RetryPolicy

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewRetryCoordinator creates a coordinator for policy.
func NewRetryCoordinator(policy RetryPolicy) *RetryCoordinator {
	return &RetryCoordinator{policy: policy, timers: make(map[string]*time.Timer)}
}

// ShouldRetry reports whether a job that has already been retried
// retryCount times may be retried again.
func (r *RetryCoordinator) ShouldRetry(retryCount int) bool {
	return retryCount < r.policy.MaxRetries
}

// NextDelay returns the delay before the given retry attempt.
func (r *RetryCoordinator) NextDelay(attempt int) time.Duration {
	return r.policy.Delay(attempt)
}

// Schedule runs fn after delay without blocking the caller.
// A previous timer for the same id is replaced.
func (r *RetryCoordinator) Schedule(id string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		r.mu.Lock()
		if r.timers[id] != t {
			r.mu.Unlock()
			return
		}
		delete(r.timers, id)
		r.mu.Unlock()
		fn()
	})
	r.timers[id] = t
}

// Cancel stops the pending re-admission of id. It reports whether one was pending.
func (r *RetryCoordinator) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, id)
	return true
}

// Stop cancels every pending re-admission and returns the affected ids.
func (r *RetryCoordinator) Stop() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.timers))
	for id, t := range r.timers {
		t.Stop()
		ids = append(ids, id)
	}
	r.timers = make(map[string]*time.Timer)
	sort.Strings(ids)
	return ids
}

// Pending returns the number of jobs waiting for re-admission.
func (r *RetryCoordinator) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
