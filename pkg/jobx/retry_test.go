package jobx

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:        10,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          5 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{60, 5 * time.Second},
		{5000, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_DelayWithFlatMultiplier(t *testing.T) {
	p := RetryPolicy{InitialDelay: 250 * time.Millisecond, BackoffMultiplier: 0.5, MaxDelay: time.Second}
	for attempt := 1; attempt <= 4; attempt++ {
		if got := p.Delay(attempt); got != 250*time.Millisecond {
			t.Fatalf("Delay(%d) = %v, want 250ms", attempt, got)
		}
	}
}

func TestRetryCoordinator_ShouldRetry(t *testing.T) {
	r := NewRetryCoordinator(RetryPolicy{MaxRetries: 2})
	if !r.ShouldRetry(0) || !r.ShouldRetry(1) {
		t.Fatal("retries below the budget should be allowed")
	}
	if r.ShouldRetry(2) {
		t.Fatal("retry budget exhausted")
	}
}

func TestRetryCoordinator_ScheduleAndCancel(t *testing.T) {
	r := NewRetryCoordinator(RetryPolicy{MaxRetries: 1})

	fired := make(chan string, 2)
	r.Schedule("a", 10*time.Millisecond, func() { fired <- "a" })

	var cancelledRan atomic.Bool
	r.Schedule("b", 10*time.Millisecond, func() { cancelledRan.Store(true) })
	if r.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", r.Pending())
	}
	if !r.Cancel("b") {
		t.Fatal("expected b to be pending")
	}

	select {
	case id := <-fired:
		if id != "a" {
			t.Fatalf("unexpected id %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	time.Sleep(30 * time.Millisecond)
	if cancelledRan.Load() {
		t.Fatal("cancelled retry must not run")
	}
	if r.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", r.Pending())
	}
}

func TestRetryCoordinator_StopReturnsPendingIDs(t *testing.T) {
	r := NewRetryCoordinator(RetryPolicy{MaxRetries: 1})
	r.Schedule("b", time.Hour, func() {})
	r.Schedule("a", time.Hour, func() {})

	ids := r.Stop()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if r.Pending() != 0 {
		t.Fatal("stop should clear all timers")
	}
}
