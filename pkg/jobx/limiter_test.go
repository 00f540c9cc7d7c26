package jobx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConcurrencyLimiter_TracksSlots(t *testing.T) {
	l := NewConcurrencyLimiter(2)
	ctx := context.Background()

	for range 2 {
		if err := l.Acquire(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if l.InUse() != 2 || l.Capacity() != 2 {
		t.Fatalf("in use = %d, capacity = %d", l.InUse(), l.Capacity())
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Acquire(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on a full limiter, got %v", err)
	}
	if l.InUse() != 2 {
		t.Fatalf("failed acquire must not count, in use = %d", l.InUse())
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	l.Release()
	l.Release()
	if l.InUse() != 0 {
		t.Fatalf("in use = %d after releasing everything", l.InUse())
	}
}

func TestConcurrencyLimiter_ClampsSize(t *testing.T) {
	if c := NewConcurrencyLimiter(0).Capacity(); c != 1 {
		t.Fatalf("capacity = %d, want 1", c)
	}
}
