package jobx

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter bounds the number of jobs executing at once.
type ConcurrencyLimiter struct {
	sem   *semaphore.Weighted
	size  int64
	inUse atomic.Int64
}

// NewConcurrencyLimiter creates a limiter with n slots.
func NewConcurrencyLimiter(n int) *ConcurrencyLimiter {
	if n <= 0 {
		n = 1
	}
	return &ConcurrencyLimiter{sem: semaphore.NewWeighted(int64(n)), size: int64(n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.inUse.Add(1)
	return nil
}

// Release returns a slot.
func (l *ConcurrencyLimiter) Release() {
	l.inUse.Add(-1)
	l.sem.Release(1)
}

// InUse returns the number of held slots.
func (l *ConcurrencyLimiter) InUse() int { return int(l.inUse.Load()) }

// Capacity returns the total number of slots.
func (l *ConcurrencyLimiter) Capacity() int { return int(l.size) }
