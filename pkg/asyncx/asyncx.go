package asyncx

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ─── Future ──────────────────────────────────────────────────────────────────

type result[T any] struct {
	value T
	err   error
}

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	ch  chan result[T]
	res *result[T]
	mu  sync.Mutex
}

// Run executes fn in a goroutine and returns a Future for its result.
// A panic in fn resolves the Future with a *PanicError.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		v, err := guard(fn)
		f.ch <- result[T]{value: v, err: err}
	}()
	return f
}

// Await blocks until the Future completes and returns its value and error.
// Subsequent calls return the cached result.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// ─── Fire and forget ─────────────────────────────────────────────────────────

// Do fires fn in a goroutine and forgets it.
// A panic in fn is recovered and dropped.
func Do(fn func()) {
	go func() {
		defer func() { _ = recover() }()
		fn()
	}()
}

// DoCtx fires fn in a goroutine only if ctx is not already done.
func DoCtx(ctx context.Context, fn func(context.Context)) {
	Do(func() {
		select {
		case <-ctx.Done():
			return
		default:
			fn(ctx)
		}
	})
}

// ─── Panics ──────────────────────────────────────────────────────────────────

// PanicError is returned in place of a value when the guarded function panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// guard calls fn and converts a panic into a *PanicError.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// ─── Timeout ──────────────────────────────────────────────────────────────────

// WithTimeout runs fn with a deadline of d.
// Returns context.DeadlineExceeded if fn does not finish in time, or the
// parent's error if ctx is cancelled first. fn keeps running in the
// background after a timeout and should watch its context.
// A panic in fn is returned as a *PanicError.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := guard(func() (T, error) { return fn(ctx) })
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
