package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/asyncx"
)

func TestWithTimeout_ReturnsValue(t *testing.T) {
	v, err := asyncx.WithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("expected 7, nil; got %d, %v", v, err)
	}
}

func TestWithTimeout_DeadlineExceeded(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := asyncx.WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTimeout_RecoversPanic(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("kaboom")
	})

	var pe *asyncx.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Value != "kaboom" || len(pe.Stack) == 0 {
		t.Fatalf("unexpected panic error %+v", pe)
	}
}

func TestRun_AwaitIsCached(t *testing.T) {
	var calls atomic.Int32
	f := asyncx.Run(func() (string, error) {
		calls.Add(1)
		return "ok", nil
	})

	for range 3 {
		v, err := f.Await()
		if err != nil || v != "ok" {
			t.Fatalf("unexpected result %q, %v", v, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected fn to run once, ran %d times", calls.Load())
	}
}

func TestDo_SurvivesPanic(t *testing.T) {
	done := make(chan struct{})
	asyncx.Do(func() {
		defer close(done)
		panic("ignored")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do never ran")
	}
}
