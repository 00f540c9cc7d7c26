// Package asyncx provides the small set of concurrency primitives the
// scheduler builds on.
//
// # Futures
//
// [Run] starts work immediately in a goroutine and [Future.Await] blocks
// until the result is ready.
//
//	fut := asyncx.Run(func() (int, error) { return compute() })
//	v, err := fut.Await()
//
// # Fire and forget
//
// [Do] and [DoCtx] launch a goroutine whose outcome nobody waits for. They
// are used for telemetry pushes, which must never block a caller.
//
// # Timeouts
//
// [WithTimeout] races a function against a deadline. The function receives a
// context that is cancelled when the deadline passes, so cooperative code can
// stop early. Panics inside the function surface as [*PanicError] instead of
// crashing the process:
//
//	v, err := asyncx.WithTimeout(ctx, 5*time.Second, func(ctx context.Context) (*Result, error) {
//	    return processor.Process(ctx, job)
//	})
//	var pe *asyncx.PanicError
//	if errors.As(err, &pe) { ... }
package asyncx
