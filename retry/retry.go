// Package retry runs an operation a bounded number of times until it
// succeeds.
//
// The policy is flat: every error is retried, attempts run back
// to back with no delay, and only the last error survives. Operations must be
// safe to repeat with the same arguments.
package retry

import "context"

// Operation is a single attempt. It receives the same args on every call.
type Operation[A, T any] func(ctx context.Context, args A) (T, error)

// Do calls op up to maxAttempts times, sequentially, and returns the first
// successful result. When every attempt fails it returns the zero T and the
// error of the last attempt. A maxAttempts below 1 runs op once.
//
// ctx is handed to op untouched; Do itself never checks it, so a cancelled
// context only shortens attempts that honour it.
func Do[A, T any](ctx context.Context, maxAttempts int, op Operation[A, T], args A) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := op(ctx, args)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}
