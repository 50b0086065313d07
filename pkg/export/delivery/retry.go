package delivery

import (
	"context"
	stderrors "errors"
	"time"
)

// TransientError marks a save failure that may succeed when retried, such
// as a throttled or 5xx response from an object store.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is marked with [TransientError].
func IsTransient(err error) bool {
	return stderrors.As(err, new(*TransientError))
}

// Retry is a [Sink] that retries saves failing with a [TransientError].
// The delay doubles after each failed attempt. Other errors are returned
// immediately. The blob is re-read from the start on every attempt.
type Retry struct {
	Sink     Sink
	Attempts int
	Delay    time.Duration
}

func (r Retry) Save(ctx context.Context, b Blob, filename string) error {
	attempts := max(r.Attempts, 1)
	delay := r.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := r.Sink.Save(ctx, b, filename)
		if err == nil {
			return nil
		}
		if lastErr = err; !IsTransient(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
