package capture

import (
	"context"
	"time"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 200 * time.Millisecond
)

// Waiter polls a readiness probe a fixed number of times with a fixed delay
// between attempts. The worst-case wait is Attempts × Delay.
type Waiter struct {
	Attempts int
	Delay    time.Duration

	// Sleep waits for d or until ctx is done. nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultWaiter returns a waiter with 5 attempts 200ms apart.
func DefaultWaiter() Waiter {
	return Waiter{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// WaitFor calls probe until it reports ready and returns its value. When the
// attempts are exhausted or ctx ends first it returns the zero value and
// false. probe is called at most w.Attempts times and the waiter sleeps
// w.Delay after every failed attempt.
func WaitFor[T any](ctx context.Context, w Waiter, probe func() (T, bool)) (T, bool) {
	var zero T
	attempts := w.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return zero, false
		}
		if v, ok := probe(); ok {
			return v, true
		}
		if err := sleep(ctx, w.Delay); err != nil {
			return zero, false
		}
	}
	return zero, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
