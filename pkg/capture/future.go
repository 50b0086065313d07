package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// Await runs fn in its own goroutine and waits for it, for timeout, or for
// ctx, whichever comes first. A timeout of zero or less waits without a
// bound. A panic in fn is returned as an error.
//
// On timeout the goroutine is abandoned; fn receives a cancelled context and
// its eventual result is dropped.
func Await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(runCtx)
		done <- outcome{val: v, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case o := <-done:
		return o.val, o.err
	case <-expired:
		return zero, errors.New(errors.ErrCodeTimeout, "no result after %s", timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
