package capture

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	slept []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	return ctx.Err()
}

func (c *fakeClock) total() time.Duration {
	var sum time.Duration
	for _, d := range c.slept {
		sum += d
	}
	return sum
}

func TestWaitForNeverReady(t *testing.T) {
	clock := &fakeClock{}
	w := Waiter{Attempts: 5, Delay: 200 * time.Millisecond, Sleep: clock.Sleep}

	probes := 0
	v, ok := WaitFor(context.Background(), w, func() (int, bool) {
		probes++
		return 0, false
	})

	if ok || v != 0 {
		t.Errorf("WaitFor = (%d, %v), want (0, false)", v, ok)
	}
	if probes != 5 {
		t.Errorf("probes = %d, want 5", probes)
	}
	if got, want := clock.total(), 5*200*time.Millisecond; got != want {
		t.Errorf("total wait = %v, want %v", got, want)
	}
}

func TestWaitForReadyOnThirdAttempt(t *testing.T) {
	clock := &fakeClock{}
	w := Waiter{Attempts: 5, Delay: 50 * time.Millisecond, Sleep: clock.Sleep}

	probes := 0
	v, ok := WaitFor(context.Background(), w, func() (string, bool) {
		probes++
		return "chart", probes == 3
	})

	if !ok || v != "chart" {
		t.Fatalf("WaitFor = (%q, %v), want (chart, true)", v, ok)
	}
	if probes != 3 {
		t.Errorf("probes = %d, want 3", probes)
	}
	if len(clock.slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(clock.slept))
	}
}

func TestWaitForReadyImmediately(t *testing.T) {
	clock := &fakeClock{}
	w := Waiter{Attempts: 5, Delay: time.Second, Sleep: clock.Sleep}

	_, ok := WaitFor(context.Background(), w, func() (int, bool) { return 1, true })
	if !ok {
		t.Fatal("expected ready")
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v, want no sleep", clock.slept)
	}
}

func TestWaitForCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probes := 0
	_, ok := WaitFor(ctx, DefaultWaiter(), func() (int, bool) {
		probes++
		return 1, true
	})
	if ok {
		t.Error("cancelled context should report not ready")
	}
	if probes != 0 {
		t.Errorf("probes = %d, want 0", probes)
	}
}

func TestWaitForRealSleep(t *testing.T) {
	w := Waiter{Attempts: 3, Delay: 5 * time.Millisecond}
	start := time.Now()
	_, ok := WaitFor(context.Background(), w, func() (int, bool) { return 0, false })
	if ok {
		t.Fatal("expected not ready")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("elapsed %v, want at least 15ms", elapsed)
	}
}

func TestDefaultWaiter(t *testing.T) {
	w := DefaultWaiter()
	if w.Attempts != 5 || w.Delay != 200*time.Millisecond {
		t.Errorf("DefaultWaiter() = %+v", w)
	}
}
