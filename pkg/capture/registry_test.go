package capture

import (
	"context"
	"testing"
	"time"
)

func TestRegistryAwaitLateRegistration(t *testing.T) {
	reg := NewRegistry()
	target := NativeTarget("chart:cpu", nil)

	polls := 0
	w := Waiter{Attempts: 5, Delay: time.Millisecond, Sleep: func(ctx context.Context, _ time.Duration) error {
		polls++
		if polls == 2 {
			reg.Register(target)
		}
		return nil
	}}

	got, ok := reg.Await(context.Background(), w, "chart:cpu")
	if !ok {
		t.Fatal("expected target to become ready")
	}
	if got.ID() != "chart:cpu" || got.Kind() != SourceNative {
		t.Errorf("got %v", got)
	}
}

func TestRegistryAwaitMissing(t *testing.T) {
	reg := NewRegistry()
	clock := &fakeClock{}
	_, ok := reg.Await(context.Background(), Waiter{Attempts: 3, Delay: time.Millisecond, Sleep: clock.Sleep}, "missing")
	if ok {
		t.Error("missing target reported ready")
	}
	if len(clock.slept) != 3 {
		t.Errorf("sleeps = %d, want 3", len(clock.slept))
	}
}

func TestRegistryRegisterUnregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(RenderableTarget("panel", nil))
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
	if _, ok := reg.Lookup("panel"); !ok {
		t.Error("Lookup after Register failed")
	}
	reg.Unregister("panel")
	if _, ok := reg.Lookup("panel"); ok {
		t.Error("Lookup after Unregister succeeded")
	}

	var nilReg *Registry
	if _, ok := nilReg.Lookup("x"); ok {
		t.Error("nil registry lookup succeeded")
	}
}

func TestImmediateWaiter(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Await(context.Background(), Immediate(), "x"); ok {
		t.Error("expected not ready")
	}
}
