package capture

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/stackreport/pkg/observability"
)

// Registry holds targets by ID. Components register when they mount, which
// may happen after a build has started, so lookups go through [Registry.Await].
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register adds or replaces a target.
func (r *Registry) Register(t Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[t.ID()] = t
}

// Unregister removes a target.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, id)
}

// Lookup returns the target registered under id.
func (r *Registry) Lookup(id string) (Target, bool) {
	if r == nil {
		return Target{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Await waits for id to be registered using w.
func (r *Registry) Await(ctx context.Context, w Waiter, id string) (Target, bool) {
	attempts := 0
	t, ok := WaitFor(ctx, w, func() (Target, bool) {
		attempts++
		return r.Lookup(id)
	})
	observability.Capture().OnReadiness(ctx, id, attempts, ok)
	return t, ok
}

// sleepless is a Sleep that returns immediately.
func sleepless(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// Immediate returns a waiter that probes once without sleeping.
func Immediate() Waiter {
	return Waiter{Attempts: 1, Sleep: sleepless}
}
