// Package observability provides hooks for metrics, tracing, and logging.
//
// The export engine emits events through small hook interfaces instead of
// depending on a metrics backend. Hosts register implementations once at
// startup; the defaults are no-ops.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExportHooks(&myExportHooks{})
//	    observability.SetCaptureHooks(&myCaptureHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Export().OnBuildStart(ctx, exportID, "csv")
//	// ... build ...
//	observability.Export().OnBuildComplete(ctx, exportID, "csv", size, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from the export orchestrator.
type ExportHooks interface {
	OnExportStart(ctx context.Context, exportID string, formats []string)
	OnExportComplete(ctx context.Context, exportID, state string, duration time.Duration, err error)

	OnBuildStart(ctx context.Context, exportID, format string)
	OnBuildComplete(ctx context.Context, exportID, format string, size int, duration time.Duration, err error)

	OnDelivery(ctx context.Context, exportID, format, filename string, err error)
}

// =============================================================================
// Capture Hooks
// =============================================================================

// CaptureHooks receives events from the capture service.
type CaptureHooks interface {
	// OnCapture records one capture attempt. err is nil on success.
	OnCapture(ctx context.Context, targetID, source string, duration time.Duration, err error)

	// OnReadiness records a readiness wait and how many polls it took.
	OnReadiness(ctx context.Context, targetID string, attempts int, ready bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExportStart(context.Context, string, []string) {}
func (NoopExportHooks) OnExportComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopExportHooks) OnBuildStart(context.Context, string, string) {}
func (NoopExportHooks) OnBuildComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopExportHooks) OnDelivery(context.Context, string, string, string, error) {}

// NoopCaptureHooks is a no-op implementation of CaptureHooks.
type NoopCaptureHooks struct{}

func (NoopCaptureHooks) OnCapture(context.Context, string, string, time.Duration, error) {}
func (NoopCaptureHooks) OnReadiness(context.Context, string, int, bool)                  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	exportHooks  ExportHooks  = NoopExportHooks{}
	captureHooks CaptureHooks = NoopCaptureHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetExportHooks registers custom export hooks. nil is ignored.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// SetCaptureHooks registers custom capture hooks. nil is ignored.
func SetCaptureHooks(h CaptureHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		captureHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Capture returns the registered capture hooks.
func Capture() CaptureHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return captureHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	exportHooks = NoopExportHooks{}
	captureHooks = NoopCaptureHooks{}
	cacheHooks = NoopCacheHooks{}
}
