// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about store mutations, layout runs and
// storage round trips.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, which keeps the core
// packages free of import cycles and backend dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(persons)
//	// ... compute layout ...
//	observability.Layout().OnLayoutComplete(persons, duration, degraded)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from entity store mutations.
type StoreHooks interface {
	// OnMutation records a mutating store operation and its outcome.
	// err is nil on success.
	OnMutation(op string, err error)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	OnLayoutStart(persons int)
	OnLayoutComplete(persons int, duration time.Duration, degraded int)
}

// =============================================================================
// Storage Hooks
// =============================================================================

// StorageHooks receives events from tree repositories.
type StorageHooks interface {
	OnLoad(ctx context.Context, backend, location string, duration time.Duration, err error)
	OnSave(ctx context.Context, backend, location string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnMutation(string, error) {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(int)                       {}
func (NoopLayoutHooks) OnLayoutComplete(int, time.Duration, int) {}

// NoopStorageHooks is a no-op implementation of StorageHooks.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnLoad(context.Context, string, string, time.Duration, error) {}
func (NoopStorageHooks) OnSave(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks   StoreHooks   = NoopStoreHooks{}
	layoutHooks  LayoutHooks  = NoopLayoutHooks{}
	storageHooks StorageHooks = NoopStorageHooks{}
	hooksMu      sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetStorageHooks registers custom storage hooks.
func SetStorageHooks(h StorageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storageHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Storage returns the registered storage hooks.
func Storage() StorageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storageHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	layoutHooks = NoopLayoutHooks{}
	storageHooks = NoopStorageHooks{}
}
