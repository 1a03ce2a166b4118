// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about render execution, preset operations, and content loads.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetPresetHooks(&myPresetHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnRenderStart(ctx, unitID, mode)
//	// ... run the render ...
//	observability.Render().OnRenderComplete(ctx, unitID, instances, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the render coordinator.
type RenderHooks interface {
	// Lifecycle events
	OnRenderStart(ctx context.Context, unitID, mode string)
	OnRenderComplete(ctx context.Context, unitID string, instances int, duration time.Duration, err error)

	// Stage events
	OnMeasure(ctx context.Context, unitID string, heuristic bool)
	OnPlace(ctx context.Context, unitID string, instances int)

	// OnCancel records a superseded or aborted render.
	OnCancel(ctx context.Context, unitID string)
}

// =============================================================================
// Preset Hooks
// =============================================================================

// PresetHooks receives events from preset store operations.
type PresetHooks interface {
	// OnPresetSave records a stored preset.
	OnPresetSave(ctx context.Context, backend, name string)

	// OnPresetLoad records a preset lookup.
	OnPresetLoad(ctx context.Context, backend, name string, found bool)

	// OnPresetDelete records a removed preset.
	OnPresetDelete(ctx context.Context, backend, name string)
}

// =============================================================================
// Content Hooks
// =============================================================================

// ContentHooks receives events from content loading.
type ContentHooks interface {
	// OnLoad records a loaded source.
	OnLoad(ctx context.Context, kind, path string, duration time.Duration)

	// OnLoadError records a content load failure.
	OnLoadError(ctx context.Context, kind, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string, string) {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopRenderHooks) OnMeasure(context.Context, string, bool) {}
func (NoopRenderHooks) OnPlace(context.Context, string, int)    {}
func (NoopRenderHooks) OnCancel(context.Context, string)        {}

// NoopPresetHooks is a no-op implementation of PresetHooks.
type NoopPresetHooks struct{}

func (NoopPresetHooks) OnPresetSave(context.Context, string, string)       {}
func (NoopPresetHooks) OnPresetLoad(context.Context, string, string, bool) {}
func (NoopPresetHooks) OnPresetDelete(context.Context, string, string)     {}

// NoopContentHooks is a no-op implementation of ContentHooks.
type NoopContentHooks struct{}

func (NoopContentHooks) OnLoad(context.Context, string, string, time.Duration) {}
func (NoopContentHooks) OnLoadError(context.Context, string, string, error)    {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks  RenderHooks  = NoopRenderHooks{}
	presetHooks  PresetHooks  = NoopPresetHooks{}
	contentHooks ContentHooks = NoopContentHooks{}
	hooksMu      sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any renders.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetPresetHooks registers custom preset hooks.
// This should be called once at application startup before any store operations.
func SetPresetHooks(h PresetHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		presetHooks = h
	}
}

// SetContentHooks registers custom content hooks.
// This should be called once at application startup before any loads.
func SetContentHooks(h ContentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		contentHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Preset returns the registered preset hooks.
func Preset() PresetHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return presetHooks
}

// Content returns the registered content hooks.
func Content() ContentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return contentHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	presetHooks = NoopPresetHooks{}
	contentHooks = NoopContentHooks{}
}
