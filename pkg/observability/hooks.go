// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about synthesis stages and cache operations.
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
//	    observability.SetSynthesisHooks(&mySynthesisHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Synthesis().OnStageStart(ctx, "learn", templateCount)
//	// ... run the stage ...
//	observability.Synthesis().OnStageComplete(ctx, "learn", candidateCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Synthesis Hooks
// =============================================================================

// SynthesisHooks receives events from the synthesis pipeline. The Runner
// emits stage events for "instantiate", "learn" and "prune"; loading has no
// stage events and is followed by OnRunStart with the loaded example count.
type SynthesisHooks interface {
	// OnRunStart records the beginning of a synthesis run.
	OnRunStart(ctx context.Context, runID string, exampleCount int)

	// OnRunComplete records the end of a synthesis run.
	OnRunComplete(ctx context.Context, runID string, constraintCount int, duration time.Duration, err error)

	// OnStageStart records the beginning of one stage, with its input size.
	OnStageStart(ctx context.Context, stage string, inputCount int)

	// OnStageComplete records the end of one stage, with its output size.
	OnStageComplete(ctx context.Context, stage string, outputCount int, duration time.Duration, err error)

	// OnSolverQuery records one MaxSMT query during pruning.
	OnSolverQuery(ctx context.Context, focus string, axis string, candidateCount int, duration time.Duration, sat bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSynthesisHooks is a no-op implementation of SynthesisHooks.
type NoopSynthesisHooks struct{}

func (NoopSynthesisHooks) OnRunStart(context.Context, string, int) {}
func (NoopSynthesisHooks) OnRunComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopSynthesisHooks) OnStageStart(context.Context, string, int) {}
func (NoopSynthesisHooks) OnStageComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopSynthesisHooks) OnSolverQuery(context.Context, string, string, int, time.Duration, bool) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	synthesisHooks SynthesisHooks = NoopSynthesisHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetSynthesisHooks registers custom synthesis hooks.
// This should be called once at application startup before any synthesis runs.
func SetSynthesisHooks(h SynthesisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		synthesisHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Synthesis returns the registered synthesis hooks.
func Synthesis() SynthesisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return synthesisHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	synthesisHooks = NoopSynthesisHooks{}
	cacheHooks = NoopCacheHooks{}
}
