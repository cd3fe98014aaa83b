// Package observability provides hooks for metrics and tracing.
//
// Instrumentation is optional and carries no backend dependency. Consumers
// register hooks at startup to receive events about dump parsing, spawn
// graph rendering, the module directory cache and license lookups.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnParseStart(ctx, source)
//	// ... parse ...
//	observability.Pipeline().OnParseComplete(ctx, source, parsed, kept, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from dump analysis.
type PipelineHooks interface {
	// OnParseStart fires before a dump is decoded. source is a file path or
	// "<stdin>".
	OnParseStart(ctx context.Context, source string)
	// OnParseComplete reports how many goroutines were parsed and how many
	// survived the noise filter.
	OnParseComplete(ctx context.Context, source string, parsed, kept int, duration time.Duration, err error)

	// OnRenderStart fires before a spawn graph is rendered to format.
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss. Stale entries count as misses.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// LicenseHooks receives events from license auditing.
type LicenseHooks interface {
	// OnLookup fires before a module's source directory is resolved.
	OnLookup(ctx context.Context, module string)

	// OnLookupComplete reports the classified license, which is "UNKNOWN"
	// when the lookup failed.
	OnLookupComplete(ctx context.Context, module, license string, duration time.Duration, err error)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, string) {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopLicenseHooks is a no-op implementation of LicenseHooks.
type NoopLicenseHooks struct{}

func (NoopLicenseHooks) OnLookup(context.Context, string)                                       {}
func (NoopLicenseHooks) OnLookupComplete(context.Context, string, string, time.Duration, error) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	licenseHooks  LicenseHooks  = NoopLicenseHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetLicenseHooks registers custom license hooks.
func SetLicenseHooks(h LicenseHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		licenseHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// License returns the registered license hooks.
func License() LicenseHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return licenseHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	licenseHooks = NoopLicenseHooks{}
}
