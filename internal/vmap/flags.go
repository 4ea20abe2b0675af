package vmap

import (
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"
)

var (
	fallbackEnabled        atomic.Bool
	fallbackWarningEnabled atomic.Bool

	// warned records operators that already emitted the slow-path advisory.
	warned sync.Map

	// warnf is the advisory sink.
	warnf = klog.Warningf
)

func init() {
	fallbackEnabled.Store(true)
	fallbackWarningEnabled.Store(true)
}

// IsFallbackEnabled reports whether operators without a batching rule may run
// through the per-slice fallback. Defaults to true.
func IsFallbackEnabled() bool {
	return fallbackEnabled.Load()
}

// SetFallbackEnabled enables or disables the per-slice fallback. While
// disabled, every call that would take the fallback fails with
// ErrFallbackDisabled.
func SetFallbackEnabled(enabled bool) {
	fallbackEnabled.Store(enabled)
}

// IsFallbackWarningEnabled reports whether the slow-path advisory is emitted.
// Defaults to true.
func IsFallbackWarningEnabled() bool {
	return fallbackWarningEnabled.Load()
}

// SetFallbackWarningEnabled turns the slow-path advisory on or off.
func SetFallbackWarningEnabled(enabled bool) {
	fallbackWarningEnabled.Store(enabled)
}

// warnOnce emits the advisory for operator the first time it takes the slow path.
func warnOnce(operator string) {
	if _, seen := warned.LoadOrStore(operator, struct{}{}); seen {
		return
	}
	warnf("There is a performance drop because we have not yet implemented the batching rule for %s. "+
		"Register a batching rule for it to avoid the per-example loop.", operator)
}
