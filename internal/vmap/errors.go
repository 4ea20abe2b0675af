package vmap

import (
	"errors"
	"fmt"
)

// Errors reported by the batching fallback. Each returned error names the
// operator and wraps one of these sentinels.
var (
	// ErrUnsupportedOperator marks operators the per-slice fallback cannot run.
	ErrUnsupportedOperator = errors.New("vmap: unsupported operator")

	// ErrFallbackDisabled is returned when an operator needs the fallback
	// while it is turned off by SetFallbackEnabled(false).
	ErrFallbackDisabled = fmt.Errorf("%w: fallback disabled", ErrUnsupportedOperator)

	// ErrZeroSizedBatch is returned for vmap over a dimension of size 0.
	ErrZeroSizedBatch = fmt.Errorf("%w: zero-sized batch dimension", ErrUnsupportedOperator)

	// ErrInPlaceIncompatible is returned when an in-place operator would have
	// to grow self to absorb a batch dimension it does not have.
	ErrInPlaceIncompatible = errors.New("vmap: incompatible in-place operation")

	// ErrInconsistentResult is returned when some slices produce an undefined
	// tensor and others a defined one for the same return.
	ErrInconsistentResult = errors.New("vmap: inconsistent per-example results")

	// ErrBatchSizeMismatch is returned when tensors disagree on the size of
	// the same vmap level.
	ErrBatchSizeMismatch = errors.New("vmap: batch size mismatch")
)

// internalError panics on a broken invariant of the transform stack. These
// are bugs upstream of the fallback, not user errors.
func internalError(format string, args ...any) {
	panic(fmt.Sprintf("vmap: internal error: "+format, args...))
}
