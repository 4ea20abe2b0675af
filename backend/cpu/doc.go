// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Stride-aware kernels that read permuted and expanded views directly
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/vmap/backend/cpu"
//	    "github.com/born-ml/vmap/dispatch"
//	    "github.com/born-ml/vmap/ops"
//	)
//
//	func main() {
//	    d := dispatch.New()
//	    lib, err := ops.Register(d, cpu.New())
//	    ...
//	}
//
// # Performance
//
// Element-wise kernels and reductions split large outputs into chunks
// processed by a worker pool. Use NewWithWorkers(1) for single-threaded
// execution.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
