// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/vmap/internal/backend/cpu"
	"github.com/born-ml/vmap/internal/parallel"
	"github.com/born-ml/vmap/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using one worker per CPU.
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend splitting large kernels across at
// most workers goroutines. Values below 2 run every kernel sequentially.
func NewWithWorkers(workers int) *Backend {
	if workers < 2 {
		return internalcpu.NewWithConfig(parallel.Sequential())
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = workers
	return internalcpu.NewWithConfig(cfg)
}
