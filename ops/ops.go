// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the operator library: element-wise math,
// reductions, in-place and out= variants, views and utilities.
//
// Example:
//
//	d := dispatch.New()
//	lib, err := ops.Register(d, cpu.New())
//	if err != nil {
//	    return err
//	}
//	_ = lib.RegisterBatchingRules() // optional fast paths for pointwise ops
package ops

import (
	"github.com/born-ml/vmap/dispatch"
	"github.com/born-ml/vmap/internal/ops"
	"github.com/born-ml/vmap/tensor"
)

// Library is the operator set registered on a dispatcher.
type Library = ops.Library

// Context provides the backend kernels run on.
type Context = ops.Context

// Handler computes an operator on its unboxed arguments.
type Handler = ops.Handler

// Register installs every operator of the library on d, computing with backend.
func Register(d *dispatch.Dispatcher, backend tensor.Backend) (*Library, error) {
	return ops.Register(d, backend)
}

// BatchingRuleOps returns the operators Library.RegisterBatchingRules covers.
func BatchingRuleOps() []string {
	return ops.BatchingRuleOps()
}
