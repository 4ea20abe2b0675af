// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vmap provides vectorizing map over dispatcher operators.
//
// Vmap runs a function once over a whole batch: mapped inputs become
// BatchedTensors and every operator called on them is routed to a batching
// rule or, failing that, to a generic fallback that loops over the batch,
// calls the operator on each slice and stacks the results.
//
// Example:
//
//	d := dispatch.New()
//	lib, _ := ops.Register(d, cpu.New())
//	ip := vmap.New(d)
//
//	add := func(args []dispatch.IValue) ([]dispatch.IValue, error) {
//	    return d.Call("add.Tensor", args...)
//	}
//	out, err := ip.Vmap(add, []vmap.InDim{vmap.Dim(0), vmap.NoDim}, 0)(
//	    []dispatch.IValue{dispatch.TensorValue(xs), dispatch.TensorValue(y)})
//
// The fallback logs a one-time warning per operator through klog; use
// SetFallbackWarningEnabled(false) to silence it and SetFallbackEnabled(false)
// to turn operators without a batching rule into errors.
package vmap

import (
	"github.com/born-ml/vmap/dispatch"
	"github.com/born-ml/vmap/internal/vmap"
)

// Interpreter tracks the active vmap levels for one dispatcher.
type Interpreter = vmap.Interpreter

// Func is a function over boxed values that Vmap can vectorize.
type Func = vmap.Func

// InDim selects the mapped dimension of one argument.
type InDim = vmap.InDim

// BatchedTensor is a tensor carrying batch dimensions for vmap levels.
type BatchedTensor = vmap.BatchedTensor

// BatchDim tags one physical dimension with its vmap level.
type BatchDim = vmap.BatchDim

// LevelSet is a set of vmap levels.
type LevelSet = vmap.LevelSet

// NoDim marks an argument that is passed to every batch entry unchanged.
var NoDim = vmap.NoDim

// Errors reported by Vmap and the batching fallback.
var (
	ErrUnsupportedOperator = vmap.ErrUnsupportedOperator
	ErrFallbackDisabled    = vmap.ErrFallbackDisabled
	ErrZeroSizedBatch      = vmap.ErrZeroSizedBatch
	ErrInPlaceIncompatible = vmap.ErrInPlaceIncompatible
	ErrInconsistentResult  = vmap.ErrInconsistentResult
	ErrBatchSizeMismatch   = vmap.ErrBatchSizeMismatch
)

// New creates an interpreter and installs the batching fallback on d.
func New(d *dispatch.Dispatcher) *Interpreter {
	return vmap.New(d)
}

// Dim maps an argument along dimension d. Negative values count from the end.
func Dim(d int) InDim {
	return vmap.Dim(d)
}

// CheckSchema reports why the fallback would reject an operator, or nil.
func CheckSchema(schema *dispatch.Schema) error {
	return vmap.CheckSchema(schema)
}

// IsFallbackEnabled reports whether operators without a batching rule may
// run through the fallback.
func IsFallbackEnabled() bool { return vmap.IsFallbackEnabled() }

// SetFallbackEnabled turns the fallback on or off for the whole process.
func SetFallbackEnabled(enabled bool) { vmap.SetFallbackEnabled(enabled) }

// IsFallbackWarningEnabled reports whether the fallback warns on first use
// of each operator.
func IsFallbackWarningEnabled() bool { return vmap.IsFallbackWarningEnabled() }

// SetFallbackWarningEnabled turns the fallback warning on or off.
func SetFallbackWarningEnabled(enabled bool) { vmap.SetFallbackWarningEnabled(enabled) }
