// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the strided raw tensors operators run on.
//
// # Overview
//
// A RawTensor is a window (shape, strides, offset) over reference-counted
// storage. View operations never copy:
//   - Permute reorders dimensions
//   - Unsqueeze inserts a size-1 dimension
//   - Expand broadcasts size-1 dimensions with a zero stride
//   - Select indexes one position of a dimension
//
// Writes through a view are visible through every tensor sharing its storage.
//
// # Basic Usage
//
//	x, _ := tensor.Arange(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	row, _ := x.Select(0, 1)      // [3 4 5], shares x's storage
//	col, _ := x.Permute(1, 0)     // shape [3 2]
//	both, _ := tensor.Stack([]*tensor.RawTensor{x, x}) // shape [2 2 3]
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - bool (boolean masks)
package tensor
