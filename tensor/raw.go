// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/vmap/internal/tensor"
)

// RawTensor is the low-level strided tensor representation.
//
// RawTensor provides:
//   - Shape, stride and type information via Shape(), Strides(), DType()
//   - Zero-copy views via Permute(), Unsqueeze(), Expand(), Select()
//   - Element access via Float64At(), SetFloat64At() and Float64s()
//   - Reference counting for shared storage
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32() // Type-safe access
//	view := raw.Clone()     // Shares buffer via reference counting
type RawTensor = tensor.RawTensor

// DType is a constraint for tensor element types.
type DType = tensor.DType

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Bool    DataType = tensor.Bool
)

// Device represents the compute device for tensor operations.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// NewRaw creates a zero-initialized contiguous tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a contiguous tensor holding a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// Full creates a tensor with every element set to value.
func Full(shape Shape, dtype DataType, value float64, device Device) (*RawTensor, error) {
	return tensor.Full(shape, dtype, value, device)
}

// Arange creates a tensor holding 0, 1, 2, ... in row-major order.
func Arange(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Arange(shape, dtype, device)
}

// Stack joins equally shaped tensors along a new leading dimension.
func Stack(tensors []*RawTensor) (*RawTensor, error) {
	return tensor.Stack(tensors)
}

// Cat concatenates tensors along an existing dimension.
func Cat(tensors []*RawTensor, dim int) (*RawTensor, error) {
	return tensor.Cat(tensors, dim)
}
