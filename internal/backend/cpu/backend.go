// Package cpu implements stride-aware reference kernels on the CPU.
//
// Every kernel reads its inputs through RawTensor.Float64At, so inputs may be
// arbitrary views (permuted, expanded, sliced). Results are fresh contiguous
// tensors; the *InPlace kernels write through the destination view.
package cpu

import (
	"fmt"

	"github.com/born-ml/vmap/internal/parallel"
	"github.com/born-ml/vmap/internal/tensor"
)

var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor.Backend with naive float64 arithmetic.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend that splits large loops across all CPUs.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.binary("div", a, b, func(x, y float64) float64 { return x / y })
}

// AddInPlace computes dst += src, broadcasting src to dst's shape.
func (cpu *CPUBackend) AddInPlace(dst, src *tensor.RawTensor) error {
	return cpu.binaryInPlace("add_", dst, src, func(x, y float64) float64 { return x + y })
}

// MulInPlace computes dst *= src, broadcasting src to dst's shape.
func (cpu *CPUBackend) MulInPlace(dst, src *tensor.RawTensor) error {
	return cpu.binaryInPlace("mul_", dst, src, func(x, y float64) float64 { return x * y })
}

func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op func(float64, float64) float64) (*tensor.RawTensor, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType())
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create result tensor: %w", name, err)
	}

	aView, err := broadcastTo(a, outShape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	bView, err := broadcastTo(b, outShape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	parallel.ForChunks(result.NumElements(), func(start, end int) {
		for i := start; i < end; i++ {
			result.SetFloat64At(i, op(aView.Float64At(i), bView.Float64At(i)))
		}
	}, cpu.parallel)
	return result, nil
}

// binaryInPlace runs sequentially: dst may be a view whose elements alias.
func (cpu *CPUBackend) binaryInPlace(name string, dst, src *tensor.RawTensor, op func(float64, float64) float64) error {
	outShape, _, err := tensor.BroadcastShapes(dst.Shape(), src.Shape())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !outShape.Equal(dst.Shape()) {
		return fmt.Errorf("%s: output with shape %v doesn't match the broadcast shape %v", name, dst.Shape(), outShape)
	}
	srcView, err := broadcastTo(src, outShape)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for i := 0; i < dst.NumElements(); i++ {
		dst.SetFloat64At(i, op(dst.Float64At(i), srcView.Float64At(i)))
	}
	return nil
}

// broadcastTo expands x to shape through a zero-stride view.
func broadcastTo(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if x.Shape().Equal(shape) {
		return x, nil
	}
	return x.Expand(shape)
}
