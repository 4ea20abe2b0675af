// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/vmap/backend/cpu"
	"github.com/born-ml/vmap/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = cpu.New()
}

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if n := raw.NumElements(); n != 6 {
		t.Errorf("NumElements() = %d, want 6", n)
	}
	if byteSize := raw.ByteSize(); byteSize != 6*4 {
		t.Errorf("ByteSize() = %d, want %d", byteSize, 6*4)
	}

	// Test IsUnique() before and after clone.
	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("IsUnique() = true after Clone(), want false (refcount > 1)")
	}
	clone.Release()
	if !raw.IsUnique() {
		t.Error("IsUnique() = false after clone.Release(), want true (refcount == 1)")
	}

	cleanup := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("IsUnique() = true after ForceNonUnique(), want false")
	}
	cleanup()
	if !raw.IsUnique() {
		t.Error("IsUnique() = false after cleanup(), want true")
	}
}

// TestViewsShareStorage verifies writes through a view reach the base tensor.
func TestViewsShareStorage(t *testing.T) {
	x, err := tensor.Arange(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("Arange failed: %v", err)
	}

	row, err := x.Select(0, 1)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !row.SharesStorage(x) {
		t.Error("Select() copied the storage")
	}
	row.SetFloat64At(0, 42)
	if got := x.Float64At(3); got != 42 {
		t.Errorf("x[1][0] = %v after writing through row, want 42", got)
	}

	perm, err := x.Permute(1, 0)
	if err != nil {
		t.Fatalf("Permute failed: %v", err)
	}
	if perm.IsContiguous() {
		t.Error("permuted view reports contiguous")
	}
	if got := perm.Float64At(1); got != 42 {
		t.Errorf("perm[0][1] = %v, want 42", got)
	}
}

// TestCreationFunctions verifies the constructors and joins.
func TestCreationFunctions(t *testing.T) {
	tests := []struct {
		name  string
		fn    func() (*tensor.RawTensor, error)
		shape tensor.Shape
		want  []float64
	}{
		{
			name: "FromSlice",
			fn: func() (*tensor.RawTensor, error) {
				return tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
			},
			shape: tensor.Shape{2, 2},
			want:  []float64{1, 2, 3, 4},
		},
		{
			name: "Full",
			fn: func() (*tensor.RawTensor, error) {
				return tensor.Full(tensor.Shape{3}, tensor.Float64, 2.5, tensor.CPU)
			},
			shape: tensor.Shape{3},
			want:  []float64{2.5, 2.5, 2.5},
		},
		{
			name: "Stack",
			fn: func() (*tensor.RawTensor, error) {
				a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, tensor.CPU)
				b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, tensor.CPU)
				return tensor.Stack([]*tensor.RawTensor{a, b})
			},
			shape: tensor.Shape{2, 2},
			want:  []float64{1, 2, 3, 4},
		},
		{
			name: "Cat",
			fn: func() (*tensor.RawTensor, error) {
				a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, tensor.CPU)
				b, _ := tensor.FromSlice([]float32{3}, tensor.Shape{1}, tensor.CPU)
				return tensor.Cat([]*tensor.RawTensor{a, b}, 0)
			},
			shape: tensor.Shape{3},
			want:  []float64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if !got.Shape().Equal(tt.shape) {
				t.Errorf("shape = %v, want %v", got.Shape(), tt.shape)
			}
			values := got.Float64s()
			if len(values) != len(tt.want) {
				t.Fatalf("values = %v, want %v", values, tt.want)
			}
			for i := range tt.want {
				if values[i] != tt.want[i] {
					t.Errorf("values = %v, want %v", values, tt.want)
					break
				}
			}
		})
	}
}
