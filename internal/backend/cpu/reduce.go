package cpu

import (
	"fmt"

	"github.com/born-ml/vmap/internal/parallel"
	"github.com/born-ml/vmap/internal/tensor"
)

// SumDim sums tensor elements along dim (negative dims count from the end).
//
// Example:
//
//	y, _ := backend.SumDim(x, -1, true)  // [2, 3, 4] -> [2, 3, 1]
//	z, _ := backend.SumDim(x, -1, false) // [2, 3, 4] -> [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) (*tensor.RawTensor, error) {
	_, outer, size, inner, outShape, err := reduceGeometry(x.Shape(), dim, keepDim)
	if err != nil {
		return nil, fmt.Errorf("sumdim: %w", err)
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("sumdim: %w", err)
	}
	parallel.For(outer*inner, func(j int) {
		o, in := j/inner, j%inner
		sum := 0.0
		for k := 0; k < size; k++ {
			sum += x.Float64At((o*size+k)*inner + in)
		}
		result.SetFloat64At(j, sum)
	}, cpu.parallel)
	return result, nil
}

// MaxDim returns the maximum values along dim and the int64 index of each.
// Ties resolve to the first occurrence.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) (*tensor.RawTensor, *tensor.RawTensor, error) {
	_, outer, size, inner, outShape, err := reduceGeometry(x.Shape(), dim, keepDim)
	if err != nil {
		return nil, nil, fmt.Errorf("maxdim: %w", err)
	}
	if size == 0 {
		return nil, nil, fmt.Errorf("maxdim: cannot reduce over an empty dimension")
	}

	values, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		return nil, nil, fmt.Errorf("maxdim: %w", err)
	}
	indices, err := tensor.NewRaw(outShape, tensor.Int64, cpu.device)
	if err != nil {
		return nil, nil, fmt.Errorf("maxdim: %w", err)
	}
	parallel.For(outer*inner, func(j int) {
		o, in := j/inner, j%inner
		best := x.Float64At(o*size*inner + in)
		bestIdx := 0
		for k := 1; k < size; k++ {
			if v := x.Float64At((o*size+k)*inner + in); v > best {
				best, bestIdx = v, k
			}
		}
		values.SetFloat64At(j, best)
		indices.SetFloat64At(j, float64(bestIdx))
	}, cpu.parallel)
	return values, indices, nil
}

// reduceGeometry splits shape around dim into (outer, size, inner) extents and
// computes the reduced output shape.
func reduceGeometry(shape tensor.Shape, dim int, keepDim bool) (d, outer, size, inner int, out tensor.Shape, err error) {
	d, err = tensor.NormalizeDim(dim, len(shape))
	if err != nil {
		return 0, 0, 0, 0, nil, err
	}

	outer, inner = 1, 1
	for i := 0; i < d; i++ {
		outer *= shape[i]
	}
	for i := d + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	size = shape[d]

	if keepDim {
		out = shape.Clone()
		out[d] = 1
	} else {
		out = make(tensor.Shape, 0, len(shape)-1)
		out = append(out, shape[:d]...)
		out = append(out, shape[d+1:]...)
	}
	return d, outer, size, inner, out, nil
}
