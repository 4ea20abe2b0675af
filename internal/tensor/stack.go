package tensor

import "fmt"

// Stack joins tensors of identical shape and dtype along a new leading
// dimension. The result is a contiguous tensor of shape [len(tensors), ...].
func Stack(tensors []*RawTensor) (*RawTensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("stack: at least one tensor required")
	}

	first := tensors[0]
	for i, t := range tensors[1:] {
		if !t.Shape().Equal(first.Shape()) {
			return nil, fmt.Errorf("stack: tensor %d has shape %v, expected %v", i+1, t.Shape(), first.Shape())
		}
		if t.DType() != first.DType() {
			return nil, fmt.Errorf("stack: tensor %d has dtype %s, expected %s", i+1, t.DType(), first.DType())
		}
	}

	shape := make(Shape, 0, first.Dim()+1)
	shape = append(shape, len(tensors))
	shape = append(shape, first.Shape()...)
	result, err := NewRaw(shape, first.DType(), first.Device())
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}

	n := first.NumElements()
	for i, t := range tensors {
		if t.IsContiguous() && t.DType().Size() == result.DType().Size() {
			size := t.DType().Size()
			copy(result.buffer.data[i*n*size:(i+1)*n*size], t.Data())
			continue
		}
		for j := 0; j < n; j++ {
			result.SetFloat64At(i*n+j, t.Float64At(j))
		}
	}
	return result, nil
}

// Cat concatenates tensors along an existing dimension dim. All other
// dimensions and the dtype must match.
func Cat(tensors []*RawTensor, dim int) (*RawTensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("cat: at least one tensor required")
	}

	first := tensors[0]
	d, err := NormalizeDim(dim, first.Dim())
	if err != nil {
		return nil, fmt.Errorf("cat: %w", err)
	}
	shape := first.Shape().Clone()
	shape[d] = 0
	for i, t := range tensors {
		if t.Dim() != first.Dim() || t.DType() != first.DType() {
			return nil, fmt.Errorf("cat: tensor %d is %s%v, expected %s with rank %d", i, t.DType(), t.Shape(), first.DType(), first.Dim())
		}
		for j := range shape {
			if j != d && t.Shape()[j] != first.Shape()[j] {
				return nil, fmt.Errorf("cat: tensor %d has shape %v, incompatible with %v at dimension %d", i, t.Shape(), first.Shape(), j)
			}
		}
		shape[d] += t.Shape()[d]
	}

	result, err := NewRaw(shape, first.DType(), first.Device())
	if err != nil {
		return nil, fmt.Errorf("cat: %w", err)
	}
	start := 0
	for _, t := range tensors {
		size := t.Shape()[d]
		window := result.view(t.Shape().Clone(), append([]int(nil), result.stride...), result.offset+start*result.stride[d])
		if err := window.CopyFrom(t); err != nil {
			return nil, fmt.Errorf("cat: %w", err)
		}
		start += size
	}
	return result, nil
}
