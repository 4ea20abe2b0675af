package tensor

import "fmt"

// storageIndex maps a row-major logical flat index to a position in the
// underlying buffer, honoring strides and offset.
func (r *RawTensor) storageIndex(flat int) int {
	idx := r.offset
	for i := len(r.shape) - 1; i >= 0; i-- {
		size := r.shape[i]
		idx += (flat % size) * r.stride[i]
		flat /= size
	}
	return idx
}

// Float64At returns the element at the given row-major logical index,
// converted to float64. It works on any view, contiguous or not.
func (r *RawTensor) Float64At(flat int) float64 {
	i := r.storageIndex(flat)
	switch r.dtype {
	case Float32:
		return float64(storage[float32](r)[i])
	case Float64:
		return storage[float64](r)[i]
	case Int32:
		return float64(storage[int32](r)[i])
	case Int64:
		return float64(storage[int64](r)[i])
	case Bool:
		if storage[bool](r)[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", r.dtype))
	}
}

// SetFloat64At stores v at the given row-major logical index, converting it
// to the tensor's dtype. Writes go through to the shared buffer.
func (r *RawTensor) SetFloat64At(flat int, v float64) {
	i := r.storageIndex(flat)
	switch r.dtype {
	case Float32:
		storage[float32](r)[i] = float32(v)
	case Float64:
		storage[float64](r)[i] = v
	case Int32:
		storage[int32](r)[i] = int32(v)
	case Int64:
		storage[int64](r)[i] = int64(v)
	case Bool:
		storage[bool](r)[i] = v != 0
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", r.dtype))
	}
}

// Float64s copies the elements in row-major order into a new []float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	for i := range out {
		out[i] = r.Float64At(i)
	}
	return out
}

// FromSlice creates a contiguous tensor holding a copy of data.
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, DataTypeOf[T](), device)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		copy(storage[T](raw), data)
	}
	return raw, nil
}

// Full creates a contiguous tensor filled with value.
func Full(shape Shape, dtype DataType, value float64, device Device) (*RawTensor, error) {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	for i := 0; i < raw.NumElements(); i++ {
		raw.SetFloat64At(i, value)
	}
	return raw, nil
}

// Arange creates a float tensor of the given shape holding 0, 1, 2, ... in
// row-major order.
func Arange(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	for i := 0; i < raw.NumElements(); i++ {
		raw.SetFloat64At(i, float64(i))
	}
	return raw, nil
}
