package tensor

import "fmt"

// Permute returns a view with dimensions reordered so that output dim i is
// input dim axes[i]. No data is copied.
func (r *RawTensor) Permute(axes ...int) (*RawTensor, error) {
	if len(axes) != r.Dim() {
		return nil, fmt.Errorf("permute: got %d axes for %dD tensor", len(axes), r.Dim())
	}
	seen := make([]bool, r.Dim())
	shape := make(Shape, r.Dim())
	stride := make([]int, r.Dim())
	for i, axis := range axes {
		a, err := NormalizeDim(axis, r.Dim())
		if err != nil {
			return nil, fmt.Errorf("permute: %w", err)
		}
		if seen[a] {
			return nil, fmt.Errorf("permute: repeated axis %d in %v", a, axes)
		}
		seen[a] = true
		shape[i] = r.shape[a]
		stride[i] = r.stride[a]
	}
	return r.view(shape, stride, r.offset), nil
}

// Movedim returns a view with dimension src moved to position dst, keeping
// the relative order of the other dimensions.
func (r *RawTensor) Movedim(src, dst int) (*RawTensor, error) {
	s, err := NormalizeDim(src, r.Dim())
	if err != nil {
		return nil, fmt.Errorf("movedim: %w", err)
	}
	d, err := NormalizeDim(dst, r.Dim())
	if err != nil {
		return nil, fmt.Errorf("movedim: %w", err)
	}

	rest := make([]int, 0, r.Dim())
	for i := 0; i < r.Dim(); i++ {
		if i != s {
			rest = append(rest, i)
		}
	}
	axes := make([]int, 0, r.Dim())
	axes = append(axes, rest[:d]...)
	axes = append(axes, s)
	axes = append(axes, rest[d:]...)
	return r.Permute(axes...)
}

// Unsqueeze returns a view with a size-1 dimension inserted at dim.
func (r *RawTensor) Unsqueeze(dim int) (*RawTensor, error) {
	d, err := NormalizeDim(dim, r.Dim()+1)
	if err != nil {
		return nil, fmt.Errorf("unsqueeze: %w", err)
	}

	innerStride := 1
	if d < r.Dim() {
		innerStride = r.stride[d] * r.shape[d]
	}
	shape := make(Shape, 0, r.Dim()+1)
	stride := make([]int, 0, r.Dim()+1)
	shape = append(shape, r.shape[:d]...)
	stride = append(stride, r.stride[:d]...)
	shape = append(shape, 1)
	stride = append(stride, innerStride)
	shape = append(shape, r.shape[d:]...)
	stride = append(stride, r.stride[d:]...)
	return r.view(shape, stride, r.offset), nil
}

// Expand returns a view broadcast to shape. Size-1 dimensions (and new
// leading dimensions) get stride 0, so every position aliases one element.
func (r *RawTensor) Expand(shape Shape) (*RawTensor, error) {
	if len(shape) < r.Dim() {
		return nil, fmt.Errorf("expand: target %v has fewer dims than %v", shape, r.shape)
	}
	lead := len(shape) - r.Dim()
	stride := make([]int, len(shape))
	for i := range shape {
		if i < lead {
			stride[i] = 0
			continue
		}
		src := r.shape[i-lead]
		switch {
		case src == shape[i]:
			stride[i] = r.stride[i-lead]
		case src == 1:
			stride[i] = 0
		default:
			return nil, fmt.Errorf("expand: cannot expand %v to %v (dimension %d: %d vs %d)", r.shape, shape, i, src, shape[i])
		}
	}
	return r.view(shape.Clone(), stride, r.offset), nil
}

// Select returns a view of index along dim, removing that dimension.
func (r *RawTensor) Select(dim, index int) (*RawTensor, error) {
	d, err := NormalizeDim(dim, r.Dim())
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	if index < 0 || index >= r.shape[d] {
		return nil, fmt.Errorf("select: index %d out of range for dimension %d of size %d", index, d, r.shape[d])
	}

	shape := make(Shape, 0, r.Dim()-1)
	stride := make([]int, 0, r.Dim()-1)
	shape = append(shape, r.shape[:d]...)
	shape = append(shape, r.shape[d+1:]...)
	stride = append(stride, r.stride[:d]...)
	stride = append(stride, r.stride[d+1:]...)
	return r.view(shape, stride, r.offset+index*r.stride[d]), nil
}

// Index returns the view at coords along the leading len(coords) dimensions,
// keeping the remaining dimensions intact.
func (r *RawTensor) Index(coords ...int) (*RawTensor, error) {
	if len(coords) > r.Dim() {
		return nil, fmt.Errorf("index: %d coordinates for %dD tensor", len(coords), r.Dim())
	}
	offset := r.offset
	for i, c := range coords {
		if c < 0 || c >= r.shape[i] {
			return nil, fmt.Errorf("index: coordinate %d out of range for dimension %d of size %d", c, i, r.shape[i])
		}
		offset += c * r.stride[i]
	}
	k := len(coords)
	return r.view(r.shape[k:].Clone(), append([]int(nil), r.stride[k:]...), offset), nil
}

// View returns a contiguous tensor reinterpreted with a new shape.
func (r *RawTensor) View(shape Shape) (*RawTensor, error) {
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("view: cannot view %v (%d elements) as %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements())
	}
	if !r.IsContiguous() {
		return nil, fmt.Errorf("view: tensor %v is not contiguous", r.shape)
	}
	return r.view(shape.Clone(), shape.ComputeStrides(), r.offset), nil
}

// Reshape returns a tensor with the new shape, as a view when possible and a
// contiguous copy otherwise.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if r.IsContiguous() {
		return r.View(shape)
	}
	return r.Contiguous().View(shape)
}

// Contiguous returns r itself when it is already contiguous, otherwise a
// dense row-major copy.
func (r *RawTensor) Contiguous() *RawTensor {
	if r.IsContiguous() {
		return r
	}
	out, err := NewRaw(r.shape, r.dtype, r.device)
	if err != nil {
		panic(fmt.Sprintf("contiguous: %v", err))
	}
	for i := 0; i < r.NumElements(); i++ {
		out.SetFloat64At(i, r.Float64At(i))
	}
	return out
}

// CopyFrom writes src element-wise into r (which may be a strided view).
// Shapes must match exactly.
func (r *RawTensor) CopyFrom(src *RawTensor) error {
	if !r.shape.Equal(src.shape) {
		return fmt.Errorf("copy: shape mismatch %v vs %v", r.shape, src.shape)
	}
	for i := 0; i < r.NumElements(); i++ {
		r.SetFloat64At(i, src.Float64At(i))
	}
	return nil
}
