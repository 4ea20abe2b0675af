package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// tensorBuffer is a reference-counted storage shared between a tensor and its views.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level strided tensor representation.
//
// A RawTensor is a window (shape, strides, element offset) over a shared
// reference-counted buffer. View operations such as Permute, Expand and
// Select produce new RawTensors over the same buffer, so writes through a
// view are visible in every tensor sharing the storage.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	offset int // in elements
}

// NewRaw creates a new contiguous RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// view returns a RawTensor sharing r's buffer with new geometry.
func (r *RawTensor) view(shape Shape, stride []int, offset int) *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  shape,
		stride: stride,
		dtype:  r.dtype,
		device: r.device,
		offset: offset,
	}
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's element strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Offset returns the element offset of the tensor within its storage.
func (r *RawTensor) Offset() int {
	return r.offset
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// Dim returns the number of dimensions.
func (r *RawTensor) Dim() int {
	return len(r.shape)
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the logical size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// SharesStorage reports whether r and other are windows over the same buffer.
func (r *RawTensor) SharesStorage(other *RawTensor) bool {
	return other != nil && r.buffer == other.buffer
}

// IsContiguous reports whether the elements are laid out densely in row-major
// order starting at the offset.
func (r *RawTensor) IsContiguous() bool {
	expected := 1
	for i := len(r.shape) - 1; i >= 0; i-- {
		if r.shape[i] == 1 {
			continue
		}
		if r.stride[i] != expected {
			return false
		}
		expected *= r.shape[i]
	}
	return true
}

// Data returns the raw bytes of a contiguous tensor.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	r.mustBeContiguous("Data")
	size := r.dtype.Size()
	return r.buffer.data[r.offset*size : (r.offset+r.NumElements())*size]
}

// AsFloat32 interprets the data of a contiguous tensor as []float32.
// Panics if the dtype is not Float32 or the tensor is a non-contiguous view.
func (r *RawTensor) AsFloat32() []float32 {
	r.mustBe(Float32)
	r.mustBeContiguous("AsFloat32")
	return storage[float32](r)[r.offset : r.offset+r.NumElements()]
}

// AsFloat64 interprets the data of a contiguous tensor as []float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.mustBe(Float64)
	r.mustBeContiguous("AsFloat64")
	return storage[float64](r)[r.offset : r.offset+r.NumElements()]
}

// AsInt32 interprets the data of a contiguous tensor as []int32.
func (r *RawTensor) AsInt32() []int32 {
	r.mustBe(Int32)
	r.mustBeContiguous("AsInt32")
	return storage[int32](r)[r.offset : r.offset+r.NumElements()]
}

// AsInt64 interprets the data of a contiguous tensor as []int64.
func (r *RawTensor) AsInt64() []int64 {
	r.mustBe(Int64)
	r.mustBeContiguous("AsInt64")
	return storage[int64](r)[r.offset : r.offset+r.NumElements()]
}

// AsBool interprets the data of a contiguous tensor as []bool.
func (r *RawTensor) AsBool() []bool {
	r.mustBe(Bool)
	r.mustBeContiguous("AsBool")
	return storage[bool](r)[r.offset : r.offset+r.NumElements()]
}

func (r *RawTensor) mustBe(dtype DataType) {
	if r.dtype != dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dtype))
	}
}

func (r *RawTensor) mustBeContiguous(op string) {
	if !r.IsContiguous() {
		panic(fmt.Sprintf("%s: tensor view %v (strides %v) is not contiguous, call Contiguous first", op, r.shape, r.stride))
	}
}

// storage returns the whole buffer reinterpreted as []E.
func storage[E DType](r *RawTensor) []E {
	data := r.buffer.data
	if len(data) == 0 {
		return nil
	}
	var zero E
	n := len(data) / int(unsafe.Sizeof(zero))
	//nolint:gosec // unsafe.Slice for zero-copy access, length derived from buffer size
	return unsafe.Slice((*E)(unsafe.Pointer(&data[0])), n)
}

// Clone creates a shallow copy of the RawTensor sharing its buffer.
func (r *RawTensor) Clone() *RawTensor {
	return r.view(r.shape.Clone(), append([]int(nil), r.stride...), r.offset)
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// ForceNonUnique temporarily increases refCount to prevent inplace modifications.
// Returns a cleanup function that MUST be called to restore refCount (use defer).
func (r *RawTensor) ForceNonUnique() func() {
	r.buffer.addRef()
	return func() {
		r.buffer.release()
	}
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor[%s]%v on %s", r.dtype, r.shape, r.device)
}
