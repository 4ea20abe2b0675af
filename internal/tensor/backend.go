package tensor

// Backend defines the kernels a compute device provides to the operator
// library. Results are freshly allocated contiguous tensors unless the
// method name says otherwise; inputs may be arbitrary strided views.
//
// Implementations:
//   - CPU: stride-aware reference kernels (internal/backend/cpu)
type Backend interface {
	// Element-wise binary operations with broadcasting
	Add(a, b *RawTensor) (*RawTensor, error)
	Sub(a, b *RawTensor) (*RawTensor, error)
	Mul(a, b *RawTensor) (*RawTensor, error)
	Div(a, b *RawTensor) (*RawTensor, error)

	// In-place variants write into dst, which must already have the broadcast shape.
	AddInPlace(dst, src *RawTensor) error
	MulInPlace(dst, src *RawTensor) error

	// Scalar and unary math
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	Neg(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor

	// Reductions
	SumDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error)
	MaxDim(x *RawTensor, dim int, keepDim bool) (values, indices *RawTensor, err error)

	// Metadata
	Name() string
	Device() Device
}
