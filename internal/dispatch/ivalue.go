package dispatch

import (
	"fmt"

	"github.com/born-ml/vmap/internal/tensor"
)

// Tensor is any tensor-like value that can travel on a Stack: plain
// *tensor.RawTensor values and wrappers such as batched tensors.
// A nil Tensor is an undefined tensor.
type Tensor interface {
	Shape() tensor.Shape
	DType() tensor.DataType
}

// KeyedTensor is a Tensor that routes calls through extra dispatch keys.
type KeyedTensor interface {
	Tensor
	DispatchKeys() KeySet
}

var _ Tensor = (*tensor.RawTensor)(nil)

// Kind is the dynamic type tag of an IValue.
type Kind int

// IValue kinds.
const (
	KindNone Kind = iota
	KindTensor
	KindTensorList
	KindInt
	KindFloat
	KindBool
	KindIntList
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTensor:
		return "Tensor"
	case KindTensorList:
		return "Tensor[]"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindIntList:
		return "int[]"
	case KindString:
		return "str"
	default:
		return "unknown"
	}
}

// IValue is a dynamically typed value passed to and from operators.
type IValue struct {
	kind    Kind
	tensor  Tensor
	tensors []Tensor
	i       int64
	f       float64
	b       bool
	ints    []int64
	s       string
}

// None returns the None value.
func None() IValue { return IValue{kind: KindNone} }

// TensorValue wraps a tensor. A nil t yields an undefined tensor value.
func TensorValue(t Tensor) IValue {
	if raw, ok := t.(*tensor.RawTensor); ok && raw == nil {
		t = nil
	}
	return IValue{kind: KindTensor, tensor: t}
}

// UndefinedTensor returns a tensor value holding no tensor.
func UndefinedTensor() IValue { return IValue{kind: KindTensor} }

// TensorListValue wraps a list of tensors.
func TensorListValue(ts []Tensor) IValue { return IValue{kind: KindTensorList, tensors: ts} }

// IntValue wraps an integer.
func IntValue(v int64) IValue { return IValue{kind: KindInt, i: v} }

// FloatValue wraps a float.
func FloatValue(v float64) IValue { return IValue{kind: KindFloat, f: v} }

// BoolValue wraps a bool.
func BoolValue(v bool) IValue { return IValue{kind: KindBool, b: v} }

// IntListValue wraps a list of integers.
func IntListValue(v []int64) IValue { return IValue{kind: KindIntList, ints: v} }

// StringValue wraps a string.
func StringValue(v string) IValue { return IValue{kind: KindString, s: v} }

// Kind returns the dynamic type of v.
func (v IValue) Kind() Kind { return v.kind }

// IsNone reports whether v is None.
func (v IValue) IsNone() bool { return v.kind == KindNone }

// IsTensor reports whether v holds a tensor slot (defined or not).
func (v IValue) IsTensor() bool { return v.kind == KindTensor }

// IsDefinedTensor reports whether v holds a defined tensor.
func (v IValue) IsDefinedTensor() bool { return v.kind == KindTensor && v.tensor != nil }

// ToTensor returns the tensor (nil when undefined).
// Panics if v is not a tensor value.
func (v IValue) ToTensor() Tensor {
	v.mustBe(KindTensor)
	return v.tensor
}

// ToRawTensor returns the plain tensor held by v. It fails for undefined
// tensors and for wrapped tensors that still need a dispatch layer to unwrap them.
func (v IValue) ToRawTensor() (*tensor.RawTensor, error) {
	if v.kind != KindTensor {
		return nil, fmt.Errorf("expected Tensor, got %s", v.kind)
	}
	if v.tensor == nil {
		return nil, fmt.Errorf("expected a defined Tensor, got an undefined one")
	}
	raw, ok := v.tensor.(*tensor.RawTensor)
	if !ok {
		return nil, fmt.Errorf("expected a plain Tensor, got %T", v.tensor)
	}
	return raw, nil
}

// ToTensorList returns the tensors of a list value.
func (v IValue) ToTensorList() []Tensor {
	v.mustBe(KindTensorList)
	return v.tensors
}

// ToInt returns the integer.
func (v IValue) ToInt() int64 {
	v.mustBe(KindInt)
	return v.i
}

// ToFloat returns the float, widening integers.
func (v IValue) ToFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	v.mustBe(KindFloat)
	return v.f
}

// ToBool returns the bool.
func (v IValue) ToBool() bool {
	v.mustBe(KindBool)
	return v.b
}

// ToIntList returns the integer list.
func (v IValue) ToIntList() []int64 {
	v.mustBe(KindIntList)
	return v.ints
}

// ToString returns the string.
func (v IValue) ToString() string {
	v.mustBe(KindString)
	return v.s
}

func (v IValue) mustBe(kind Kind) {
	if v.kind != kind {
		panic(fmt.Sprintf("ivalue: expected %s, got %s", kind, v.kind))
	}
}

// String formats the value for diagnostics.
func (v IValue) String() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindTensor:
		if v.tensor == nil {
			return "Tensor(undefined)"
		}
		return fmt.Sprintf("Tensor%v", v.tensor.Shape())
	case KindTensorList:
		return fmt.Sprintf("Tensor[%d]", len(v.tensors))
	case KindInt:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindBool:
		return fmt.Sprint(v.b)
	case KindIntList:
		return fmt.Sprint(v.ints)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	default:
		return "?"
	}
}

// dispatchKeys collects the keys of every keyed tensor in v.
func (v IValue) dispatchKeys() KeySet {
	var keys KeySet
	switch v.kind {
	case KindTensor:
		if kt, ok := v.tensor.(KeyedTensor); ok {
			keys |= kt.DispatchKeys()
		}
	case KindTensorList:
		for _, t := range v.tensors {
			if kt, ok := t.(KeyedTensor); ok {
				keys |= kt.DispatchKeys()
			}
		}
	}
	return keys
}
