// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch provides the operator registry and boxed calling
// convention.
//
// Operators are described by a Schema and implemented by a Kernel that pops
// its arguments from a Stack and pushes its returns. Tensors carrying the
// Batched dispatch key are routed to a per-operator rule or to the fallback
// registered for that key.
//
// Example:
//
//	d := dispatch.New()
//	lib, _ := ops.Register(d, cpu.New())
//	out, err := d.Call("add.Tensor", dispatch.TensorValue(a), dispatch.TensorValue(b))
package dispatch

import "github.com/born-ml/vmap/internal/dispatch"

// Dispatcher routes operator calls to kernels, per-key rules and fallbacks.
type Dispatcher = dispatch.Dispatcher

// OperatorHandle is a registered operator.
type OperatorHandle = dispatch.OperatorHandle

// Kernel implements an operator over the boxed calling convention.
type Kernel = dispatch.Kernel

// Stack is the value stack boxed calls consume and produce.
type Stack = dispatch.Stack

// IValue is a boxed operator argument or return.
type IValue = dispatch.IValue

// Tensor is the tensor interface boxed values hold.
type Tensor = dispatch.Tensor

// Schema describes an operator's signature.
type Schema = dispatch.Schema

// Argument describes one schema argument or return.
type Argument = dispatch.Argument

// ArgType is the declared type of an argument.
type ArgType = dispatch.ArgType

// Argument types.
const (
	TypeTensor             = dispatch.TypeTensor
	TypeOptionalTensor     = dispatch.TypeOptionalTensor
	TypeTensorList         = dispatch.TypeTensorList
	TypeOptionalTensorList = dispatch.TypeOptionalTensorList
	TypeInt                = dispatch.TypeInt
	TypeFloat              = dispatch.TypeFloat
	TypeBool               = dispatch.TypeBool
	TypeIntList            = dispatch.TypeIntList
	TypeScalar             = dispatch.TypeScalar
	TypeString             = dispatch.TypeString
)

// Key identifies a dispatch layer.
type Key = dispatch.Key

// Dispatch keys.
const (
	KeyBackend = dispatch.KeyBackend
	KeyBatched = dispatch.KeyBatched
)

// ErrUnknownOperator is returned when an operator name is not registered.
var ErrUnknownOperator = dispatch.ErrUnknownOperator

// New creates an empty dispatcher.
func New() *Dispatcher {
	return dispatch.New()
}

// NewStack creates a stack holding values.
func NewStack(values ...IValue) *Stack {
	return dispatch.NewStack(values...)
}

// Arg declares a named argument.
func Arg(name string, typ ArgType) Argument { return dispatch.Arg(name, typ) }

// Ret declares an unnamed return.
func Ret(typ ArgType) Argument { return dispatch.Ret(typ) }

// TensorValue boxes a tensor.
func TensorValue(t Tensor) IValue { return dispatch.TensorValue(t) }

// UndefinedTensor boxes an undefined tensor.
func UndefinedTensor() IValue { return dispatch.UndefinedTensor() }

// TensorListValue boxes a tensor list.
func TensorListValue(ts []Tensor) IValue { return dispatch.TensorListValue(ts) }

// IntValue boxes an int.
func IntValue(v int64) IValue { return dispatch.IntValue(v) }

// FloatValue boxes a float or scalar.
func FloatValue(v float64) IValue { return dispatch.FloatValue(v) }

// BoolValue boxes a bool.
func BoolValue(v bool) IValue { return dispatch.BoolValue(v) }

// None boxes the absence of a value.
func None() IValue { return dispatch.None() }
