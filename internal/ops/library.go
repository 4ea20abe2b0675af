package ops

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

// Handler computes an operator on its unboxed arguments.
type Handler func(ctx *Context, args []dispatch.IValue) ([]dispatch.IValue, error)

// Context provides the backend kernels run on.
type Context struct {
	Backend tensor.Backend
}

// Library registers the operator set on a dispatcher.
type Library struct {
	ctx *Context
	d   *dispatch.Dispatcher
	err error
}

// Register installs every operator of the library on d, computing with backend.
func Register(d *dispatch.Dispatcher, backend tensor.Backend) (*Library, error) {
	l := &Library{
		ctx: &Context{Backend: backend},
		d:   d,
	}

	l.registerMathOps()
	l.registerReduceOps()
	l.registerMutatingOps()
	l.registerShapeOps()
	l.registerUtilityOps()

	if l.err != nil {
		return nil, l.err
	}
	return l, nil
}

// Dispatcher returns the dispatcher the library is registered on.
func (l *Library) Dispatcher() *dispatch.Dispatcher {
	return l.d
}

// Context returns the execution context shared by the kernels.
func (l *Library) Context() *Context {
	return l.ctx
}

// Register adds a custom operator backed by handler.
func (l *Library) Register(schema dispatch.Schema, handler Handler) error {
	_, err := l.d.Register(schema, l.kernel(handler))
	return err
}

func (l *Library) register(schema dispatch.Schema, handler Handler) {
	if l.err != nil {
		return
	}
	l.err = l.Register(schema, handler)
}

// kernel adapts a Handler to the boxed calling convention.
func (l *Library) kernel(handler Handler) dispatch.Kernel {
	return func(op *dispatch.OperatorHandle, stack *dispatch.Stack) error {
		args := stack.PopN(op.Arity())
		outs, err := handler(l.ctx, args)
		if err != nil {
			return fmt.Errorf("%s: %w", op.Name(), err)
		}
		if len(outs) != op.ReturnCount() {
			return fmt.Errorf("%s: kernel produced %d returns, schema declares %d", op.Name(), len(outs), op.ReturnCount())
		}
		stack.Push(outs...)
		return nil
	}
}

// rawArgs unboxes the leading n arguments as plain tensors.
func rawArgs(args []dispatch.IValue, n int) ([]*tensor.RawTensor, error) {
	raws := make([]*tensor.RawTensor, n)
	for i := 0; i < n; i++ {
		raw, err := args[i].ToRawTensor()
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		raws[i] = raw
	}
	return raws, nil
}

func tensors(ts ...*tensor.RawTensor) []dispatch.IValue {
	out := make([]dispatch.IValue, len(ts))
	for i, t := range ts {
		out[i] = dispatch.TensorValue(t)
	}
	return out
}
