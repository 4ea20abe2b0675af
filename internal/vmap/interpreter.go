// Package vmap implements vectorizing map over operators registered with a
// dispatch.Dispatcher.
//
// Vmap wraps the mapped inputs in BatchedTensors tagged with a fresh nesting
// level. Calls on batched values route to the KeyBatched handler: an
// operator-specific batching rule when one is registered, and otherwise the
// generic per-slice fallback, which runs the operator once per batch entry
// on plain tensors and stacks the results.
package vmap

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"k8s.io/klog/v2"
)

// Interpreter tracks the active vmap levels for one dispatcher. Like the
// dispatcher it is single-threaded.
type Interpreter struct {
	d      *dispatch.Dispatcher
	levels []int
}

// New creates an interpreter and installs its fallback as the dispatcher's
// KeyBatched handler.
func New(d *dispatch.Dispatcher) *Interpreter {
	ip := &Interpreter{d: d}
	d.RegisterFallback(dispatch.KeyBatched, ip.Fallback)
	return ip
}

// Dispatcher returns the dispatcher the interpreter is installed on.
func (ip *Interpreter) Dispatcher() *dispatch.Dispatcher {
	return ip.d
}

// CurrentLevel returns the innermost active level. ok is false outside vmap.
func (ip *Interpreter) CurrentLevel() (level int, ok bool) {
	if len(ip.levels) == 0 {
		return 0, false
	}
	return ip.levels[len(ip.levels)-1], true
}

// pushLevel opens a new innermost level. Levels start at 1 and grow with
// nesting depth.
func (ip *Interpreter) pushLevel() (int, func(), error) {
	level := len(ip.levels) + 1
	if level >= MaxLevels {
		return 0, nil, fmt.Errorf("vmap: nesting deeper than %d levels", MaxLevels-1)
	}
	ip.levels = append(ip.levels, level)
	return level, func() { ip.levels = ip.levels[:len(ip.levels)-1] }, nil
}

// suspendCurrentLevel hides the innermost level until the returned function
// is called. With no level left, batched dispatch is excluded as well.
func (ip *Interpreter) suspendCurrentLevel() func() {
	if len(ip.levels) == 0 {
		return ip.d.Exclude(dispatch.KeyBatched)
	}
	saved := ip.levels
	ip.levels = saved[:len(saved)-1]
	restoreKeys := func() {}
	if len(ip.levels) == 0 {
		restoreKeys = ip.d.Exclude(dispatch.KeyBatched)
	}
	return func() {
		restoreKeys()
		ip.levels = saved
	}
}

// InDim selects how an argument is mapped.
type InDim struct {
	dim    int
	mapped bool
}

// Dim maps an argument over dimension d.
func Dim(d int) InDim {
	return InDim{dim: d, mapped: true}
}

// NoDim passes an argument unchanged to every call.
var NoDim = InDim{}

// Func is a function over boxed values.
type Func func(args []dispatch.IValue) ([]dispatch.IValue, error)

// Vmap returns fn vectorized over the inDims of its arguments. Every tensor
// result gets its batch dimension at outDim.
func (ip *Interpreter) Vmap(fn Func, inDims []InDim, outDim int) Func {
	return func(args []dispatch.IValue) ([]dispatch.IValue, error) {
		if len(args) != len(inDims) {
			return nil, fmt.Errorf("vmap: got %d in_dims for %d arguments", len(inDims), len(args))
		}
		batchSize, err := mappedSize(args, inDims)
		if err != nil {
			return nil, err
		}

		level, pop, err := ip.pushLevel()
		if err != nil {
			return nil, err
		}
		defer pop()
		klog.V(4).Infof("vmap: level %d, batch size %d", level, batchSize)

		wrapped := make([]dispatch.IValue, len(args))
		for i, arg := range args {
			if !inDims[i].mapped {
				wrapped[i] = arg
				continue
			}
			b, err := AddBatchDim(arg.ToTensor(), level, inDims[i].dim)
			if err != nil {
				return nil, fmt.Errorf("vmap: argument %d: %w", i, err)
			}
			wrapped[i] = dispatch.TensorValue(b)
		}

		results, err := fn(wrapped)
		if err != nil {
			return nil, err
		}

		outs := make([]dispatch.IValue, len(results))
		for i, r := range results {
			if !r.IsTensor() {
				return nil, fmt.Errorf("vmap: function must return tensors, result %d is %s", i, r.Kind())
			}
			if !r.IsDefinedTensor() {
				outs[i] = r
				continue
			}
			t, err := RemoveBatchDim(r.ToTensor(), level, outDim, batchSize)
			if err != nil {
				return nil, fmt.Errorf("vmap: result %d: %w", i, err)
			}
			outs[i] = dispatch.TensorValue(t)
		}
		return outs, nil
	}
}

func mappedSize(args []dispatch.IValue, inDims []InDim) (int, error) {
	size := -1
	for i, arg := range args {
		if !inDims[i].mapped {
			continue
		}
		if !arg.IsDefinedTensor() {
			return 0, fmt.Errorf("vmap: argument %d is mapped but is not a defined tensor", i)
		}
		shape := arg.ToTensor().Shape()
		d := inDims[i].dim
		if d < 0 {
			d += len(shape)
		}
		if d < 0 || d >= len(shape) {
			return 0, fmt.Errorf("vmap: in_dim %d out of range for argument %d of rank %d", inDims[i].dim, i, len(shape))
		}
		switch {
		case size < 0:
			size = shape[d]
		case size != shape[d]:
			return 0, fmt.Errorf("vmap: expected all mapped tensors to have the same size in the mapped dimension, got %d and %d", size, shape[d])
		}
	}
	if size < 0 {
		return 0, fmt.Errorf("vmap: at least one argument must be mapped")
	}
	return size, nil
}
