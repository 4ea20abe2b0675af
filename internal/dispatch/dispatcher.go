// Package dispatch implements the operator registry and the boxed calling
// convention used to invoke operators generically.
//
// Operators are described by a Schema and implemented by a Kernel that
// consumes its arguments from a Stack and pushes its returns. Before the
// kernel runs, the Dispatcher inspects the dispatch keys carried by the
// tensor arguments; a key such as KeyBatched diverts the call to a
// per-operator rule or a boxed fallback registered for that key. Keys can be
// excluded for the duration of a scope with Exclude.
//
// A Dispatcher is single-threaded: the exclusion state is shared by every
// call made through it.
package dispatch

import (
	"errors"
	"fmt"
	"sort"

	"k8s.io/klog/v2"
)

// ErrUnknownOperator is returned when an operator name is not registered.
var ErrUnknownOperator = errors.New("unknown operator")

// Kernel implements an operator (or a dispatch-key handler for it) over the
// boxed calling convention: pop Arity() arguments, push ReturnCount() returns.
type Kernel func(op *OperatorHandle, stack *Stack) error

// OperatorHandle is a registered operator.
type OperatorHandle struct {
	schema Schema
	kernel Kernel
	d      *Dispatcher
}

// Schema returns the operator's schema.
func (op *OperatorHandle) Schema() *Schema {
	return &op.schema
}

// Name returns the qualified operator name.
func (op *OperatorHandle) Name() string {
	return op.schema.OperatorName()
}

// Arity returns the number of declared arguments.
func (op *OperatorHandle) Arity() int {
	return op.schema.Arity()
}

// ReturnCount returns the number of declared returns.
func (op *OperatorHandle) ReturnCount() int {
	return op.schema.ReturnCount()
}

// CallBoxed dispatches the operator on stack through its dispatcher.
func (op *OperatorHandle) CallBoxed(stack *Stack) error {
	return op.d.CallBoxed(op, stack)
}

// Dispatcher routes operator calls to kernels, per-key rules and fallbacks.
type Dispatcher struct {
	ops       map[string]*OperatorHandle
	fallbacks [numKeys]Kernel
	rules     [numKeys]map[string]Kernel
	excluded  KeySet
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		ops: make(map[string]*OperatorHandle),
	}
}

// Register adds an operator with its backend kernel.
func (d *Dispatcher) Register(schema Schema, kernel Kernel) (*OperatorHandle, error) {
	name := schema.OperatorName()
	if _, ok := d.ops[name]; ok {
		return nil, fmt.Errorf("operator %s already registered", name)
	}
	if kernel == nil {
		return nil, fmt.Errorf("operator %s: nil kernel", name)
	}
	op := &OperatorHandle{schema: schema, kernel: kernel, d: d}
	d.ops[name] = op
	return op, nil
}

// Find returns the operator registered under name ("name" or "name.overload").
func (d *Dispatcher) Find(name string) (*OperatorHandle, bool) {
	op, ok := d.ops[name]
	return op, ok
}

// Ops returns the sorted names of all registered operators.
func (d *Dispatcher) Ops() []string {
	names := make([]string, 0, len(d.ops))
	for name := range d.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterFallback installs the boxed handler used for key when an operator
// has no rule of its own for that key.
func (d *Dispatcher) RegisterFallback(key Key, fallback Kernel) {
	d.fallbacks[key] = fallback
}

// RegisterRule installs an operator-specific handler for key.
func (d *Dispatcher) RegisterRule(key Key, name string, rule Kernel) error {
	if _, ok := d.ops[name]; !ok {
		return fmt.Errorf("register %s rule: %w: %s", key, ErrUnknownOperator, name)
	}
	if d.rules[key] == nil {
		d.rules[key] = make(map[string]Kernel)
	}
	d.rules[key][name] = rule
	return nil
}

// HasRule reports whether name has an operator-specific handler for key.
func (d *Dispatcher) HasRule(key Key, name string) bool {
	_, ok := d.rules[key][name]
	return ok
}

// Exclude removes key from dispatch until the returned restore function is
// called. Restoring puts back the exclusion state observed at the time of the
// call, so guards nest.
//
// Example:
//
//	defer d.Exclude(dispatch.KeyBatched)()
func (d *Dispatcher) Exclude(key Key) func() {
	prev := d.excluded
	d.excluded = d.excluded.Add(key)
	return func() {
		d.excluded = prev
	}
}

// IsExcluded reports whether key is currently excluded.
func (d *Dispatcher) IsExcluded(key Key) bool {
	return d.excluded.Has(key)
}

// CallBoxed invokes op on the top op.Arity() values of stack and leaves its
// returns in their place.
func (d *Dispatcher) CallBoxed(op *OperatorHandle, stack *Stack) error {
	arity := op.Arity()
	if stack.Len() < arity {
		return fmt.Errorf("%s: expected %d arguments on the stack, found %d", op.Name(), arity, stack.Len())
	}

	var keys KeySet
	for _, v := range stack.Last(arity) {
		keys |= v.dispatchKeys()
	}
	keys &^= d.excluded

	handler, via := d.handlerFor(op, keys.Highest())
	if handler == nil {
		return fmt.Errorf("%s: no kernel registered for dispatch key %s", op.Name(), keys.Highest())
	}
	klog.V(5).Infof("dispatch: %s via %s (keys %s)", op.Name(), via, keys)

	base := stack.Len() - arity
	if err := handler(op, stack); err != nil {
		return err
	}
	if got, want := stack.Len()-base, op.ReturnCount(); got != want {
		return fmt.Errorf("%s: %s left %d values on the stack, schema declares %d returns", op.Name(), via, got, want)
	}
	return nil
}

func (d *Dispatcher) handlerFor(op *OperatorHandle, key Key) (Kernel, string) {
	if key == KeyBackend {
		return op.kernel, "kernel"
	}
	if rule, ok := d.rules[key][op.Name()]; ok {
		return rule, key.String() + " rule"
	}
	return d.fallbacks[key], key.String() + " fallback"
}

// Call looks up name, pushes args, dispatches, and pops the returns.
func (d *Dispatcher) Call(name string, args ...IValue) ([]IValue, error) {
	op, ok := d.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
	if len(args) != op.Arity() {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", name, op.Arity(), len(args))
	}
	stack := NewStack(args...)
	if err := d.CallBoxed(op, stack); err != nil {
		return nil, err
	}
	return stack.PopN(op.ReturnCount()), nil
}
