package vmap

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
	"github.com/samber/lo"
)

// Operation is what the fallback needs from an operator: its schema and a
// way to invoke it on a stack.
type Operation interface {
	Schema() *dispatch.Schema
	CallBoxed(stack *dispatch.Stack) error
}

var _ Operation = (*dispatch.OperatorHandle)(nil)

// Fallback is the KeyBatched handler for operators without a batching rule.
// In-place operators take InPlaceFallback, everything else OutOfPlaceFallback.
func (ip *Interpreter) Fallback(op *dispatch.OperatorHandle, stack *dispatch.Stack) error {
	if op.Schema().IsInplace() {
		return ip.InPlaceFallback(op, stack)
	}
	return ip.OutOfPlaceFallback(op, stack)
}

// OutOfPlaceFallback runs op once per batch entry and stacks the results.
//
// The top Arity() values of stack are the arguments. On success they are
// replaced by ReturnCount() results, each batched at the union of the
// levels of the batched arguments. Nothing is rolled back on error.
func (ip *Interpreter) OutOfPlaceFallback(op Operation, stack *dispatch.Stack) error {
	schema := op.Schema()
	if err := checkFallbackable(schema); err != nil {
		return err
	}
	if handled, err := ip.bypassIfNotParticipating(op, stack); handled {
		return err
	}
	if err := checkOutOfPlace(schema); err != nil {
		return err
	}
	if err := warnFallback(schema); err != nil {
		return err
	}
	return ip.runOutOfPlace(op, stack)
}

// InPlaceFallback runs an in-place op once per batch entry, writing each
// slice of self through a view, and leaves self as the single return.
//
// Every batched argument must be batched at a subset of self's levels.
func (ip *Interpreter) InPlaceFallback(op Operation, stack *dispatch.Stack) error {
	schema := op.Schema()
	if err := checkFallbackable(schema); err != nil {
		return err
	}
	if handled, err := ip.bypassIfNotParticipating(op, stack); handled {
		return err
	}
	if !schema.IsInplace() {
		return fmt.Errorf("%w: %s is not an in-place operator", ErrUnsupportedOperator, schema.OperatorName())
	}
	if err := warnFallback(schema); err != nil {
		return err
	}
	return ip.runInPlace(op, stack)
}

// checkFallbackable rejects schemas the per-slice loop cannot express at all.
func checkFallbackable(schema *dispatch.Schema) error {
	name := schema.OperatorName()
	if !lo.EveryBy(schema.Returns, func(r dispatch.Argument) bool { return r.Type == dispatch.TypeTensor }) {
		return fmt.Errorf("%w: batching rule not implemented for %s; we could not generate a fallback (non-Tensor return)",
			ErrUnsupportedOperator, name)
	}
	if lo.SomeBy(schema.Arguments, func(a dispatch.Argument) bool { return a.Type.IsTensorList() }) {
		return fmt.Errorf("%w: batching rule not implemented for %s; we could not generate a fallback (Tensor list argument)",
			ErrUnsupportedOperator, name)
	}
	return nil
}

func checkOutOfPlace(schema *dispatch.Schema) error {
	if schema.IsMutable() || schema.HasAnyAliasInfo() {
		return fmt.Errorf("%w: batching rule not implemented for %s; the fallback path doesn't work on out= or view ops",
			ErrUnsupportedOperator, schema.OperatorName())
	}
	if schema.ReturnCount() == 0 {
		return fmt.Errorf("%w: batching rule not implemented for %s; the fallback path doesn't work on operators with no returns",
			ErrUnsupportedOperator, schema.OperatorName())
	}
	return nil
}

// CheckSchema returns the error the fallback would reject an operator with,
// or nil when batched calls to it can run through the fallback.
func CheckSchema(schema *dispatch.Schema) error {
	if err := checkFallbackable(schema); err != nil {
		return err
	}
	if schema.IsInplace() {
		return nil
	}
	return checkOutOfPlace(schema)
}

func warnFallback(schema *dispatch.Schema) error {
	name := schema.OperatorName()
	if !IsFallbackEnabled() {
		return fmt.Errorf("%w: batching rule not implemented for %s; the vmap fallback is disabled", ErrFallbackDisabled, name)
	}
	if IsFallbackWarningEnabled() {
		warnOnce(name)
	}
	return nil
}

// participatesInCurrentLevel reports whether v is a tensor batched at the
// innermost active level.
func (ip *Interpreter) participatesInCurrentLevel(v dispatch.IValue) bool {
	if !v.IsDefinedTensor() {
		return false
	}
	b, ok := MaybeAsBatched(v.ToTensor())
	if !ok {
		return false
	}
	current, ok := ip.CurrentLevel()
	if !ok {
		internalError("batched tensor %v reached the fallback outside vmap", b)
	}
	if top := b.TopLevel(); top > current {
		internalError("batched tensor at level %d escaped into level %d", top, current)
	}
	return b.TopLevel() == current
}

// bypassIfNotParticipating invokes op once, with the current level suspended,
// when no argument is batched at the current level.
func (ip *Interpreter) bypassIfNotParticipating(op Operation, stack *dispatch.Stack) (bool, error) {
	args := stack.Last(op.Schema().Arity())
	if lo.SomeBy(args, ip.participatesInCurrentLevel) {
		return false, nil
	}
	defer ip.suspendCurrentLevel()()
	return true, op.CallBoxed(stack)
}

// callUnbatched invokes op with batched dispatch excluded.
func (ip *Interpreter) callUnbatched(op Operation, stack *dispatch.Stack) error {
	defer ip.d.Exclude(dispatch.KeyBatched)()
	return op.CallBoxed(stack)
}

// batchedArguments returns the batched tensors among args and their positions.
func batchedArguments(args []dispatch.IValue) ([]*BatchedTensor, []int) {
	var (
		tensors   []*BatchedTensor
		positions []int
	)
	for i, arg := range args {
		if !arg.IsDefinedTensor() {
			continue
		}
		if b, ok := MaybeAsBatched(arg.ToTensor()); ok {
			tensors = append(tensors, b)
			positions = append(positions, i)
		}
	}
	return tensors, positions
}

// pushSlice pushes the arguments for one batch entry: each batched argument
// replaced by its view at coords, everything else as is.
func pushSlice(stack *dispatch.Stack, args []dispatch.IValue, positions []int, views []PhysicalView, coords []int) error {
	next := 0
	for i, arg := range args {
		if next < len(positions) && positions[next] == i {
			slice, err := views[next].Tensor().Index(coords...)
			if err != nil {
				return fmt.Errorf("vmap: slice argument %d at %v: %w", i, coords, err)
			}
			stack.Push(dispatch.TensorValue(slice))
			next++
			continue
		}
		stack.Push(arg)
	}
	return nil
}

func physicalViews(name string, args []dispatch.IValue) ([]PhysicalView, []int, tensor.Shape, error) {
	batched, positions := batchedArguments(args)
	if len(batched) == 0 {
		internalError("%s: no batched arguments reached the per-slice loop", name)
	}
	views, err := LogicalToPhysical(batched)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	batchSizes := views[0].BatchSizes()
	if batchSizes.NumElements() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: batching rule not implemented for %s; the fallback path does not support vmap over dims of size 0",
			ErrZeroSizedBatch, name)
	}
	return views, positions, batchSizes, nil
}

func (ip *Interpreter) runOutOfPlace(op Operation, stack *dispatch.Stack) error {
	schema := op.Schema()
	name := schema.OperatorName()
	numArgs, numReturns := schema.Arity(), schema.ReturnCount()

	// Own copy: the loop pushes above these slots and Last aliases the stack.
	args := append([]dispatch.IValue(nil), stack.Last(numArgs)...)
	views, positions, batchSizes, err := physicalViews(name, args)
	if err != nil {
		return err
	}
	numBatches := batchSizes.NumElements()

	shards := make([]dispatch.Tensor, numBatches*numReturns)
	for linear := 0; linear < numBatches; linear++ {
		coords := computeIndex(linear, batchSizes)
		if err := pushSlice(stack, args, positions, views, coords); err != nil {
			return err
		}
		if err := ip.callUnbatched(op, stack); err != nil {
			return err
		}
		for r, v := range stack.Last(numReturns) {
			shards[r*numBatches+linear] = v.ToTensor()
		}
		stack.Drop(numReturns)
	}
	stack.Drop(numArgs)

	toLogical := views[0].PhysicalToLogicalMap()
	for r := 0; r < numReturns; r++ {
		flat, err := safeStack(shards[r*numBatches : (r+1)*numBatches])
		if err != nil {
			return fmt.Errorf("%s: return %d: %w", name, r, err)
		}
		if flat == nil {
			stack.Push(dispatch.UndefinedTensor())
			continue
		}
		grid := make(tensor.Shape, 0, len(batchSizes)+flat.Dim()-1)
		grid = append(grid, batchSizes...)
		grid = append(grid, flat.Shape()[1:]...)
		physical, err := flat.View(grid)
		if err != nil {
			return fmt.Errorf("%s: return %d: %w", name, r, err)
		}
		out, err := toLogical.Apply(physical)
		if err != nil {
			return fmt.Errorf("%s: return %d: %w", name, r, err)
		}
		stack.Push(dispatch.TensorValue(out))
	}
	return nil
}

func (ip *Interpreter) runInPlace(op Operation, stack *dispatch.Stack) error {
	schema := op.Schema()
	name := schema.OperatorName()
	numArgs := schema.Arity()

	args := append([]dispatch.IValue(nil), stack.Last(numArgs)...)
	self := args[0]
	if err := checkInPlaceLevels(name, args); err != nil {
		return err
	}
	views, positions, batchSizes, err := physicalViews(name, args)
	if err != nil {
		return err
	}

	numBatches := batchSizes.NumElements()
	for linear := 0; linear < numBatches; linear++ {
		if err := pushSlice(stack, args, positions, views, computeIndex(linear, batchSizes)); err != nil {
			return err
		}
		if err := ip.callUnbatched(op, stack); err != nil {
			return err
		}
		// The written slice is a view of self.
		stack.Drop(1)
	}
	stack.Drop(numArgs)
	stack.Push(self)
	return nil
}

// checkInPlaceLevels fails when any batched argument carries a level that
// self lacks: the result would need a batch dim self cannot grow.
func checkInPlaceLevels(name string, args []dispatch.IValue) error {
	var selfLevels LevelSet
	if args[0].IsDefinedTensor() {
		if b, ok := MaybeAsBatched(args[0].ToTensor()); ok {
			selfLevels = b.Levels()
		}
	}
	batched, _ := batchedArguments(args)
	for _, b := range batched {
		other := b.Levels()
		if selfLevels.IsSupersetOf(other) {
			continue
		}
		level, _ := other.Difference(selfLevels).Highest()
		return fmt.Errorf("%w: vmap: %s(self, *extra_args) is not possible because there exists a Tensor `other` "+
			"in extra_args that has more elements than `self`. This happened due to `other` being vmapped over "+
			"but `self` not being vmapped over at level %d. Please try to use out-of-place operators instead of %s.",
			ErrInPlaceIncompatible, name, level, name)
	}
	return nil
}

// computeIndex converts a linear batch index into per-level coordinates,
// row-major with the last level varying fastest.
func computeIndex(linear int, sizes tensor.Shape) []int {
	coords := make([]int, len(sizes))
	for d := len(sizes) - 1; d >= 0; d-- {
		coords[d] = linear % sizes[d]
		linear /= sizes[d]
	}
	return coords
}

// safeStack stacks per-entry results along a new leading dim. All undefined
// gives an undefined (nil) result. A mix of defined and undefined is an error.
func safeStack(shards []dispatch.Tensor) (*tensor.RawTensor, error) {
	raws := make([]*tensor.RawTensor, 0, len(shards))
	for _, s := range shards {
		if s == nil {
			continue
		}
		raw, ok := s.(*tensor.RawTensor)
		if !ok {
			internalError("per-slice result is %T, not a plain tensor", s)
		}
		raws = append(raws, raw)
	}
	switch len(raws) {
	case 0:
		return nil, nil
	case len(shards):
		return tensor.Stack(raws)
	default:
		return nil, fmt.Errorf("%w: vmap: found both defined and undefined tensors in the results of the per-example calls; "+
			"a function must return either all defined or all undefined tensors", ErrInconsistentResult)
	}
}
