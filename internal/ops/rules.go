package ops

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/vmap"
)

// pointwiseOps compute each output element from the matching input element
// only, so they can run once over the whole physical tensor.
var pointwiseOps = []string{"neg", "exp", "sin", "cos", "mul.Scalar", "clone"}

// RegisterBatchingRules installs KeyBatched rules for the pointwise
// operators. Operators without a rule use the vmap fallback.
func (l *Library) RegisterBatchingRules() error {
	for _, name := range pointwiseOps {
		if err := l.d.RegisterRule(dispatch.KeyBatched, name, pointwiseRule); err != nil {
			return err
		}
	}
	return nil
}

// BatchingRuleOps returns the operators that have a batching rule.
func BatchingRuleOps() []string {
	return append([]string(nil), pointwiseOps...)
}

func pointwiseRule(op *dispatch.OperatorHandle, stack *dispatch.Stack) error {
	args := stack.PopN(op.Arity())
	self, ok := vmap.MaybeAsBatched(args[0].ToTensor())
	if !ok {
		return fmt.Errorf("%s: batching rule needs a batched self, got %s", op.Name(), args[0])
	}
	views, err := vmap.LogicalToPhysical([]*vmap.BatchedTensor{self})
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}

	stack.Push(dispatch.TensorValue(views[0].Tensor()))
	stack.Push(args[1:]...)
	if err := op.CallBoxed(stack); err != nil {
		return err
	}
	physical, err := stack.Pop().ToRawTensor()
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	out, err := views[0].PhysicalToLogicalMap().Apply(physical)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name(), err)
	}
	stack.Push(dispatch.TensorValue(out))
	return nil
}
