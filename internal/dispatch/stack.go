package dispatch

import "fmt"

// Stack is the boxed calling convention shared by callers and operators.
// A caller pushes an operator's arguments in declared order; the operator
// consumes exactly its arity and pushes its returns in declared order.
//
// A Stack is owned by one call chain at a time and is not safe for
// concurrent use.
type Stack struct {
	values []IValue
}

// NewStack creates a stack holding values (bottom first).
func NewStack(values ...IValue) *Stack {
	return &Stack{values: append(make([]IValue, 0, len(values)+4), values...)}
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.values)
}

// Push appends values to the top of the stack.
func (s *Stack) Push(values ...IValue) {
	s.values = append(s.values, values...)
}

// Pop removes and returns the top value.
func (s *Stack) Pop() IValue {
	if len(s.values) == 0 {
		panic("stack: pop from empty stack")
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v
}

// Last returns the top n values, bottom first, without removing them.
// The returned slice aliases the stack and is invalidated by the next Push.
func (s *Stack) Last(n int) []IValue {
	s.mustHave(n)
	return s.values[len(s.values)-n:]
}

// Drop removes the top n values.
func (s *Stack) Drop(n int) {
	s.mustHave(n)
	for i := len(s.values) - n; i < len(s.values); i++ {
		s.values[i] = IValue{}
	}
	s.values = s.values[:len(s.values)-n]
}

// PopN removes the top n values and returns them bottom first.
func (s *Stack) PopN(n int) []IValue {
	out := append([]IValue(nil), s.Last(n)...)
	s.Drop(n)
	return out
}

// At returns the value at absolute position i (0 is the bottom).
func (s *Stack) At(i int) IValue {
	return s.values[i]
}

// Values returns a copy of the stack contents, bottom first.
func (s *Stack) Values() []IValue {
	return append([]IValue(nil), s.values...)
}

func (s *Stack) mustHave(n int) {
	if n < 0 || n > len(s.values) {
		panic(fmt.Sprintf("stack: need %d values, have %d", n, len(s.values)))
	}
}
