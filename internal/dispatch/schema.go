package dispatch

import (
	"strings"

	"github.com/samber/lo"
)

// ArgType is the declared type of an operator argument or return.
type ArgType int

// Declared argument types.
const (
	TypeTensor ArgType = iota
	TypeOptionalTensor
	TypeTensorList
	TypeOptionalTensorList
	TypeInt
	TypeFloat
	TypeBool
	TypeIntList
	TypeScalar
	TypeString
)

// String returns the schema spelling of the type.
func (t ArgType) String() string {
	switch t {
	case TypeTensor:
		return "Tensor"
	case TypeOptionalTensor:
		return "Tensor?"
	case TypeTensorList:
		return "Tensor[]"
	case TypeOptionalTensorList:
		return "Tensor?[]"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeIntList:
		return "int[]"
	case TypeScalar:
		return "Scalar"
	case TypeString:
		return "str"
	default:
		return "unknown"
	}
}

// IsTensorList reports whether the type is a list of (optional) tensors.
func (t ArgType) IsTensorList() bool {
	return t == TypeTensorList || t == TypeOptionalTensorList
}

// AliasInfo records that a value aliases the storage of an alias set,
// optionally writing to it, as in "Tensor(a!)".
type AliasInfo struct {
	Set     string
	IsWrite bool
}

// Argument describes one argument or return of an operator.
type Argument struct {
	Name  string
	Type  ArgType
	Alias *AliasInfo
}

// Arg declares an argument.
func Arg(name string, typ ArgType) Argument {
	return Argument{Name: name, Type: typ}
}

// Ret declares an unnamed return.
func Ret(typ ArgType) Argument {
	return Argument{Type: typ}
}

// Aliases returns a copy of a that aliases set without writing to it.
func (a Argument) Aliases(set string) Argument {
	a.Alias = &AliasInfo{Set: set}
	return a
}

// Writes returns a copy of a that aliases and writes to set.
func (a Argument) Writes(set string) Argument {
	a.Alias = &AliasInfo{Set: set, IsWrite: true}
	return a
}

// String formats the argument in schema notation.
func (a Argument) String() string {
	var b strings.Builder
	b.WriteString(a.Type.String())
	if a.Alias != nil {
		b.WriteString("(" + a.Alias.Set)
		if a.Alias.IsWrite {
			b.WriteString("!")
		}
		b.WriteString(")")
	}
	if a.Name != "" {
		b.WriteString(" " + a.Name)
	}
	return b.String()
}

// Schema is the immutable description of an operator.
type Schema struct {
	Name         string
	OverloadName string
	Arguments    []Argument
	Returns      []Argument
}

// OperatorName returns "name.overload", or just the name without an overload.
func (s *Schema) OperatorName() string {
	if s.OverloadName == "" {
		return s.Name
	}
	return s.Name + "." + s.OverloadName
}

// Arity returns the number of declared arguments.
func (s *Schema) Arity() int {
	return len(s.Arguments)
}

// ReturnCount returns the number of declared returns.
func (s *Schema) ReturnCount() int {
	return len(s.Returns)
}

// IsMutable reports whether any argument is written to.
func (s *Schema) IsMutable() bool {
	return lo.SomeBy(s.Arguments, func(a Argument) bool {
		return a.Alias != nil && a.Alias.IsWrite
	})
}

// HasAnyAliasInfo reports whether any argument or return carries alias annotations.
func (s *Schema) HasAnyAliasInfo() bool {
	hasAlias := func(a Argument) bool { return a.Alias != nil }
	return lo.SomeBy(s.Arguments, hasAlias) || lo.SomeBy(s.Returns, hasAlias)
}

// IsInplace reports whether the operator mutates its first argument and
// returns it: "op_(Tensor(a!) self, ...) -> Tensor(a!)" with no other aliasing.
func (s *Schema) IsInplace() bool {
	if !s.IsMutable() || len(s.Returns) != 1 || len(s.Arguments) == 0 {
		return false
	}
	first := s.Arguments[0].Alias
	if first == nil || !first.IsWrite {
		return false
	}
	if lo.SomeBy(s.Arguments[1:], func(a Argument) bool { return a.Alias != nil }) {
		return false
	}
	ret := s.Returns[0].Alias
	return ret != nil && ret.IsWrite
}

// String formats the schema as "name.overload(args) -> returns".
func (s *Schema) String() string {
	args := lo.Map(s.Arguments, func(a Argument, _ int) string { return a.String() })
	rets := lo.Map(s.Returns, func(a Argument, _ int) string { return a.String() })
	out := strings.Join(rets, ", ")
	if len(s.Returns) != 1 {
		out = "(" + out + ")"
	}
	return s.OperatorName() + "(" + strings.Join(args, ", ") + ") -> " + out
}
