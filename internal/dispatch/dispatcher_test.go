package dispatch

import (
	"errors"
	"testing"

	"github.com/born-ml/vmap/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyed is a tensor wrapper that carries the batched key.
type keyed struct{ *tensor.RawTensor }

func (keyed) DispatchKeys() KeySet { return NewKeySet(KeyBatched) }

func identitySchema() Schema {
	return Schema{
		Name:      "identity",
		Arguments: []Argument{Arg("self", TypeTensor)},
		Returns:   []Argument{Ret(TypeTensor)},
	}
}

func mustRaw(t *testing.T) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func TestDispatcher_RegisterAndFind(t *testing.T) {
	d := New()
	op, err := d.Register(identitySchema(), func(_ *OperatorHandle, _ *Stack) error { return nil })
	require.NoError(t, err)

	found, ok := d.Find("identity")
	require.True(t, ok)
	assert.Same(t, op, found)
	assert.Equal(t, 1, op.Arity())
	assert.Equal(t, 1, op.ReturnCount())

	_, err = d.Register(identitySchema(), func(_ *OperatorHandle, _ *Stack) error { return nil })
	assert.Error(t, err)

	_, ok = d.Find("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"identity"}, d.Ops())

	err = d.RegisterRule(KeyBatched, "missing", nil)
	assert.True(t, errors.Is(err, ErrUnknownOperator))
}

func TestDispatcher_Routing(t *testing.T) {
	d := New()
	var trace []string
	_, err := d.Register(identitySchema(), func(_ *OperatorHandle, s *Stack) error {
		trace = append(trace, "kernel")
		return nil
	})
	require.NoError(t, err)
	d.RegisterFallback(KeyBatched, func(_ *OperatorHandle, s *Stack) error {
		trace = append(trace, "fallback")
		return nil
	})

	plain := TensorValue(mustRaw(t))
	wrapped := TensorValue(keyed{mustRaw(t)})

	_, err = d.Call("identity", plain)
	require.NoError(t, err)
	_, err = d.Call("identity", wrapped)
	require.NoError(t, err)

	restore := d.Exclude(KeyBatched)
	assert.True(t, d.IsExcluded(KeyBatched))
	_, err = d.Call("identity", wrapped)
	require.NoError(t, err)
	restore()
	assert.False(t, d.IsExcluded(KeyBatched))

	require.NoError(t, d.RegisterRule(KeyBatched, "identity", func(_ *OperatorHandle, s *Stack) error {
		trace = append(trace, "rule")
		return nil
	}))
	assert.True(t, d.HasRule(KeyBatched, "identity"))
	_, err = d.Call("identity", wrapped)
	require.NoError(t, err)

	assert.Equal(t, []string{"kernel", "fallback", "kernel", "rule"}, trace)
}

func TestDispatcher_ExcludeNests(t *testing.T) {
	d := New()
	outer := d.Exclude(KeyBatched)
	inner := d.Exclude(KeyBatched)
	inner()
	assert.True(t, d.IsExcluded(KeyBatched), "inner restore must keep the outer exclusion")
	outer()
	assert.False(t, d.IsExcluded(KeyBatched))
}

func TestDispatcher_ReturnCountContract(t *testing.T) {
	d := New()
	_, err := d.Register(identitySchema(), func(_ *OperatorHandle, s *Stack) error {
		s.Drop(1)
		return nil
	})
	require.NoError(t, err)

	_, err = d.Call("identity", TensorValue(mustRaw(t)))
	assert.ErrorContains(t, err, "declares 1 returns")

	_, err = d.Call("identity")
	assert.Error(t, err)
}

func TestDispatcher_MissingFallback(t *testing.T) {
	d := New()
	_, err := d.Register(identitySchema(), func(_ *OperatorHandle, _ *Stack) error { return nil })
	require.NoError(t, err)

	_, err = d.Call("identity", TensorValue(keyed{mustRaw(t)}))
	assert.ErrorContains(t, err, "no kernel registered for dispatch key Batched")
}

func TestStack(t *testing.T) {
	s := NewStack(IntValue(1), IntValue(2))
	s.Push(IntValue(3))
	require.Equal(t, 3, s.Len())

	last := s.Last(2)
	assert.Equal(t, int64(2), last[0].ToInt())
	assert.Equal(t, int64(3), last[1].ToInt())

	assert.Equal(t, int64(3), s.Pop().ToInt())
	s.Drop(1)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(1), s.At(0).ToInt())

	assert.Panics(t, func() { s.Drop(2) })
	popped := s.PopN(1)
	assert.Len(t, popped, 1)
	assert.Panics(t, func() { s.Pop() })
}

func TestIValue(t *testing.T) {
	raw := mustRaw(t)

	v := TensorValue(raw)
	assert.True(t, v.IsDefinedTensor())
	got, err := v.ToRawTensor()
	require.NoError(t, err)
	assert.Same(t, raw, got)

	var nilRaw *tensor.RawTensor
	undef := TensorValue(nilRaw)
	assert.True(t, undef.IsTensor())
	assert.False(t, undef.IsDefinedTensor())
	_, err = undef.ToRawTensor()
	assert.Error(t, err)

	_, err = TensorValue(keyed{raw}).ToRawTensor()
	assert.Error(t, err)

	assert.Equal(t, 2.0, IntValue(2).ToFloat())
	assert.Panics(t, func() { IntValue(1).ToBool() })
	assert.Equal(t, "None", None().String())
	assert.Equal(t, KindTensorList, TensorListValue(nil).Kind())
}

func TestSchemaPredicates(t *testing.T) {
	addInplace := Schema{
		Name: "add_", OverloadName: "Tensor",
		Arguments: []Argument{Arg("self", TypeTensor).Writes("a"), Arg("other", TypeTensor)},
		Returns:   []Argument{Ret(TypeTensor).Writes("a")},
	}
	addOut := Schema{
		Name: "add", OverloadName: "out",
		Arguments: []Argument{Arg("self", TypeTensor), Arg("other", TypeTensor), Arg("out", TypeTensor).Writes("a")},
		Returns:   []Argument{Ret(TypeTensor).Writes("a")},
	}
	transpose := Schema{
		Name: "transpose", OverloadName: "int",
		Arguments: []Argument{Arg("self", TypeTensor).Aliases("a"), Arg("dim0", TypeInt), Arg("dim1", TypeInt)},
		Returns:   []Argument{Ret(TypeTensor).Aliases("a")},
	}
	sin := Schema{
		Name:      "sin",
		Arguments: []Argument{Arg("self", TypeTensor)},
		Returns:   []Argument{Ret(TypeTensor)},
	}

	tests := []struct {
		name                    string
		schema                  Schema
		mutable, alias, inplace bool
		wantString              string
	}{
		{"in-place", addInplace, true, true, true, "add_.Tensor(Tensor(a!) self, Tensor other) -> Tensor(a!)"},
		{"out variant", addOut, true, true, false, "add.out(Tensor self, Tensor other, Tensor(a!) out) -> Tensor(a!)"},
		{"view", transpose, false, true, false, "transpose.int(Tensor(a) self, int dim0, int dim1) -> Tensor(a)"},
		{"functional", sin, false, false, false, "sin(Tensor self) -> Tensor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mutable, tt.schema.IsMutable())
			assert.Equal(t, tt.alias, tt.schema.HasAnyAliasInfo())
			assert.Equal(t, tt.inplace, tt.schema.IsInplace())
			assert.Equal(t, tt.wantString, tt.schema.String())
		})
	}
}

func TestKeySet(t *testing.T) {
	s := NewKeySet(KeyBatched)
	assert.True(t, s.Has(KeyBatched))
	assert.Equal(t, KeyBatched, s.Highest())
	assert.Equal(t, KeyBackend, s.Remove(KeyBatched).Highest())
	assert.Equal(t, "{Batched}", s.String())
}
