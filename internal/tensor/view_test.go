package tensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustArange(t *testing.T, shape Shape) *RawTensor {
	t.Helper()
	raw, err := Arange(shape, Float32, CPU)
	require.NoError(t, err)
	return raw
}

func TestPermute(t *testing.T) {
	x := mustArange(t, Shape{2, 3})

	y, err := x.Permute(1, 0)
	require.NoError(t, err)

	assert.Equal(t, Shape{3, 2}, y.Shape())
	assert.False(t, y.IsContiguous())
	assert.True(t, y.SharesStorage(x))
	if diff := cmp.Diff([]float64{0, 3, 1, 4, 2, 5}, y.Float64s()); diff != "" {
		t.Errorf("permuted data mismatch (-want +got):\n%s", diff)
	}

	_, err = x.Permute(0, 0)
	assert.Error(t, err)
	_, err = x.Permute(0)
	assert.Error(t, err)
}

func TestMovedim(t *testing.T) {
	x := mustArange(t, Shape{2, 3, 4})

	tests := []struct {
		name     string
		src, dst int
		want     Shape
	}{
		{"last to front", 2, 0, Shape{4, 2, 3}},
		{"front to last", 0, -1, Shape{3, 4, 2}},
		{"middle to front", 1, 0, Shape{3, 2, 4}},
		{"noop", 1, 1, Shape{2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := x.Movedim(tt.src, tt.dst)
			require.NoError(t, err)
			assert.Equal(t, tt.want, y.Shape())
		})
	}

	y, err := x.Movedim(2, 0)
	require.NoError(t, err)
	// y[k, i, j] == x[i, j, k]
	assert.Equal(t, x.Float64At(1*12+2*4+3), y.Float64At(3*6+1*3+2))
}

func TestUnsqueezeExpand(t *testing.T) {
	x := mustArange(t, Shape{3})

	y, err := x.Unsqueeze(0)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 3}, y.Shape())

	z, err := y.Expand(Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, z.Strides())
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2}, z.Float64s())

	_, err = x.Expand(Shape{4})
	assert.Error(t, err)

	w, err := x.Unsqueeze(-1)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 1}, w.Shape())
}

func TestSelectAndIndex(t *testing.T) {
	x := mustArange(t, Shape{3, 2, 2})

	row, err := x.Select(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, row.Shape())
	assert.Equal(t, []float64{4, 5, 6, 7}, row.Float64s())

	col, err := x.Select(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5, 7, 9, 11}, col.Float64s())

	elem, err := x.Index(2, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2}, elem.Shape())
	assert.Equal(t, []float64{10, 11}, elem.Float64s())

	_, err = x.Index(3)
	assert.Error(t, err)
	_, err = x.Select(1, -1)
	assert.Error(t, err)
}

func TestWritesThroughViews(t *testing.T) {
	x := mustArange(t, Shape{2, 3})
	xt, err := x.Permute(1, 0)
	require.NoError(t, err)

	slice, err := xt.Index(2)
	require.NoError(t, err)
	slice.SetFloat64At(0, 100)
	slice.SetFloat64At(1, 200)

	assert.Equal(t, []float32{0, 1, 100, 3, 4, 200}, x.AsFloat32())
}

func TestReshapeAndContiguous(t *testing.T) {
	x := mustArange(t, Shape{2, 3})

	v, err := x.Reshape(Shape{3, 2})
	require.NoError(t, err)
	assert.True(t, v.SharesStorage(x))

	xt, err := x.Permute(1, 0)
	require.NoError(t, err)
	r, err := xt.Reshape(Shape{6})
	require.NoError(t, err)
	assert.False(t, r.SharesStorage(x))
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, r.AsFloat32())

	_, err = xt.View(Shape{6})
	assert.Error(t, err)
	_, err = x.View(Shape{5})
	assert.Error(t, err)

	assert.Panics(t, func() { xt.AsFloat32() })
}

func TestStack(t *testing.T) {
	a, err := FromSlice([]float32{1, 2}, Shape{2}, CPU)
	require.NoError(t, err)
	b, err := FromSlice([]float32{3, 4}, Shape{2}, CPU)
	require.NoError(t, err)
	c := mustArange(t, Shape{2, 2})
	ct, err := c.Permute(1, 0)
	require.NoError(t, err)
	col, err := ct.Index(1)
	require.NoError(t, err)

	out, err := Stack([]*RawTensor{a, b, col})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 1, 3}, out.AsFloat32())

	_, err = Stack(nil)
	assert.Error(t, err)

	d, err := FromSlice([]float32{1, 2, 3}, Shape{3}, CPU)
	require.NoError(t, err)
	_, err = Stack([]*RawTensor{a, d})
	assert.Error(t, err)
}

func TestZeroSizedShape(t *testing.T) {
	x, err := NewRaw(Shape{0, 3}, Float32, CPU)
	require.NoError(t, err)
	assert.Equal(t, 0, x.NumElements())
	assert.Empty(t, x.AsFloat32())

	_, err = NewRaw(Shape{-1}, Float32, CPU)
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b    Shape
		want    Shape
		wantErr bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, false},
		{Shape{5}, Shape{2, 5}, Shape{2, 5}, false},
		{Shape{}, Shape{4}, Shape{4}, false},
		{Shape{3, 4}, Shape{3, 5}, nil, true},
	}
	for _, tt := range tests {
		got, _, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestUnravel(t *testing.T) {
	s := Shape{3, 2}
	coords := make([]int, 2)
	var got [][]int
	for i := 0; i < s.NumElements(); i++ {
		s.Unravel(i, coords)
		got = append(got, append([]int(nil), coords...))
	}
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}, got)
}

func TestCat(t *testing.T) {
	a := mustArange(t, Shape{2, 2})
	b := mustArange(t, Shape{2, 1})

	c, err := Cat([]*RawTensor{a, b}, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, c.Shape())
	if diff := cmp.Diff([]float64{0, 1, 0, 2, 3, 1}, c.Float64s()); diff != "" {
		t.Errorf("cat data mismatch (-want +got):\n%s", diff)
	}

	_, err = Cat([]*RawTensor{a, b}, 0)
	assert.Error(t, err)
	_, err = Cat(nil, 0)
	assert.Error(t, err)
}
