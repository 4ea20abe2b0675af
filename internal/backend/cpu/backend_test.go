package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/vmap/internal/parallel"
	"github.com/born-ml/vmap/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_Binary(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3})
		b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{3})

		sum, err := backend.Add(a, b)
		require.NoError(t, err)
		assert.Equal(t, []float32{11, 22, 33}, sum.AsFloat32())

		diff, err := backend.Sub(b, a)
		require.NoError(t, err)
		assert.Equal(t, []float32{9, 18, 27}, diff.AsFloat32())
	})

	t.Run("Broadcast", func(t *testing.T) {
		a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := fromSlice(t, []float32{10, 100, 1000}, tensor.Shape{3})

		prod, err := backend.Mul(a, b)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{2, 3}, prod.Shape())
		assert.Equal(t, []float32{10, 200, 3000, 40, 500, 6000}, prod.AsFloat32())
	})

	t.Run("StridedInput", func(t *testing.T) {
		a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
		at, err := a.Permute(1, 0)
		require.NoError(t, err)

		quot, err := backend.Div(at, fromSlice(t, []float32{1, 2}, tensor.Shape{2}))
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 1.5, 2, 2}, quot.AsFloat32())
	})

	t.Run("Incompatible", func(t *testing.T) {
		_, err := backend.Add(
			fromSlice(t, []float32{1, 2}, tensor.Shape{2}),
			fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}))
		assert.Error(t, err)
	})
}

func TestCPUBackend_InPlace(t *testing.T) {
	backend := New()

	base := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	col, err := base.Select(1, 0)
	require.NoError(t, err)

	require.NoError(t, backend.AddInPlace(col, fromSlice(t, []float32{10}, tensor.Shape{1})))
	assert.Equal(t, []float32{11, 2, 13, 4}, base.AsFloat32())

	require.NoError(t, backend.MulInPlace(base, fromSlice(t, []float32{2, 3}, tensor.Shape{2})))
	assert.Equal(t, []float32{22, 6, 26, 12}, base.AsFloat32())

	err = backend.AddInPlace(col, fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}))
	assert.Error(t, err)

	err = backend.AddInPlace(fromSlice(t, []float32{1}, tensor.Shape{1}), base)
	assert.Error(t, err, "in-place result cannot grow to the broadcast shape")
}

func TestCPUBackend_Unary(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{0, 1}, tensor.Shape{2})

	assert.InDeltaSlice(t, []float32{1, float32(math.E)}, backend.Exp(x).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{0, float32(math.Sin(1))}, backend.Sin(x).AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{1, float32(math.Cos(1))}, backend.Cos(x).AsFloat32(), 1e-6)
	assert.Equal(t, []float32{0, 2.5}, backend.MulScalar(x, 2.5).AsFloat32())
	assert.Equal(t, []float32{0, -1}, backend.Neg(x).AsFloat32())
}

func TestCPUBackend_Reduce(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 5, 3, 4, 2, 6}, tensor.Shape{2, 3})

	sum, err := backend.SumDim(x, -1, false)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, sum.Shape())
	assert.Equal(t, []float32{9, 12}, sum.AsFloat32())

	sum0, err := backend.SumDim(x, 0, true)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3}, sum0.Shape())
	assert.Equal(t, []float32{5, 7, 9}, sum0.AsFloat32())

	values, indices, err := backend.MaxDim(x, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6}, values.AsFloat32())
	assert.Equal(t, []int64{1, 2}, indices.AsInt64())

	_, err = backend.SumDim(x, 2, false)
	assert.Error(t, err)
}

func TestCPUBackend_ParallelMatchesSequential(t *testing.T) {
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16})
	seq := NewWithConfig(parallel.Sequential())

	x, err := tensor.Arange(tensor.Shape{32, 40}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	xt, err := x.Permute(1, 0)
	require.NoError(t, err)

	sumPar, err := par.Add(xt, xt)
	require.NoError(t, err)
	sumSeq, err := seq.Add(xt, xt)
	require.NoError(t, err)
	assert.Equal(t, sumSeq.AsFloat64(), sumPar.AsFloat64())

	assert.Equal(t, seq.Sin(xt).AsFloat64(), par.Sin(xt).AsFloat64())

	redPar, err := par.SumDim(xt, 1, false)
	require.NoError(t, err)
	redSeq, err := seq.SumDim(xt, 1, false)
	require.NoError(t, err)
	assert.Equal(t, redSeq.AsFloat64(), redPar.AsFloat64())
}
