// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package vmap_test

import (
	"testing"

	"github.com/born-ml/vmap/backend/cpu"
	"github.com/born-ml/vmap/dispatch"
	"github.com/born-ml/vmap/ops"
	"github.com/born-ml/vmap/tensor"
	"github.com/born-ml/vmap/vmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAPI_VmapAdd(t *testing.T) {
	d := dispatch.New()
	_, err := ops.Register(d, cpu.NewWithWorkers(1))
	require.NoError(t, err)
	ip := vmap.New(d)

	xs, err := tensor.Arange(tensor.Shape{3, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	add := func(args []dispatch.IValue) ([]dispatch.IValue, error) {
		return d.Call("add.Tensor", args...)
	}
	out, err := ip.Vmap(add, []vmap.InDim{vmap.Dim(0), vmap.NoDim}, 0)(
		[]dispatch.IValue{dispatch.TensorValue(xs), dispatch.TensorValue(y)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got, err := out[0].ToRawTensor()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float64{10, 21, 12, 23, 14, 25}, got.Float64s())
}

func TestPublicAPI_CheckSchema(t *testing.T) {
	d := dispatch.New()
	_, err := ops.Register(d, cpu.New())
	require.NoError(t, err)

	numel, ok := d.Find("numel")
	require.True(t, ok)
	assert.ErrorIs(t, vmap.CheckSchema(numel.Schema()), vmap.ErrUnsupportedOperator)

	add, ok := d.Find("add.Tensor")
	require.True(t, ok)
	assert.NoError(t, vmap.CheckSchema(add.Schema()))
}

func TestPublicAPI_Flags(t *testing.T) {
	t.Cleanup(func() { vmap.SetFallbackEnabled(true) })

	assert.True(t, vmap.IsFallbackEnabled())
	vmap.SetFallbackEnabled(false)
	assert.False(t, vmap.IsFallbackEnabled())
	assert.ErrorIs(t, vmap.ErrFallbackDisabled, vmap.ErrUnsupportedOperator)
}
