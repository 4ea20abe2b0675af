package vmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

// BatchDim records that physical dimension Dim of a BatchedTensor is the
// batch dimension of vmap level Level.
type BatchDim struct {
	Level int
	Dim   int
}

// BatchedTensor is a physical tensor together with the dimensions that are
// batch dimensions, one per vmap level. The remaining dimensions form the
// logical tensor the wrapped function sees.
//
// BatchDims are kept sorted by level and no level appears twice.
type BatchedTensor struct {
	value *tensor.RawTensor
	bdims []BatchDim
}

var _ dispatch.KeyedTensor = (*BatchedTensor)(nil)

// MakeBatched wraps value with bdims. It fails when a dim is out of range, a
// dim is used twice, or a level is repeated.
func MakeBatched(value *tensor.RawTensor, bdims []BatchDim) (*BatchedTensor, error) {
	if value == nil {
		return nil, fmt.Errorf("vmap: cannot batch an undefined tensor")
	}
	if len(bdims) == 0 {
		return nil, fmt.Errorf("vmap: batched tensor needs at least one batch dim")
	}

	sorted := append([]BatchDim(nil), bdims...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	var levels LevelSet
	usedDims := make(map[int]bool, len(sorted))
	for i, bd := range sorted {
		if bd.Dim < 0 || bd.Dim >= value.Dim() {
			return nil, fmt.Errorf("vmap: batch dim %d out of range for %dD tensor", bd.Dim, value.Dim())
		}
		if bd.Level < 0 || bd.Level >= MaxLevels {
			return nil, fmt.Errorf("vmap: level %d out of range [0, %d)", bd.Level, MaxLevels)
		}
		if levels.Has(bd.Level) {
			return nil, fmt.Errorf("vmap: level %d batched twice", bd.Level)
		}
		if usedDims[bd.Dim] {
			return nil, fmt.Errorf("vmap: dim %d batched twice", bd.Dim)
		}
		levels = levels.Add(bd.Level)
		usedDims[bd.Dim] = true
		sorted[i] = bd
	}
	return &BatchedTensor{value: value, bdims: sorted}, nil
}

// MaybeAsBatched returns t as a BatchedTensor when it is one.
func MaybeAsBatched(t dispatch.Tensor) (*BatchedTensor, bool) {
	b, ok := t.(*BatchedTensor)
	return b, ok && b != nil
}

// Value returns the physical tensor.
func (b *BatchedTensor) Value() *tensor.RawTensor {
	return b.value
}

// BatchDims returns a copy of the batch dims, sorted by level.
func (b *BatchedTensor) BatchDims() []BatchDim {
	return append([]BatchDim(nil), b.bdims...)
}

// Levels returns the set of levels b is batched at.
func (b *BatchedTensor) Levels() LevelSet {
	var s LevelSet
	for _, bd := range b.bdims {
		s = s.Add(bd.Level)
	}
	return s
}

// TopLevel returns the innermost level b is batched at.
func (b *BatchedTensor) TopLevel() int {
	return b.bdims[len(b.bdims)-1].Level
}

// BatchSize returns the size of level's batch dimension.
func (b *BatchedTensor) BatchSize(level int) (int, bool) {
	for _, bd := range b.bdims {
		if bd.Level == level {
			return b.value.Shape()[bd.Dim], true
		}
	}
	return 0, false
}

// Shape returns the logical shape: the physical shape without batch dims.
func (b *BatchedTensor) Shape() tensor.Shape {
	shape := make(tensor.Shape, 0, b.value.Dim()-len(b.bdims))
	for d, size := range b.value.Shape() {
		if !b.isBatchDim(d) {
			shape = append(shape, size)
		}
	}
	return shape
}

// DType returns the element type.
func (b *BatchedTensor) DType() tensor.DataType {
	return b.value.DType()
}

// DispatchKeys routes every operator taking b through the batching layer.
func (b *BatchedTensor) DispatchKeys() dispatch.KeySet {
	return dispatch.NewKeySet(dispatch.KeyBatched)
}

// String returns a short description.
func (b *BatchedTensor) String() string {
	parts := make([]string, len(b.bdims))
	for i, bd := range b.bdims {
		parts[i] = fmt.Sprintf("(lvl=%d, dim=%d)", bd.Level, bd.Dim)
	}
	return fmt.Sprintf("BatchedTensor[%s]%v bdims=[%s]", b.DType(), b.Shape(), strings.Join(parts, ", "))
}

func (b *BatchedTensor) isBatchDim(d int) bool {
	for _, bd := range b.bdims {
		if bd.Dim == d {
			return true
		}
	}
	return false
}

// logicalDims returns the physical indices of the logical dimensions in order.
func (b *BatchedTensor) logicalDims() []int {
	dims := make([]int, 0, b.value.Dim()-len(b.bdims))
	for d := 0; d < b.value.Dim(); d++ {
		if !b.isBatchDim(d) {
			dims = append(dims, d)
		}
	}
	return dims
}

// physicalDim maps a logical insertion position in [0, logicalRank] to the
// physical index a new dimension should take.
func (b *BatchedTensor) physicalDim(logical int) int {
	dims := b.logicalDims()
	if logical == len(dims) {
		return b.value.Dim()
	}
	return dims[logical]
}

// AddBatchDim makes t batched at level along its logical dimension dim.
// t may be a plain tensor or already batched at outer levels.
func AddBatchDim(t dispatch.Tensor, level, dim int) (dispatch.Tensor, error) {
	switch v := t.(type) {
	case *tensor.RawTensor:
		d, err := tensor.NormalizeDim(dim, v.Dim())
		if err != nil {
			return nil, fmt.Errorf("vmap: in_dim: %w", err)
		}
		return MakeBatched(v, []BatchDim{{Level: level, Dim: d}})
	case *BatchedTensor:
		if v.Levels().Has(level) {
			return nil, fmt.Errorf("vmap: tensor is already batched at level %d", level)
		}
		d, err := tensor.NormalizeDim(dim, len(v.Shape()))
		if err != nil {
			return nil, fmt.Errorf("vmap: in_dim: %w", err)
		}
		bdims := append(v.BatchDims(), BatchDim{Level: level, Dim: v.logicalDims()[d]})
		return MakeBatched(v.value, bdims)
	default:
		return nil, fmt.Errorf("vmap: cannot batch %T", t)
	}
}

// RemoveBatchDim turns the batch dimension of level back into a logical
// dimension at outDim. When t is not batched at level, it is broadcast along
// a new dimension of batchSize, matching a function that ignored its input.
func RemoveBatchDim(t dispatch.Tensor, level, outDim, batchSize int) (dispatch.Tensor, error) {
	b, ok := MaybeAsBatched(t)
	if ok && b.Levels().Has(level) {
		return unwrapLevel(b, level, outDim)
	}

	logicalRank := len(t.Shape())
	d, err := tensor.NormalizeDim(outDim, logicalRank+1)
	if err != nil {
		return nil, fmt.Errorf("vmap: out_dim: %w", err)
	}

	var (
		physical *tensor.RawTensor
		pos      int
		bdims    []BatchDim
	)
	switch v := t.(type) {
	case *tensor.RawTensor:
		physical, pos = v, d
	case *BatchedTensor:
		physical, pos = v.value, v.physicalDim(d)
		for _, bd := range v.bdims {
			if bd.Dim >= pos {
				bd.Dim++
			}
			bdims = append(bdims, bd)
		}
	default:
		return nil, fmt.Errorf("vmap: cannot unbatch %T", t)
	}

	unsqueezed, err := physical.Unsqueeze(pos)
	if err != nil {
		return nil, fmt.Errorf("vmap: %w", err)
	}
	target := unsqueezed.Shape().Clone()
	target[pos] = batchSize
	expanded, err := unsqueezed.Expand(target)
	if err != nil {
		return nil, fmt.Errorf("vmap: %w", err)
	}
	if len(bdims) == 0 {
		return expanded, nil
	}
	return MakeBatched(expanded, bdims)
}

// unwrapLevel moves level's batch dim to logical position outDim and drops
// it from the batch dims. Remaining batch dims move to the front.
func unwrapLevel(b *BatchedTensor, level, outDim int) (dispatch.Tensor, error) {
	logical := b.logicalDims()
	d, err := tensor.NormalizeDim(outDim, len(logical)+1)
	if err != nil {
		return nil, fmt.Errorf("vmap: out_dim: %w", err)
	}

	perm := make([]int, 0, b.value.Dim())
	var (
		levelDim  int
		remaining []BatchDim
	)
	for _, bd := range b.bdims {
		if bd.Level == level {
			levelDim = bd.Dim
			continue
		}
		remaining = append(remaining, BatchDim{Level: bd.Level, Dim: len(perm)})
		perm = append(perm, bd.Dim)
	}
	perm = append(perm, logical[:d]...)
	perm = append(perm, levelDim)
	perm = append(perm, logical[d:]...)

	permuted, err := b.value.Permute(perm...)
	if err != nil {
		return nil, fmt.Errorf("vmap: %w", err)
	}
	if len(remaining) == 0 {
		return permuted, nil
	}
	return MakeBatched(permuted, remaining)
}
