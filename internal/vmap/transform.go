package vmap

import (
	"fmt"

	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/tensor"
)

// PhysicalView is a tensor whose leading NumBatchDims dimensions are the
// batch dimensions of its levels, in ascending level order.
type PhysicalView struct {
	tensor *tensor.RawTensor
	levels LevelSet
}

// Tensor returns the physical tensor.
func (v PhysicalView) Tensor() *tensor.RawTensor {
	return v.tensor
}

// Levels returns the levels of the leading batch dims.
func (v PhysicalView) Levels() LevelSet {
	return v.levels
}

// NumBatchDims returns the number of leading batch dims.
func (v PhysicalView) NumBatchDims() int {
	return v.levels.Len()
}

// BatchSizes returns the sizes of the leading batch dims.
func (v PhysicalView) BatchSizes() tensor.Shape {
	return v.tensor.Shape()[:v.NumBatchDims()].Clone()
}

// PhysicalToLogicalMap returns the map that rewraps results computed on
// this view's batch grid.
func (v PhysicalView) PhysicalToLogicalMap() PhysicalToLogicalMap {
	return PhysicalToLogicalMap{levels: v.levels}
}

// PhysicalToLogicalMap turns a physical tensor whose leading dims are a
// batch grid back into a BatchedTensor.
type PhysicalToLogicalMap struct {
	levels LevelSet
}

// Apply wraps physical so that its dim i is the batch dim of the i-th level.
// With no levels, physical is returned unchanged.
func (m PhysicalToLogicalMap) Apply(physical *tensor.RawTensor) (dispatch.Tensor, error) {
	if m.levels.IsEmpty() {
		return physical, nil
	}
	levels := m.levels.Levels()
	if physical.Dim() < len(levels) {
		return nil, fmt.Errorf("vmap: result %v has fewer dims than batch levels %s", physical.Shape(), m.levels)
	}
	bdims := make([]BatchDim, len(levels))
	for i, l := range levels {
		bdims[i] = BatchDim{Level: l, Dim: i}
	}
	return MakeBatched(physical, bdims)
}

// LogicalToPhysical aligns tensors on the union of their levels. Every view
// gets one leading dim per level, in level order. A tensor missing a level
// gets a broadcast (stride 0) dimension of that level's size. The returned
// views alias the inputs' storage.
func LogicalToPhysical(tensors []*BatchedTensor) ([]PhysicalView, error) {
	var collective LevelSet
	for _, b := range tensors {
		collective = collective.Union(b.Levels())
	}
	levels := collective.Levels()

	sizes := make(map[int]int, len(levels))
	for _, b := range tensors {
		for _, bd := range b.bdims {
			size := b.value.Shape()[bd.Dim]
			if prev, ok := sizes[bd.Level]; ok && prev != size {
				return nil, fmt.Errorf("%w: level %d has size %d and %d", ErrBatchSizeMismatch, bd.Level, prev, size)
			}
			sizes[bd.Level] = size
		}
	}

	views := make([]PhysicalView, len(tensors))
	for i, b := range tensors {
		physical, err := alignToLevels(b, levels, sizes)
		if err != nil {
			return nil, err
		}
		views[i] = PhysicalView{tensor: physical, levels: collective}
	}
	return views, nil
}

func alignToLevels(b *BatchedTensor, levels []int, sizes map[int]int) (*tensor.RawTensor, error) {
	perm := make([]int, 0, b.value.Dim())
	for _, bd := range b.bdims {
		perm = append(perm, bd.Dim)
	}
	perm = append(perm, b.logicalDims()...)
	physical, err := b.value.Permute(perm...)
	if err != nil {
		return nil, fmt.Errorf("vmap: %w", err)
	}

	own := b.Levels()
	for i, l := range levels {
		if own.Has(l) {
			continue
		}
		if physical, err = physical.Unsqueeze(i); err != nil {
			return nil, fmt.Errorf("vmap: %w", err)
		}
	}

	target := physical.Shape().Clone()
	for i, l := range levels {
		target[i] = sizes[l]
	}
	expanded, err := physical.Expand(target)
	if err != nil {
		return nil, fmt.Errorf("vmap: %w", err)
	}
	return expanded, nil
}
