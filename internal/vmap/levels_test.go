package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelSet(t *testing.T) {
	s := NewLevelSet(1, 3)

	assert.True(t, s.Has(1))
	assert.False(t, s.Has(2))
	assert.True(t, s.Has(3))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{1, 3}, s.Levels())
	assert.Equal(t, "{1, 3}", s.String())

	top, ok := s.Highest()
	assert.True(t, ok)
	assert.Equal(t, 3, top)

	_, ok = LevelSet(0).Highest()
	assert.False(t, ok)
	assert.True(t, LevelSet(0).IsEmpty())
}

func TestLevelSet_Algebra(t *testing.T) {
	a := NewLevelSet(1, 2)
	b := NewLevelSet(2, 5)

	assert.Equal(t, NewLevelSet(1, 2, 5), a.Union(b))
	assert.Equal(t, NewLevelSet(1), a.Difference(b))
	assert.True(t, a.IsSupersetOf(NewLevelSet(2)))
	assert.True(t, a.IsSupersetOf(0))
	assert.False(t, a.IsSupersetOf(b))

	assert.Panics(t, func() { NewLevelSet(MaxLevels) })
	assert.False(t, a.Has(-1))
}
