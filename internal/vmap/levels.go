package vmap

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxLevels is the number of distinct nesting levels a LevelSet can hold.
const MaxLevels = 64

// LevelSet is a set of vmap nesting levels.
type LevelSet uint64

// NewLevelSet builds a set from levels.
func NewLevelSet(levels ...int) LevelSet {
	var s LevelSet
	for _, l := range levels {
		s = s.Add(l)
	}
	return s
}

// Add returns s with level added.
func (s LevelSet) Add(level int) LevelSet {
	if level < 0 || level >= MaxLevels {
		panic(fmt.Sprintf("vmap: level %d out of range [0, %d)", level, MaxLevels))
	}
	return s | 1<<uint(level)
}

// Has reports whether level is in s.
func (s LevelSet) Has(level int) bool {
	return level >= 0 && level < MaxLevels && s&(1<<uint(level)) != 0
}

// Union returns the levels in s or other.
func (s LevelSet) Union(other LevelSet) LevelSet {
	return s | other
}

// Difference returns the levels in s but not in other.
func (s LevelSet) Difference(other LevelSet) LevelSet {
	return s &^ other
}

// IsSupersetOf reports whether every level of other is in s.
func (s LevelSet) IsSupersetOf(other LevelSet) bool {
	return other&^s == 0
}

// Len returns the number of levels in s.
func (s LevelSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty reports whether s has no levels.
func (s LevelSet) IsEmpty() bool {
	return s == 0
}

// Highest returns the largest level in s. ok is false for the empty set.
func (s LevelSet) Highest() (level int, ok bool) {
	if s == 0 {
		return 0, false
	}
	return 63 - bits.LeadingZeros64(uint64(s)), true
}

// Levels returns the levels in ascending (outer to inner) order.
func (s LevelSet) Levels() []int {
	out := make([]int, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		out = append(out, bits.TrailingZeros64(rest))
	}
	return out
}

// String formats the set as {1, 3}.
func (s LevelSet) String() string {
	parts := make([]string, 0, s.Len())
	for _, l := range s.Levels() {
		parts = append(parts, fmt.Sprint(l))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
