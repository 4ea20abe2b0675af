package dispatch

import "strings"

// Key identifies a layer of the dispatcher that can intercept a call before
// it reaches the backend kernel.
type Key uint8

// Dispatch keys, lowest priority first.
const (
	KeyBackend Key = iota
	KeyBatched
	numKeys
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyBackend:
		return "Backend"
	case KeyBatched:
		return "Batched"
	default:
		return "Unknown"
	}
}

// KeySet is a bitset of dispatch keys.
type KeySet uint32

// NewKeySet builds a set from keys.
func NewKeySet(keys ...Key) KeySet {
	var s KeySet
	for _, k := range keys {
		s = s.Add(k)
	}
	return s
}

// Add returns s with k added.
func (s KeySet) Add(k Key) KeySet {
	return s | 1<<k
}

// Remove returns s without k.
func (s KeySet) Remove(k Key) KeySet {
	return s &^ (1 << k)
}

// Has reports whether k is in s.
func (s KeySet) Has(k Key) bool {
	return s&(1<<k) != 0
}

// Highest returns the highest-priority key in s. The empty set reports KeyBackend.
func (s KeySet) Highest() Key {
	for k := numKeys - 1; k > KeyBackend; k-- {
		if s.Has(k) {
			return k
		}
	}
	return KeyBackend
}

// String lists the keys in s.
func (s KeySet) String() string {
	var names []string
	for k := KeyBackend; k < numKeys; k++ {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}
