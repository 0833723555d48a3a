// Package slotmap provides a generation-stamped slot arena.
//
// Keys embed both a slot index and the generation the slot carried when the
// value was inserted. Removing a value bumps the slot's generation, so a key
// minted before the removal can never resolve against a value later stored
// in the same slot. The zero Key never resolves.
//
// Map is not safe for concurrent use; callers provide their own locking.
package slotmap

// Key identifies one live entry in a Map. Keys are opaque, cheap to copy
// and unforgeable outside this package.
type Key struct {
	index      uint32
	generation uint32
}

// IsZero reports whether the key is the zero value, which never resolves.
func (k Key) IsZero() bool {
	return k.generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Map is a slot arena with O(1) insert, lookup and removal.
type Map[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// New creates a map with room for capacity entries before growing.
func New[T any](capacity int) *Map[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Map[T]{
		slots: make([]slot[T], 0, capacity),
	}
}

// Insert stores value and returns its key. Freed slots are reused; their
// bumped generation keeps old keys from matching the new occupant.
func (m *Map[T]) Insert(value T) Key {
	m.count++

	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		s := &m.slots[idx]
		s.value = value
		s.live = true
		return Key{index: idx, generation: s.generation}
	}

	m.slots = append(m.slots, slot[T]{value: value, generation: 1, live: true})
	return Key{index: uint32(len(m.slots) - 1), generation: 1}
}

// Get returns the value for k, or false if k is stale or was never issued.
func (m *Map[T]) Get(k Key) (T, bool) {
	var zero T
	if int(k.index) >= len(m.slots) {
		return zero, false
	}
	s := &m.slots[k.index]
	if !s.live || s.generation != k.generation {
		return zero, false
	}
	return s.value, true
}

// Remove deletes the entry for k and returns its value. The slot's
// generation is bumped immediately, invalidating every copy of k.
func (m *Map[T]) Remove(k Key) (T, bool) {
	var zero T
	if int(k.index) >= len(m.slots) {
		return zero, false
	}
	s := &m.slots[k.index]
	if !s.live || s.generation != k.generation {
		return zero, false
	}

	value := s.value
	s.value = zero
	s.live = false
	s.generation++
	if s.generation == 0 {
		// Generation 0 is reserved for the zero Key.
		s.generation = 1
	}
	m.free = append(m.free, k.index)
	m.count--
	return value, true
}

// Len returns the number of live entries.
func (m *Map[T]) Len() int {
	return m.count
}

// Each calls fn for every live entry until fn returns false.
func (m *Map[T]) Each(fn func(Key, T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.live {
			continue
		}
		if !fn(Key{index: uint32(i), generation: s.generation}, s.value) {
			return
		}
	}
}
