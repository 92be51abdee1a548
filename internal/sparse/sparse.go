// Package sparse provides a sparse set of uint32 values with O(1)
// insertion, removal and membership testing.
//
// The compiler uses it to mark program counters: the decoder collects the
// state entry points of an opcode program, and the literal extractor
// tracks the states on its current walk. Both universes are dense and
// bounded by the program length, the case a sparse set is made for.
package sparse

// SparseSet is a set of uint32 values below a fixed capacity. A sparse
// array maps values to slots in a dense array, so membership tests touch
// at most two words and clearing is O(1).
type SparseSet struct {
	sparse []uint32 // value -> index into dense
	dense  []uint32 // the values, in insertion order
}

// NewSparseSet creates a set holding values in [0, capacity).
func NewSparseSet(capacity uint32) *SparseSet {
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set. Reports whether the value was absent.
// Values at or above the capacity are rejected.
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	if value >= uint32(len(s.sparse)) {
		return false
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *SparseSet) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Remove removes value from the set if present, swapping the last dense
// slot into its place.
func (s *SparseSet) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}
	idx := s.sparse[value]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear empties the set in O(1).
func (s *SparseSet) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of elements.
func (s *SparseSet) Len() int {
	return len(s.dense)
}

// IsEmpty reports whether the set has no elements.
func (s *SparseSet) IsEmpty() bool {
	return len(s.dense) == 0
}

// Values returns the elements in insertion order. The slice is shared and
// valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense
}
