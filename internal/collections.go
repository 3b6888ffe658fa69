package internal

import (
	"cmp"
	"maps"
	"slices"
)

// Set is a generic data structure that represents a collection of unique items.
// It uses a map internally for O(1) operations.
type Set[T cmp.Ordered] struct {
	items map[T]struct{}
}

// NewSet creates and returns a new Set holding the given items.
func NewSet[T cmp.Ordered](items ...T) *Set[T] {
	s := &Set[T]{
		items: make(map[T]struct{}, len(items)),
	}
	s.AddAll(items...)
	return s
}

// Add inserts an item into the set and reports whether it was not already present.
func (s *Set[T]) Add(item T) bool {
	if _, exists := s.items[item]; exists {
		return false
	}
	s.items[item] = struct{}{}
	return true
}

// AddAll inserts every item into the set.
func (s *Set[T]) AddAll(items ...T) {
	for _, item := range items {
		s.items[item] = struct{}{}
	}
}

// Remove deletes an item from the set. If the item doesn't exist, it has no effect.
func (s *Set[T]) Remove(item T) {
	delete(s.items, item)
}

// Contains checks if an item exists in the set.
func (s *Set[T]) Contains(item T) bool {
	_, exists := s.items[item]
	return exists
}

// Size returns the number of items in the set.
func (s *Set[T]) Size() int {
	return len(s.items)
}

// Clone returns an independent copy of the set.
func (s *Set[T]) Clone() *Set[T] {
	return &Set[T]{items: maps.Clone(s.items)}
}

// Sorted returns the items in ascending order.
func (s *Set[T]) Sorted() []T {
	return slices.Sorted(maps.Keys(s.items))
}
