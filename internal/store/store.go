// Package store implements the replica's key/value state machine: a
// mapping produced solely by applying committed log entries in ascending
// index order.
package store

import (
	iradix "github.com/hashicorp/go-immutable-radix"
)

// Store wraps an immutable radix tree. Set returns a new Store sharing
// structure with the old one (copy-on-write), so two replicas that applied
// the same committed prefix in the same order hold trees that are
// structurally equal, not merely behaviorally equivalent.
type Store struct {
	tree *iradix.Tree
}

// New returns an empty Store.
func New() *Store {
	return &Store{tree: iradix.New()}
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.tree.Get([]byte(key))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set returns a new Store with key bound to value.
func (s *Store) Set(key, value string) *Store {
	tree, _, _ := s.tree.Insert([]byte(key), value)
	return &Store{tree: tree}
}

// Len reports the number of keys currently held.
func (s *Store) Len() int {
	return s.tree.Len()
}
