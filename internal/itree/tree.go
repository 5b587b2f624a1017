// Package itree implements an interval index: an AVL tree keyed by interval
// start (then end), where every node also records the largest end value in its
// subtree. The extra field lets overlap queries skip subtrees that cannot
// reach the query.
//
// A Tree is a multiset; identical intervals with different payloads are kept
// as separate entries. It does no locking. Callers sharing a Tree between
// goroutines must hold an exclusive lock around Insert and Delete and at least
// a shared lock around queries.
package itree

import (
	"iter"

	"github.com/inodb/vibe-itree/internal/interval"
)

// Entry is a stored interval and its payload. Entries returned by queries are
// copies; the payload is copied by value.
type Entry[T interval.Number, D any] struct {
	Interval interval.Interval[T]
	Payload  D
}

// Tree is a height-balanced interval tree. The zero value is an empty tree.
type Tree[T interval.Number, D any] struct {
	root *node[T, D]
	size int
}

// New returns an empty tree.
func New[T interval.Number, D any]() *Tree[T, D] {
	return &Tree[T, D]{}
}

// Insert adds an entry. Duplicate intervals are allowed.
func (t *Tree[T, D]) Insert(iv interval.Interval[T], payload D) {
	t.root = t.root.insert(Entry[T, D]{Interval: iv, Payload: payload})
	t.size++
}

// Delete removes one entry whose interval equals iv and whose payload
// satisfies match. When several entries qualify, the first one in in-order
// traversal is removed; among identical intervals that is the oldest.
// The second result is false if nothing matched.
func (t *Tree[T, D]) Delete(iv interval.Interval[T], match func(D) bool) (D, bool) {
	root, payload, ok := t.root.remove(iv, match)
	if !ok {
		return payload, false
	}
	t.root = root
	t.size--
	return payload, true
}

// findNode returns the node Delete would remove, or nil.
func (t *Tree[T, D]) findNode(iv interval.Interval[T], match func(D) bool) *node[T, D] {
	return t.root.lookup(iv, match)
}

// Len returns the number of stored entries.
func (t *Tree[T, D]) Len() int {
	return t.size
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[T, D]) Height() int {
	return t.root.getHeight()
}

// Span returns the smallest interval covering every entry.
// It returns false for an empty tree.
func (t *Tree[T, D]) Span() (interval.Interval[T], bool) {
	if t.root == nil {
		return interval.Interval[T]{}, false
	}
	n := t.root
	for n.left != nil {
		n = n.left
	}
	return interval.Interval[T]{Start: n.entry.Interval.Start, End: t.root.maxEnd}, true
}

// All iterates over every entry in (start, end) order.
func (t *Tree[T, D]) All() iter.Seq[Entry[T, D]] {
	return func(yield func(Entry[T, D]) bool) {
		t.root.walk(yield)
	}
}

// Clear drops every entry.
func (t *Tree[T, D]) Clear() {
	t.root = nil
	t.size = 0
}
