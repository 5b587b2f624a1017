package itree

import "github.com/inodb/vibe-itree/internal/interval"

// Find returns every entry whose interval overlaps q. Results currently come
// back ordered by (start, end) but callers should not rely on it.
func (t *Tree[T, D]) Find(q interval.Interval[T]) []Entry[T, D] {
	var result []Entry[T, D]
	t.FindFunc(q, func(e Entry[T, D]) bool {
		result = append(result, e)
		return true
	})
	return result
}

// FindFunc calls fn for each entry overlapping q until fn returns false.
func (t *Tree[T, D]) FindFunc(q interval.Interval[T], fn func(Entry[T, D]) bool) {
	if t.root == nil || t.root.maxEnd <= q.Start {
		return
	}
	t.root.overlaps(q, fn)
}

func (n *node[T, D]) overlaps(q interval.Interval[T], fn func(Entry[T, D]) bool) bool {
	// Nothing on the left reaches past q.Start unless its maxEnd does.
	if n.left != nil && n.left.maxEnd > q.Start {
		if !n.left.overlaps(q, fn) {
			return false
		}
	}

	if n.entry.Interval.Overlaps(q) {
		if !fn(n.entry) {
			return false
		}
	}

	// Everything on the right starts at or after n, so once n starts at or
	// beyond q.End the right subtree cannot overlap.
	if n.right != nil && n.entry.Interval.Start < q.End {
		return n.right.overlaps(q, fn)
	}
	return true
}
