package itree

import "github.com/inodb/vibe-itree/internal/interval"

type node[T interval.Number, D any] struct {
	entry Entry[T, D]

	// maxEnd is the largest End in the subtree rooted here.
	maxEnd T
	// height counts nodes (not edges); an absent child has height 0.
	height int
	left   *node[T, D]
	right  *node[T, D]
}

func newNode[T interval.Number, D any](e Entry[T, D]) *node[T, D] {
	return &node[T, D]{entry: e, maxEnd: e.Interval.End, height: 1}
}

func (n *node[T, D]) getHeight() int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node[T, D]) balanceFactor() int {
	return n.left.getHeight() - n.right.getHeight()
}

// update recomputes height and maxEnd from the node's own interval and its
// children. Children must already be up to date.
func (n *node[T, D]) update() {
	n.height = 1 + max(n.left.getHeight(), n.right.getHeight())
	n.maxEnd = n.entry.Interval.End
	if n.left != nil && n.left.maxEnd > n.maxEnd {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd > n.maxEnd {
		n.maxEnd = n.right.maxEnd
	}
}

// rotateRight lifts the left child into n's place. n ends up below its old
// child, so n is refreshed first.
func (n *node[T, D]) rotateRight() *node[T, D] {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func (n *node[T, D]) rotateLeft() *node[T, D] {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}

// rebalance refreshes n and applies at most one single or double rotation.
// It returns the new root of the subtree.
func (n *node[T, D]) rebalance() *node[T, D] {
	n.update()

	switch bf := n.balanceFactor(); {
	case bf > 1:
		// left-right: straighten the child first
		if n.left.balanceFactor() < 0 {
			n.left = n.left.rotateLeft()
		}
		return n.rotateRight()
	case bf < -1:
		// right-left
		if n.right.balanceFactor() > 0 {
			n.right = n.right.rotateRight()
		}
		return n.rotateLeft()
	}
	return n
}

// insert places e below n. Equal keys go right so duplicates keep their
// insertion order in an in-order walk.
func (n *node[T, D]) insert(e Entry[T, D]) *node[T, D] {
	if n == nil {
		return newNode(e)
	}
	if e.Interval.Compare(n.entry.Interval) < 0 {
		n.left = n.left.insert(e)
	} else {
		n.right = n.right.insert(e)
	}
	return n.rebalance()
}

// remove deletes the first node, in in-order position, whose interval equals
// iv and whose payload satisfies match. It returns the new subtree root.
func (n *node[T, D]) remove(iv interval.Interval[T], match func(D) bool) (*node[T, D], D, bool) {
	var zero D
	if n == nil {
		return nil, zero, false
	}

	c := iv.Compare(n.entry.Interval)
	if c <= 0 {
		// Rotations can leave duplicates of n's key in either subtree.
		if left, payload, ok := n.left.remove(iv, match); ok {
			n.left = left
			return n.rebalance(), payload, true
		}
		if c < 0 {
			return n, zero, false
		}
		if match(n.entry.Payload) {
			return n.unlink(), n.entry.Payload, true
		}
	}

	if right, payload, ok := n.right.remove(iv, match); ok {
		n.right = right
		return n.rebalance(), payload, true
	}
	return n, zero, false
}

// unlink detaches n and returns the subtree that takes its place. A node with
// two children is replaced by its in-order successor.
func (n *node[T, D]) unlink() *node[T, D] {
	if n.left == nil {
		return n.right
	}
	if n.right == nil {
		return n.left
	}

	right, succ := n.right.removeMin()
	succ.left = n.left
	succ.right = right
	n.left, n.right = nil, nil
	return succ.rebalance()
}

// removeMin detaches the leftmost node, rebalancing every node on the path.
func (n *node[T, D]) removeMin() (rest, minNode *node[T, D]) {
	if n.left == nil {
		rest = n.right
		n.right = nil
		return rest, n
	}
	n.left, minNode = n.left.removeMin()
	return n.rebalance(), minNode
}

// lookup returns the first in-order node matching iv and match.
func (n *node[T, D]) lookup(iv interval.Interval[T], match func(D) bool) *node[T, D] {
	if n == nil {
		return nil
	}

	c := iv.Compare(n.entry.Interval)
	if c <= 0 {
		if found := n.left.lookup(iv, match); found != nil {
			return found
		}
		if c < 0 {
			return nil
		}
		if match(n.entry.Payload) {
			return n
		}
	}
	return n.right.lookup(iv, match)
}

// walk visits the subtree in order, stopping when fn returns false.
func (n *node[T, D]) walk(fn func(Entry[T, D]) bool) bool {
	if n == nil {
		return true
	}
	return n.left.walk(fn) && fn(n.entry) && n.right.walk(fn)
}
