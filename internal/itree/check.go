package itree

import (
	"fmt"

	"github.com/inodb/vibe-itree/internal/interval"
)

// IsBalanced reports whether every node's balance factor is in {-1, 0, 1}.
// Heights are recomputed rather than read from the nodes.
func (t *Tree[T, D]) IsBalanced() bool {
	_, ok := balancedHeight(t.root)
	return ok
}

func balancedHeight[T interval.Number, D any](n *node[T, D]) (int, bool) {
	if n == nil {
		return 0, true
	}
	lh, ok := balancedHeight(n.left)
	if !ok {
		return 0, false
	}
	rh, ok := balancedHeight(n.right)
	if !ok {
		return 0, false
	}
	if bf := lh - rh; bf < -1 || bf > 1 {
		return 0, false
	}
	return 1 + max(lh, rh), true
}

// checkInvariants recomputes every derived field from scratch and returns the
// first inconsistency it finds: stale height, stale maxEnd, broken ordering,
// an unbalanced node or a wrong size.
func (t *Tree[T, D]) checkInvariants() error {
	count := 0
	var prev *interval.Interval[T]
	var walkErr error

	var check func(n *node[T, D]) (height int, maxEnd T)
	check = func(n *node[T, D]) (int, T) {
		lh, lmax := 0, n.entry.Interval.End
		if n.left != nil {
			lh, lmax = check(n.left)
		}

		count++
		if prev != nil && prev.Compare(n.entry.Interval) > 0 && walkErr == nil {
			walkErr = fmt.Errorf("order: %v before %v", *prev, n.entry.Interval)
		}
		iv := n.entry.Interval
		prev = &iv

		rh, rmax := 0, n.entry.Interval.End
		if n.right != nil {
			rh, rmax = check(n.right)
		}

		height := 1 + max(lh, rh)
		maxEnd := max(n.entry.Interval.End, lmax, rmax)

		if walkErr == nil {
			switch {
			case n.height != height:
				walkErr = fmt.Errorf("node %v: height %d, want %d", iv, n.height, height)
			case n.maxEnd != maxEnd:
				walkErr = fmt.Errorf("node %v: maxEnd %v, want %v", iv, n.maxEnd, maxEnd)
			case lh-rh < -1 || lh-rh > 1:
				walkErr = fmt.Errorf("node %v: balance factor %d", iv, lh-rh)
			}
		}
		return height, maxEnd
	}

	if t.root != nil {
		check(t.root)
	}
	if walkErr != nil {
		return walkErr
	}
	if count != t.size {
		return fmt.Errorf("size %d, counted %d nodes", t.size, count)
	}
	return nil
}
