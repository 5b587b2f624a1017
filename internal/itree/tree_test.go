package itree

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-itree/internal/interval"
)

func iv(start, end int) interval.Interval[int] {
	return interval.MustNew(start, end)
}

func is(want string) func(string) bool {
	return func(got string) bool { return got == want }
}

func requireInvariants[T interval.Number, D any](t *testing.T, tree *Tree[T, D]) {
	t.Helper()
	require.NoError(t, tree.checkInvariants())
	require.True(t, tree.IsBalanced())
}

func TestNew_Empty(t *testing.T) {
	tree := New[int, string]()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())
	assert.True(t, tree.IsBalanced())
	assert.Empty(t, tree.Find(iv(0, 100)))

	_, ok := tree.Span()
	assert.False(t, ok)
}

func TestZeroValueTree(t *testing.T) {
	var tree Tree[int, string]
	tree.Insert(iv(1, 2), "a")
	assert.Equal(t, 1, tree.Len())
	requireInvariants(t, &tree)
}

func TestInsert_AscendingStaysBalanced(t *testing.T) {
	tree := New[int, int]()
	for i := range 1000 {
		tree.Insert(iv(i, i+1), i)
		requireInvariants(t, tree)
	}
	assert.Equal(t, 1000, tree.Len())
	// An AVL tree of n nodes is at most ~1.44 log2(n) high.
	assert.LessOrEqual(t, tree.Height(), 15)
}

func TestInsert_DescendingStaysBalanced(t *testing.T) {
	tree := New[int, int]()
	for i := 1000; i > 0; i-- {
		tree.Insert(iv(i, i+1), i)
	}
	requireInvariants(t, tree)
	assert.LessOrEqual(t, tree.Height(), 15)
}

// Each case forces exactly one of the four rotation shapes at the root and
// checks that maxEnd followed the nodes that moved. The long interval is
// placed so that a stale maxEnd would hide it from Find.
func TestRotations_RefreshMaxEnd(t *testing.T) {
	tests := []struct {
		name   string
		insert []interval.Interval[int]
		root   interval.Interval[int]
	}{
		{"left-left", []interval.Interval[int]{iv(30, 31), iv(20, 21), iv(10, 100)}, iv(20, 21)},
		{"left-right", []interval.Interval[int]{iv(30, 31), iv(10, 11), iv(20, 100)}, iv(20, 100)},
		{"right-right", []interval.Interval[int]{iv(10, 100), iv(20, 21), iv(30, 31)}, iv(20, 21)},
		{"right-left", []interval.Interval[int]{iv(10, 11), iv(30, 100), iv(20, 21)}, iv(20, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := New[int, string]()
			for _, x := range tt.insert {
				tree.Insert(x, x.String())
			}
			requireInvariants(t, tree)

			assert.Equal(t, 2, tree.Height())
			assert.Equal(t, tt.root, tree.root.entry.Interval)
			assert.Equal(t, 100, tree.root.maxEnd)

			hits := tree.Find(iv(90, 95))
			require.Len(t, hits, 1)
			assert.Equal(t, 100, hits[0].Interval.End)
		})
	}
}

func TestDelete_SingleEntry(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 5), "a")

	got, ok := tree.Delete(iv(1, 5), is("a"))
	require.True(t, ok)
	assert.Equal(t, "a", got)
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())

	_, ok = tree.Delete(iv(1, 5), is("a"))
	assert.False(t, ok, "second delete reports not found")
}

func TestDelete_NotFound(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 5), "a")
	tree.Insert(iv(3, 8), "b")

	_, ok := tree.Delete(iv(1, 5), is("b"))
	assert.False(t, ok, "interval matches but payload does not")
	_, ok = tree.Delete(iv(1, 6), is("a"))
	assert.False(t, ok, "payload matches but interval does not")

	assert.Equal(t, 2, tree.Len())
	requireInvariants(t, tree)
}

func TestDelete_TwoChildrenUsesSuccessor(t *testing.T) {
	tree := New[int, string]()
	for _, s := range []int{50, 30, 70, 20, 40, 60, 80, 65} {
		tree.Insert(iv(s, s+5), "")
	}
	require.Equal(t, iv(50, 55), tree.root.entry.Interval)

	_, ok := tree.Delete(iv(50, 55), func(string) bool { return true })
	require.True(t, ok)
	requireInvariants(t, tree)
	assert.Equal(t, iv(60, 65), tree.root.entry.Interval, "in-order successor takes the root")
}

func TestDelete_RebalancesAfterRemoval(t *testing.T) {
	tree := New[int, int]()
	for i := range 64 {
		tree.Insert(iv(i, i+3), i)
	}
	// Removing the whole left half forces rotations all the way up.
	for i := range 32 {
		_, ok := tree.Delete(iv(i, i+3), func(p int) bool { return p == i })
		require.True(t, ok)
		requireInvariants(t, tree)
	}
	assert.Equal(t, 32, tree.Len())
}

func TestDuplicates_MultisetSemantics(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 5), "a")
	tree.Insert(iv(1, 5), "b")
	tree.Insert(iv(1, 5), "a")
	requireInvariants(t, tree)

	assert.Equal(t, 3, tree.Len())
	assert.Len(t, tree.Find(iv(2, 3)), 3)

	_, ok := tree.Delete(iv(1, 5), is("b"))
	require.True(t, ok)
	hits := tree.Find(iv(2, 3))
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Payload)
	assert.Equal(t, "a", hits[1].Payload)
}

func TestDuplicates_DeleteTakesOldestMatch(t *testing.T) {
	tree := New[int, int]()
	// Enough duplicates that rotations spread them on both sides of the root.
	for i := range 20 {
		tree.Insert(iv(7, 9), i)
	}
	requireInvariants(t, tree)

	var order []int
	for e := range tree.All() {
		order = append(order, e.Payload)
	}
	assert.True(t, slices.IsSorted(order), "duplicates keep insertion order: %v", order)

	even := func(p int) bool { return p%2 == 0 }
	for want := 0; want < 20; want += 2 {
		n := tree.findNode(iv(7, 9), even)
		require.NotNil(t, n)
		assert.Equal(t, want, n.entry.Payload)

		got, ok := tree.Delete(iv(7, 9), even)
		require.True(t, ok)
		assert.Equal(t, want, got)
		requireInvariants(t, tree)
	}
	_, ok := tree.Delete(iv(7, 9), even)
	assert.False(t, ok)
	assert.Equal(t, 10, tree.Len())
}

func TestFindNode(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 5), "a")
	tree.Insert(iv(3, 8), "b")

	n := tree.findNode(iv(3, 8), is("b"))
	require.NotNil(t, n)
	assert.Equal(t, "b", n.entry.Payload)
	assert.Nil(t, tree.findNode(iv(3, 8), is("a")))
	assert.Nil(t, tree.findNode(iv(0, 1), is("a")))
}

func TestRoundTrip_InsertThenDeleteAll(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tree := New[int, int]()

	type item struct {
		iv interval.Interval[int]
		id int
	}
	items := make([]item, 500)
	for i := range items {
		start := rng.IntN(1000)
		items[i] = item{iv: iv(start, start+1+rng.IntN(50)), id: i}
		tree.Insert(items[i].iv, i)
	}
	requireInvariants(t, tree)

	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	for _, it := range items {
		got, ok := tree.Delete(it.iv, func(p int) bool { return p == it.id })
		require.True(t, ok)
		require.Equal(t, it.id, got)
		requireInvariants(t, tree)
	}

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())
	assert.Nil(t, tree.root)
}

func TestRandomOperations_KeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	tree := New[int, int]()
	var live []Entry[int, int]

	for op := range 3000 {
		if len(live) > 0 && rng.IntN(3) == 0 {
			k := rng.IntN(len(live))
			e := live[k]
			_, ok := tree.Delete(e.Interval, func(p int) bool { return p == e.Payload })
			require.True(t, ok)
			live = slices.Delete(live, k, k+1)
		} else {
			start := rng.IntN(200)
			e := Entry[int, int]{Interval: iv(start, start+1+rng.IntN(20)), Payload: op}
			tree.Insert(e.Interval, e.Payload)
			live = append(live, e)
		}
		require.NoError(t, tree.checkInvariants(), "after op %d", op)
	}
	assert.Equal(t, len(live), tree.Len())
}

func TestAll_InOrder(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(5, 6), "c")
	tree.Insert(iv(1, 9), "b")
	tree.Insert(iv(1, 2), "a")

	var got []string
	for e := range tree.All() {
		got = append(got, e.Payload)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// early break
	count := 0
	for range tree.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestSpan(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(5, 6), "")
	tree.Insert(iv(-3, 2), "")
	tree.Insert(iv(4, 40), "")
	tree.Insert(iv(10, 12), "")

	span, ok := tree.Span()
	require.True(t, ok)
	assert.Equal(t, iv(-3, 40), span)
}

func TestClear(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 2), "a")
	tree.Insert(iv(2, 3), "b")
	tree.Clear()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Height())
	assert.Empty(t, tree.Find(iv(0, 10)))
}

func TestFloatIntervals(t *testing.T) {
	tree := New[float64, string]()
	tree.Insert(interval.MustNew(0.5, 1.5), "a")
	tree.Insert(interval.MustNew(1.5, 2.5), "b")
	requireInvariants(t, tree)

	hits := tree.Find(interval.MustNew(1.4, 1.6))
	assert.Len(t, hits, 2)
	hits = tree.Find(interval.MustNew(1.5, 1.6))
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Payload)
}

func TestCheckInvariants_DetectsStaleMaxEnd(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(10, 11), "")
	tree.Insert(iv(5, 50), "")
	tree.Insert(iv(20, 21), "")
	require.NoError(t, tree.checkInvariants())

	tree.root.maxEnd = 21
	assert.ErrorContains(t, tree.checkInvariants(), "maxEnd")
	assert.True(t, tree.IsBalanced(), "a stale maxEnd does not show up as imbalance")
}

func TestCheckInvariants_DetectsImbalance(t *testing.T) {
	tree := New[int, string]()
	tree.Insert(iv(1, 2), "")
	tree.Insert(iv(2, 3), "")
	tree.Insert(iv(3, 4), "")

	// Hand-build a chain below the root's right child.
	tree.root.right.right = newNode(Entry[int, string]{Interval: iv(4, 5)})
	tree.root.right.update()
	tree.root.update()
	tree.size++
	require.NoError(t, tree.checkInvariants())

	tree.root.right.right.right = newNode(Entry[int, string]{Interval: iv(5, 6)})
	tree.root.right.right.update()
	tree.root.right.update()
	tree.root.update()
	tree.size++
	assert.ErrorContains(t, tree.checkInvariants(), "balance factor")
	assert.False(t, tree.IsBalanced())
}
