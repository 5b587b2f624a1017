package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-itree/internal/interval"
	"github.com/inodb/vibe-itree/internal/itree"
)

type recordingMetrics struct {
	mu      sync.Mutex
	finds   int
	hits    int
	batches []itree.BatchStats
}

func (m *recordingMetrics) ObserveFind(_ string, hits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	m.hits += hits
}

func (m *recordingMetrics) ObserveBatch(_ string, stats itree.BatchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, stats)
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	x := New()
	for _, r := range []*Record{
		{ID: "A", Label: "chr1", Start: 100, End: 300},
		{ID: "B", Label: "chr1", Start: 150, End: 250},
		{ID: "C", Label: "chr1", Start: 200, End: 400},
		{ID: "D", Label: "chr2", Start: 100, End: 200},
	} {
		require.NoError(t, x.Add(r))
	}
	return x
}

func hitIDs(hits []Hit) map[string]bool {
	ids := map[string]bool{}
	for _, h := range hits {
		ids[h.Record.ID] = true
	}
	return ids
}

func TestIndex_Empty(t *testing.T) {
	x := New()
	assert.Equal(t, 0, x.Len())
	assert.Empty(t, x.Labels())
	assert.Empty(t, x.Find("chr1", interval.MustNew[int64](0, 10)))
	assert.Nil(t, x.Get("A"))
}

func TestIndex_Find(t *testing.T) {
	x := newTestIndex(t)

	hits := x.Find("chr1", interval.MustNew[int64](160, 170))
	assert.Equal(t, map[string]bool{"A": true, "B": true}, hitIDs(hits))

	hits = x.Find("chr1", interval.MustNew[int64](300, 301))
	assert.Equal(t, map[string]bool{"C": true}, hitIDs(hits), "A ends at 300 exclusive")

	hits = x.Find("chr2", interval.MustNew[int64](150, 160))
	assert.Equal(t, map[string]bool{"D": true}, hitIDs(hits))

	assert.Empty(t, x.Find("chrX", interval.MustNew[int64](0, 1000)))
}

func TestIndex_AddInvalidRange(t *testing.T) {
	x := New()
	err := x.Add(&Record{ID: "bad", Label: "chr1", Start: 10, End: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, interval.ErrInvalidRange)
	assert.Equal(t, 0, x.Len())
}

func TestIndex_AddDuplicateID(t *testing.T) {
	x := newTestIndex(t)
	err := x.Add(&Record{ID: "A", Label: "chr3", Start: 1, End: 2})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 4, x.Len())
}

func TestIndex_RecordsWithoutIDAllowDuplicates(t *testing.T) {
	x := New()
	require.NoError(t, x.Add(&Record{Label: "chr1", Start: 1, End: 2}))
	require.NoError(t, x.Add(&Record{Label: "chr1", Start: 1, End: 2}))
	assert.Equal(t, 2, x.Len())
}

func TestIndex_Remove(t *testing.T) {
	x := newTestIndex(t)

	assert.True(t, x.Remove("chr1", interval.MustNew[int64](150, 250), "B"))
	assert.Nil(t, x.Get("B"))
	assert.Equal(t, 3, x.Len())
	assert.False(t, x.Remove("chr1", interval.MustNew[int64](150, 250), "B"), "already removed")
	assert.False(t, x.Remove("chr1", interval.MustNew[int64](100, 300), "C"), "wrong range for C")
	assert.False(t, x.Remove("chrX", interval.MustNew[int64](100, 300), "A"))

	assert.True(t, x.Remove("chr2", interval.MustNew[int64](100, 200), "D"))
	assert.Equal(t, []string{"chr1"}, x.Labels(), "empty labels are dropped")
}

func TestIndex_BatchFind(t *testing.T) {
	x := newTestIndex(t)
	m := &recordingMetrics{}
	x.SetMetrics(m)

	result := x.BatchFind("chr1", []int64{0, 150, 150, 350, 0, 150})
	require.Len(t, result, 2)
	assert.Equal(t, map[string]bool{"A": true}, hitIDs(result[interval.MustNew[int64](0, 150)]))
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true},
		hitIDs(result[interval.MustNew[int64](150, 350)]))

	require.Len(t, m.batches, 1)
	assert.Equal(t, itree.BatchStats{Pairs: 5, Skipped: 2, Searches: 2, CacheHits: 1}, m.batches[0])
}

func TestIndex_BatchFindUnknownLabel(t *testing.T) {
	x := newTestIndex(t)
	result := x.BatchFind("chrX", []int64{0, 10, 20})
	assert.Len(t, result, 2)
	for _, hits := range result {
		assert.Empty(t, hits)
	}
}

func TestIndex_FindReportsMetrics(t *testing.T) {
	x := newTestIndex(t)
	m := &recordingMetrics{}
	x.SetMetrics(m)

	x.Find("chr1", interval.MustNew[int64](160, 170))
	x.Find("chrX", interval.MustNew[int64](160, 170))
	assert.Equal(t, 2, m.finds)
	assert.Equal(t, 2, m.hits)
}

func TestIndex_RecordsAndStats(t *testing.T) {
	x := newTestIndex(t)

	var ids []string
	for _, r := range x.Records("chr1") {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)

	stats := x.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "chr1", stats[0].Label)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, 2, stats[0].Height)
	assert.True(t, stats[0].Balanced)
	assert.Equal(t, interval.MustNew[int64](100, 400), stats[0].Span)
	assert.Equal(t, "chr2", stats[1].Label)
}

func TestIndex_ConcurrentReadersAndWriter(t *testing.T) {
	x := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 500 {
			_ = x.Add(&Record{Label: "chr1", Start: int64(i), End: int64(i + 10)})
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				x.Find("chr1", interval.MustNew(int64(i), int64(i+5)))
				x.BatchFind("chr1", []int64{0, 50, 100})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, x.Len())
	for _, s := range x.Stats() {
		assert.True(t, s.Balanced)
	}
}
