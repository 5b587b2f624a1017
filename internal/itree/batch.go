package itree

import "github.com/inodb/vibe-itree/internal/interval"

// BatchStats describes one BatchFind call.
type BatchStats struct {
	Pairs     int // adjacent breakpoint pairs examined
	Skipped   int // pairs that did not form a valid interval
	Searches  int // overlap searches actually run
	CacheHits int // pairs answered from an earlier identical pair
}

// BatchFind splits the breakpoints into adjacent intervals
// [b[0], b[1]), [b[1], b[2]), ... and returns the overlaps of each.
//
// Pairs that do not form a valid interval (b[i] >= b[i+1]) are skipped; one
// bad pair never aborts the batch. Each distinct interval is searched once,
// repeats reuse the first result. Fewer than two breakpoints give an empty map.
func (t *Tree[T, D]) BatchFind(breakpoints []T) map[interval.Interval[T]][]Entry[T, D] {
	result, _ := t.BatchFindStats(breakpoints)
	return result
}

// BatchFindStats is BatchFind that also reports what the batch did.
func (t *Tree[T, D]) BatchFindStats(breakpoints []T) (map[interval.Interval[T]][]Entry[T, D], BatchStats) {
	return batchFind(breakpoints, t.Find)
}

func batchFind[T interval.Number, D any](
	breakpoints []T,
	search func(interval.Interval[T]) []Entry[T, D],
) (map[interval.Interval[T]][]Entry[T, D], BatchStats) {
	var stats BatchStats
	result := make(map[interval.Interval[T]][]Entry[T, D])

	for i := 0; i+1 < len(breakpoints); i++ {
		stats.Pairs++

		iv, err := interval.New(breakpoints[i], breakpoints[i+1])
		if err != nil {
			stats.Skipped++
			continue
		}
		if _, ok := result[iv]; ok {
			stats.CacheHits++
			continue
		}

		result[iv] = search(iv)
		stats.Searches++
	}

	return result, stats
}
