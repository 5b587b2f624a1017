package index

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/interval"
	"github.com/inodb/vibe-itree/internal/itree"
)

// Metrics receives counts from queries. A nil Metrics is allowed.
type Metrics interface {
	ObserveFind(label string, hits int)
	ObserveBatch(label string, stats itree.BatchStats)
}

// Index holds records grouped by label, one interval tree per label.
// It is safe for concurrent use: writers take an exclusive lock, queries a
// shared one.
type Index struct {
	mu      sync.RWMutex
	trees   map[string]*itree.Tree[int64, *Record]
	byID    map[string]*Record
	metrics Metrics
	logger  *zap.Logger
}

// New creates an empty index.
func New() *Index {
	return &Index{
		trees:  make(map[string]*itree.Tree[int64, *Record]),
		byID:   make(map[string]*Record),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (x *Index) SetLogger(l *zap.Logger) {
	x.logger = l
}

// SetMetrics sets where query counts are reported.
func (x *Index) SetMetrics(m Metrics) {
	x.metrics = m
}

// Add inserts a record. It fails if the range is invalid or the ID is
// already present.
func (x *Index) Add(r *Record) error {
	iv, err := r.Interval()
	if err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if r.ID != "" {
		if _, ok := x.byID[r.ID]; ok {
			return fmt.Errorf("record %s: %w", r.ID, ErrDuplicateID)
		}
		x.byID[r.ID] = r
	}

	tree, ok := x.trees[r.Label]
	if !ok {
		tree = itree.New[int64, *Record]()
		x.trees[r.Label] = tree
	}
	tree.Insert(iv, r)
	return nil
}

// Remove deletes the record with the given label, range and ID.
// It returns false if no such record exists.
func (x *Index) Remove(label string, iv interval.Interval[int64], id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	tree, ok := x.trees[label]
	if !ok {
		return false
	}
	r, ok := tree.Delete(iv, func(r *Record) bool { return r.ID == id })
	if !ok {
		return false
	}
	delete(x.byID, r.ID)
	if tree.Len() == 0 {
		delete(x.trees, label)
	}
	return true
}

// Find returns every record on label overlapping q.
func (x *Index) Find(label string, q interval.Interval[int64]) []Hit {
	x.mu.RLock()
	defer x.mu.RUnlock()

	tree, ok := x.trees[label]
	if !ok {
		x.observeFind(label, 0)
		return nil
	}

	var hits []Hit
	tree.FindFunc(q, func(e itree.Entry[int64, *Record]) bool {
		hits = append(hits, Hit{Interval: e.Interval, Record: e.Payload})
		return true
	})
	x.observeFind(label, len(hits))
	return hits
}

// BatchFind runs a batch query on label. Breakpoint pairs that do not form a
// valid range are skipped and logged at debug level.
func (x *Index) BatchFind(label string, breakpoints []int64) map[interval.Interval[int64]][]Hit {
	x.mu.RLock()
	tree, ok := x.trees[label]
	if !ok {
		tree = itree.New[int64, *Record]()
	}
	entries, stats := tree.BatchFindStats(breakpoints)
	x.mu.RUnlock()

	if stats.Skipped > 0 {
		x.logger.Debug("skipped invalid breakpoint pairs",
			zap.String("label", label),
			zap.Int("skipped", stats.Skipped),
			zap.Int("pairs", stats.Pairs))
	}
	if x.metrics != nil {
		x.metrics.ObserveBatch(label, stats)
	}

	result := make(map[interval.Interval[int64]][]Hit, len(entries))
	for q, es := range entries {
		hits := make([]Hit, len(es))
		for i, e := range es {
			hits[i] = Hit{Interval: e.Interval, Record: e.Payload}
		}
		result[q] = hits
	}
	return result
}

// Get returns the record with the given ID, or nil if not found.
func (x *Index) Get(id string) *Record {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.byID[id]
}

// Len returns the total number of records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	count := 0
	for _, tree := range x.trees {
		count += tree.Len()
	}
	return count
}

// Labels returns a sorted list of labels in the index.
func (x *Index) Labels() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	labels := make([]string, 0, len(x.trees))
	for label := range x.trees {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Records returns every record on label ordered by start.
func (x *Index) Records(label string) []*Record {
	x.mu.RLock()
	defer x.mu.RUnlock()

	tree, ok := x.trees[label]
	if !ok {
		return nil
	}
	records := make([]*Record, 0, tree.Len())
	for e := range tree.All() {
		records = append(records, e.Payload)
	}
	return records
}

// LabelStats summarises the tree behind one label.
type LabelStats struct {
	Label    string
	Count    int
	Height   int
	Balanced bool
	Span     interval.Interval[int64]
}

// Stats returns per-label statistics sorted by label.
func (x *Index) Stats() []LabelStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	stats := make([]LabelStats, 0, len(x.trees))
	for label, tree := range x.trees {
		span, _ := tree.Span()
		stats = append(stats, LabelStats{
			Label:    label,
			Count:    tree.Len(),
			Height:   tree.Height(),
			Balanced: tree.IsBalanced(),
			Span:     span,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Label < stats[j].Label })
	return stats
}

func (x *Index) observeFind(label string, hits int) {
	if x.metrics != nil {
		x.metrics.ObserveFind(label, hits)
	}
}
