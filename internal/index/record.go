// Package index keeps one interval tree per label and serialises access to them.
package index

import (
	"github.com/inodb/vibe-itree/internal/interval"
)

// Record is a labelled interval as read from a source file or table.
type Record struct {
	ID    string // Record identifier (unique within the index)
	Label string // Sequence or partition name (e.g., chr12)
	Start int64  // Start position, inclusive
	End   int64  // End position, exclusive
	Name  string // Optional display name
}

// Interval returns the record's range, validating it.
func (r *Record) Interval() (interval.Interval[int64], error) {
	return interval.New(r.Start, r.End)
}

// Hit is a record found by a query.
type Hit struct {
	Interval interval.Interval[int64]
	Record   *Record
}
