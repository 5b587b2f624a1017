package duckdb

import (
	"context"

	"github.com/inodb/vibe-itree/internal/index"
)

// flushEvery bounds how many rows a ResultWriter buffers between appends.
const flushEvery = 10000

// ResultWriter stores query hits in the query_results table. Rows are
// buffered and appended in batches.
type ResultWriter struct {
	ctx     context.Context
	store   *Store
	pending []Result
}

// NewResultWriter returns a writer appending to s.
func NewResultWriter(ctx context.Context, s *Store) *ResultWriter {
	return &ResultWriter{ctx: ctx, store: s}
}

// WriteHeader is a no-op.
func (w *ResultWriter) WriteHeader() error {
	return nil
}

// Write buffers the hits of query q. Queries with an invalid range have
// already been rejected by the runner.
func (w *ResultWriter) Write(q *index.Record, hits []index.Hit) error {
	iv, err := q.Interval()
	if err != nil {
		return err
	}
	for _, h := range hits {
		w.pending = append(w.pending, Result{Label: q.Label, Query: iv, Hit: h})
	}
	if len(w.pending) >= flushEvery {
		return w.Flush()
	}
	return nil
}

// Flush appends buffered rows.
func (w *ResultWriter) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	err := w.store.WriteResults(w.ctx, w.pending)
	w.pending = w.pending[:0]
	return err
}
