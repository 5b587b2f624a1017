// Package query runs overlap queries against an index.
package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
	"github.com/inodb/vibe-itree/internal/source"
)

// Searcher defines the lookup a Runner needs.
type Searcher interface {
	Find(label string, q interval.Interval[int64]) []index.Hit
}

// ResultWriter defines the interface for writing query results.
type ResultWriter interface {
	WriteHeader() error
	Write(q *index.Record, hits []index.Hit) error
	Flush() error
}

// Summary counts what RunAll did.
type Summary struct {
	Queries int
	Failed  int
	Hits    int
}

// Runner answers queries read from a parser.
type Runner struct {
	index   Searcher
	workers int
	logger  *zap.Logger
}

// NewRunner creates a runner over the given index.
func NewRunner(s Searcher) *Runner {
	return &Runner{
		index:  s,
		logger: zap.NewNop(),
	}
}

// SetWorkers sets the worker pool size; 0 means one per CPU.
func (r *Runner) SetWorkers(n int) {
	r.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Find answers a single query.
func (r *Runner) Find(q *index.Record) ([]index.Hit, error) {
	iv, err := q.Interval()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Label, err)
	}
	return r.index.Find(q.Label, iv), nil
}

// RunAll answers every query from parser, writing results in input order.
// Queries with an invalid range are logged and skipped. Cancelling ctx stops
// the parser and the workers; RunAll then returns ctx's error.
func (r *Runner) RunAll(ctx context.Context, parser source.RecordParser, writer ResultWriter) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 2*max(r.workers, 1))
	parsed := make(chan error, 1)
	go func() {
		defer close(items)
		parsed <- r.feed(ctx, parser, items)
	}()

	results := r.ParallelFind(ctx, items, r.workers)

	var summary Summary
	if err := writer.WriteHeader(); err != nil {
		cancel()
		for range results {
		}
		return summary, fmt.Errorf("write header: %w", err)
	}

	err := OrderedCollect(results, func(res WorkResult) error {
		summary.Queries++
		if res.Err != nil {
			summary.Failed++
			r.logger.Warn("failed to run query",
				zap.String("label", res.Query.Label),
				zap.Int64("start", res.Query.Start),
				zap.Int64("end", res.Query.End),
				zap.Error(res.Err))
			return nil
		}
		summary.Hits += len(res.Hits)
		if err := writer.Write(res.Query, res.Hits); err != nil {
			cancel()
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	})
	parseErr := <-parsed
	switch {
	case err != nil:
		return summary, err
	case parseErr != nil:
		return summary, parseErr
	case ctx.Err() != nil:
		return summary, ctx.Err()
	}

	if summary.Queries == 0 {
		r.logger.Info("0 queries processed")
	}

	return summary, writer.Flush()
}

// feed numbers the queries from parser and sends them to items until the
// parser is exhausted or ctx is cancelled.
func (r *Runner) feed(ctx context.Context, parser source.RecordParser, items chan<- WorkItem) error {
	for seq := 0; ; seq++ {
		q, err := parser.Next()
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		if q == nil {
			return nil
		}
		select {
		case items <- WorkItem{Seq: seq, Query: q}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
