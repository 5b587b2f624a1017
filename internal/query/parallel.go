package query

import (
	"context"
	"runtime"
	"sync"

	"github.com/inodb/vibe-itree/internal/index"
)

// WorkItem is a query numbered by its position in the input.
type WorkItem struct {
	Seq   int
	Query *index.Record
}

// WorkResult is the answer to one WorkItem.
type WorkResult struct {
	Seq   int
	Query *index.Record
	Hits  []index.Hit
	Err   error
}

// ParallelFind answers the queries from items on a pool of workers and sends
// the results, in completion order, on the returned channel. The channel is
// closed once items is drained or ctx is cancelled. workers <= 0 means one
// per CPU.
func (r *Runner) ParallelFind(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx, items, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (r *Runner) work(ctx context.Context, items <-chan WorkItem, results chan<- WorkResult) {
	for {
		var item WorkItem
		select {
		case <-ctx.Done():
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			item = it
		}

		res := WorkResult{Seq: item.Seq, Query: item.Query}
		res.Hits, res.Err = r.Find(item.Query)

		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// OrderedCollect passes results to fn in Seq order, holding back the ones
// that arrive early. After fn fails the remaining results are discarded
// until the channel closes, and fn's error is returned.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	var (
		held = make(map[int]WorkResult)
		next int
		err  error
	)
	for res := range results {
		if err != nil {
			continue
		}
		held[res.Seq] = res
		for ready, ok := held[next]; ok; ready, ok = held[next] {
			delete(held, next)
			next++
			if err = fn(ready); err != nil {
				break
			}
		}
	}
	return err
}
