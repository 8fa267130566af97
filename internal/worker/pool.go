// Package worker provides a small generic worker pool for concurrent batch processing.
package worker

import (
	"context"
	"sync"
)

// ProcessFunc processes the item at index i and returns its result.
type ProcessFunc[I, O any] func(ctx context.Context, i int, item I) (O, error)

// ProgressFunc is called after each item completes.
type ProgressFunc func(completed, total int)

type indexed[O any] struct {
	index int
	value O
	err   error
}

func run[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onProgress ProgressFunc) []indexed[O] {
	total := len(items)
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan int)
	results := make([]indexed[O], total)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				value, err := process(ctx, i, items[i])
				results[i] = indexed[O]{index: i, value: value, err: err}

				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				if onProgress != nil {
					onProgress(done, total)
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			// Stop feeding; workers drain what's already queued.
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// Process runs process over all items with the given parallelism and returns
// the results in input order. The first error aborts the return value, but
// in-flight items still finish.
func Process[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onProgress ProgressFunc) ([]O, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := run(ctx, items, workers, process, onProgress)

	output := make([]O, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		output[i] = r.value
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return output, nil
}

// ProcessOrdered runs process over all items and hands each result to
// onResult in input order, as soon as every earlier item has finished.
// Failures are delivered too, with the zero value and their error. onResult
// runs on a single goroutine, so it may touch shared state without locking.
func ProcessOrdered[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onResult func(i int, value O, err error), onProgress ProgressFunc) {
	total := len(items)
	if total == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan int)
	out := make(chan indexed[O], workers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				value, err := process(ctx, i, items[i])

				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				if onProgress != nil {
					onProgress(done, total)
				}
				out <- indexed[O]{index: i, value: value, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				// Stop feeding; workers drain what's already queued.
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	pending := make(map[int]indexed[O], workers)
	next := 0
	for r := range out {
		pending[r.index] = r
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			onResult(p.index, p.value, p.err)
			next++
		}
	}
}

// ProcessWithErrors is like Process but keeps going past failures, returning
// every result alongside the errors that occurred. Failed slots hold the zero
// value.
func ProcessWithErrors[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onProgress ProgressFunc) ([]O, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := run(ctx, items, workers, process, onProgress)

	output := make([]O, len(results))
	var errs []error
	for i, r := range results {
		output[i] = r.value
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return output, errs
}
