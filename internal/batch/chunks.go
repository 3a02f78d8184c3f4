package batch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RunChunks splits tasks into contiguous chunks of chunkSize (the last chunk
// may be smaller) and executes each chunk with all of its tasks in flight at
// once. The call waits for a whole chunk to settle before moving on.
//
// RunChunks fails fast: the first failure within a chunk fails the whole
// call with that task's error. Chunks not yet started are never attempted
// and no partial results are returned. Between successfully completed
// chunks, when another chunk remains, delayBetweenChunks is slept first.
//
// On full success the results of all tasks are returned in input order.
func RunChunks[T any](
	ctx context.Context,
	d *Dispatcher,
	tasks []Task[T],
	chunkSize int,
	delayBetweenChunks time.Duration,
) ([]T, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d", ErrInvalidOptions, chunkSize)
	}
	if delayBetweenChunks < 0 {
		return nil, fmt.Errorf("%w: delay between chunks cannot be negative", ErrInvalidOptions)
	}

	total := len(tasks)
	d.logger.Debug("starting chunked dispatch",
		"task_count", total,
		"chunk_size", chunkSize,
		"delay_between_chunks", delayBetweenChunks)

	out := make([]T, 0, total)

	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := tasks[start:end]

		results := make([]T, len(chunk))

		var (
			wg       sync.WaitGroup
			errOnce  sync.Once
			firstErr error
		)

		for j, task := range chunk {
			wg.Add(1)
			go func(offset int, task Task[T]) {
				defer wg.Done()

				value, err := task(ctx)
				if err != nil {
					// Keep the temporally first failure; later ones in the
					// same chunk are dropped.
					errOnce.Do(func() { firstErr = err })
					return
				}
				results[offset] = value
			}(j, task)
		}

		// The chunk settles fully before the failure is surfaced, so no
		// task outlives the call.
		wg.Wait()

		if firstErr != nil {
			d.logger.Warn("chunked dispatch aborted on task failure",
				"chunk_start", start,
				"chunk_end", end,
				"error", firstErr)
			return nil, fmt.Errorf("chunk starting at task %d failed: %w", start, firstErr)
		}

		out = append(out, results...)

		if end < total && delayBetweenChunks > 0 {
			d.clock.Sleep(delayBetweenChunks)
		}
	}

	d.logger.Debug("chunked dispatch completed", "task_count", total)
	return out, nil
}
