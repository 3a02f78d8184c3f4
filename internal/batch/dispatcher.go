package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Task is an opaque asynchronous unit of work. The dispatcher never
// inspects a task's effects; it only observes success or failure and the
// result value. Cancellation and timeouts are the task's own business: the
// context is forwarded as-is and a started batch always runs every task to
// settlement.
type Task[T any] func(ctx context.Context) (T, error)

// Options controls a single Run call.
type Options[T any] struct {
	// MaxConcurrent bounds the number of simultaneously in-flight tasks.
	// Must be at least 1.
	MaxConcurrent int `validate:"required,gte=1"`

	// MinDelayBetweenDispatches is slept by every task other than the
	// first before it begins executing. See the package comment for the
	// throughput caveat.
	MinDelayBetweenDispatches time.Duration `validate:"gte=0"`

	// OnProgress, if set, is invoked after each task settles with the new
	// completed count and the total. Calls are serialized and counts are
	// strictly increasing; the callback must not block.
	OnProgress func(completed, total int) `validate:"-"`

	// OnBatchComplete, if set, is invoked with the full result sequence
	// only when every task succeeded.
	OnBatchComplete func(results []T) `validate:"-"`
}

// Dispatcher runs batches of tasks. It carries no per-batch state, so a
// single instance constructed at startup can be shared by every caller.
type Dispatcher struct {
	logger   *slog.Logger
	clock    clock.Clock
	validate *validator.Validate
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Dispatcher{
		logger:   logger,
		clock:    clock.New(),
		validate: validator.New(),
	}, nil
}

// Run executes every task under the dispatch policy in opts and returns the
// results in input order, regardless of completion order.
//
// Tasks are started strictly by input index: whenever fewer than
// MaxConcurrent tasks are in flight and unstarted tasks remain, the lowest
// unstarted index starts next. A failing task never stops its siblings;
// every task is attempted exactly once. If any task failed, Run returns an
// *AggregateError carrying all failures and the partial results.
//
// Run is a function rather than a method so the result type can be generic.
func Run[T any](ctx context.Context, d *Dispatcher, tasks []Task[T], opts Options[T]) ([]T, error) {
	if err := d.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	total := len(tasks)
	runID := uuid.New()
	d.logger.Debug("starting batch dispatch",
		"run_id", runID,
		"task_count", total,
		"max_concurrent", opts.MaxConcurrent,
		"min_delay", opts.MinDelayBetweenDispatches)

	results := make([]*T, total)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		failures  []TaskFailure
		completed int
	)

	// Acquiring the semaphore in the loop, before spawning, is what keeps
	// dispatch order strictly increasing by index: task i+1 cannot claim a
	// slot until task i has been handed one.
	sem := make(chan struct{}, opts.MaxConcurrent)

	for i, task := range tasks {
		sem <- struct{}{}
		wg.Add(1)

		go func(index int, task Task[T]) {
			defer wg.Done()
			defer func() { <-sem }()

			if index > 0 && opts.MinDelayBetweenDispatches > 0 {
				d.clock.Sleep(opts.MinDelayBetweenDispatches)
			}

			value, err := task(ctx)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failures = append(failures, TaskFailure{Index: index, Err: err})
				d.logger.Debug("batch task failed",
					"run_id", runID,
					"task_index", index,
					"error", err)
			} else {
				results[index] = &value
			}

			completed++
			if opts.OnProgress != nil {
				opts.OnProgress(completed, total)
			}
		}(i, task)
	}

	wg.Wait()

	if len(failures) > 0 {
		// Failures are recorded in completion order; report them by index.
		sort.Slice(failures, func(a, b int) bool {
			return failures[a].Index < failures[b].Index
		})
		d.logger.Warn("batch dispatch completed with failures",
			"run_id", runID,
			"task_count", total,
			"failure_count", len(failures))
		return nil, &AggregateError[T]{Failures: failures, Partial: results}
	}

	out := make([]T, total)
	for i, r := range results {
		out[i] = *r
	}

	d.logger.Debug("batch dispatch completed", "run_id", runID, "task_count", total)

	if opts.OnBatchComplete != nil {
		opts.OnBatchComplete(out)
	}
	return out, nil
}
