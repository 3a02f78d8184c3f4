package generation

import (
	"context"

	"github.com/studiolore/mediacore/internal/batch"
)

// Described pairs a generation request's key with its generated text, so
// batch results can be written back to the cache under the right key.
type Described struct {
	Key  string
	Text string
}

// Tasks converts generation requests into batch tasks. The returned slice
// preserves request order, so the i-th batch result corresponds to the i-th
// request. The tasks are plain closures; the dispatcher stays unaware of
// what they call.
func Tasks(gen Generator, reqs []Request) []batch.Task[Described] {
	tasks := make([]batch.Task[Described], len(reqs))
	for i, req := range reqs {
		req := req
		tasks[i] = func(ctx context.Context) (Described, error) {
			text, err := gen.Describe(ctx, req)
			if err != nil {
				return Described{}, err
			}
			return Described{Key: req.Key, Text: text}, nil
		}
	}
	return tasks
}
