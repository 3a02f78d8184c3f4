package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiolore/mediacore/internal/batch"
)

// mockGenerator implements Generator for testing
type mockGenerator struct {
	describeFn func(ctx context.Context, req Request) (string, error)
}

func (m *mockGenerator) Describe(ctx context.Context, req Request) (string, error) {
	return m.describeFn(ctx, req)
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestTasks_PreservesRequestOrder(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{
		describeFn: func(ctx context.Context, req Request) (string, error) {
			return "description of " + req.Key, nil
		},
	}

	reqs := make([]Request, 5)
	for i := range reqs {
		reqs[i] = Request{Key: fmt.Sprintf("media-%d", i), Prompt: "describe this"}
	}

	d, err := batch.NewDispatcher(setupTestLogger())
	require.NoError(t, err)

	results, err := batch.Run(context.Background(), d, Tasks(gen, reqs), batch.Options[Described]{
		MaxConcurrent: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("media-%d", i), r.Key)
		assert.Equal(t, "description of "+r.Key, r.Text)
	}
}

func TestTasks_FailuresSurfaceThroughAggregate(t *testing.T) {
	t.Parallel()

	genErr := errors.New("provider quota exceeded")
	gen := &mockGenerator{
		describeFn: func(ctx context.Context, req Request) (string, error) {
			if req.Key == "media-1" {
				return "", genErr
			}
			return "ok", nil
		},
	}

	reqs := []Request{
		{Key: "media-0", Prompt: "p"},
		{Key: "media-1", Prompt: "p"},
		{Key: "media-2", Prompt: "p"},
	}

	d, err := batch.NewDispatcher(setupTestLogger())
	require.NoError(t, err)

	_, err = batch.Run(context.Background(), d, Tasks(gen, reqs), batch.Options[Described]{
		MaxConcurrent: 3,
	})
	require.Error(t, err)

	var aggErr *batch.AggregateError[Described]
	require.ErrorAs(t, err, &aggErr)
	require.Len(t, aggErr.Failures, 1)
	assert.Equal(t, 1, aggErr.Failures[0].Index)
	assert.ErrorIs(t, err, genErr)

	// Successful siblings are salvageable from the partial results.
	require.NotNil(t, aggErr.Partial[0])
	assert.Equal(t, "media-0", aggErr.Partial[0].Key)
	require.NotNil(t, aggErr.Partial[2])
	assert.Nil(t, aggErr.Partial[1])
}
