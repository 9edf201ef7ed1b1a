package shard

import (
	"context"
	"testing"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAsyncConservesMultisetAndCounts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	items := []string{"a1", "b1", "a2", "c1", "b2", "a3"}

	async := pipe.NewSyncToAsync(func() (pipe.Pipe[string], error) {
		return pipe.FromSlice(items), nil
	})

	result, err := RunAsync(ctx, async, codec.Text, func(x string) string { return x[:1] }, Config{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 3, "b": 2, "c": 1}, result)
	sum := 0
	for _, n := range result {
		sum += n
	}
	assert.Equal(t, len(items), sum)
}

func TestRunAsyncMultipleWorkersDistinctShards(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	async := pipe.NewSyncToAsync(
		func() (pipe.Pipe[string], error) { return pipe.FromSlice([]string{"a1", "a2", "a3"}), nil },
		func() (pipe.Pipe[string], error) { return pipe.FromSlice([]string{"b1", "b2"}), nil },
	)

	result, err := RunAsync(ctx, async, codec.Text, func(x string) string { return x[:1] }, Config{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 2}, result)
}
