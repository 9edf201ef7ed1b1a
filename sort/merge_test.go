package sort

import (
	"context"
	"testing"

	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intCmp(a, b int) int { return a - b }

func TestSortedMergeMultisetUnion(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{1, 3, 5})
	b := pipe.FromSlice([]int{2, 3, 6})
	m := SortedMerge([]pipe.Pipe[int]{a, b}, intCmp)
	require.NoError(t, m.Start(ctx))

	var out []int
	for {
		item, err := m.Next(ctx)
		if err == pipe.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, item)
	}
	assert.Equal(t, []int{1, 2, 3, 3, 5, 6}, out)
	require.NoError(t, m.Close())
}

func TestSortedMergeDetectsOutOfOrderInput(t *testing.T) {
	ctx := context.Background()
	bad := pipe.FromSlice([]int{3, 1, 2})
	good := pipe.FromSlice([]int{4, 5})
	m := SortedMerge([]pipe.Pipe[int]{bad, good}, intCmp)
	require.NoError(t, m.Start(ctx))

	var lastErr error
	for i := 0; i < 10; i++ {
		_, err := m.Next(ctx)
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	assert.Equal(t, perr.KindOutOfOrder, perr.Classify(lastErr))
}

func TestSortedMergeEmptySources(t *testing.T) {
	ctx := context.Background()
	m := SortedMerge([]pipe.Pipe[int]{pipe.FromSlice([]int{}), pipe.FromSlice([]int{})}, intCmp)
	require.NoError(t, m.Start(ctx))
	_, err := m.Next(ctx)
	assert.Equal(t, pipe.EOF, err)
	require.NoError(t, m.Close())
}
