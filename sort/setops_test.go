package sort

import (
	"context"
	"testing"

	"github.com/pipecraft/pipecraft/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainInts(t *testing.T, ctx context.Context, p pipe.Pipe[int]) []int {
	t.Helper()
	require.NoError(t, p.Start(ctx))
	var out []int
	for {
		item, err := p.Next(ctx)
		if err == pipe.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, item)
	}
	require.NoError(t, p.Close())
	return out
}

// TestSortedUnionScenarioS1: A=[1,2,3,4,5,6], B=[2,4,6,8,10].
func TestSortedUnionScenarioS1(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{1, 2, 3, 4, 5, 6})
	b := pipe.FromSlice([]int{2, 4, 6, 8, 10})
	u := SortedUnion([]pipe.Pipe[int]{a, b}, intCmp)
	out := drainInts(t, ctx, u)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 8, 10}, out)
}

// TestSortedIntersectionScenarioS2: A=[2,3,4], B=[1,5,6] -> [].
func TestSortedIntersectionScenarioS2(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{2, 3, 4})
	b := pipe.FromSlice([]int{1, 5, 6})
	i := SortedIntersection([]pipe.Pipe[int]{a, b}, intCmp)
	out := drainInts(t, ctx, i)
	assert.Empty(t, out)
}

func TestSortedIntersectionFindsCommonElements(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{1, 2, 3, 4, 5})
	b := pipe.FromSlice([]int{2, 4, 5, 6})
	i := SortedIntersection([]pipe.Pipe[int]{a, b}, intCmp)
	out := drainInts(t, ctx, i)
	assert.Equal(t, []int{2, 4, 5}, out)
}

func TestSortedIntersectionEmptyInputYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{1, 2, 3})
	b := pipe.FromSlice([]int{})
	i := SortedIntersection([]pipe.Pipe[int]{a, b}, intCmp)
	out := drainInts(t, ctx, i)
	assert.Empty(t, out)
}

func TestSortedUnionDeduplicatesAcrossThreeSources(t *testing.T) {
	ctx := context.Background()
	a := pipe.FromSlice([]int{1, 2})
	b := pipe.FromSlice([]int{2, 3})
	c := pipe.FromSlice([]int{1, 3, 4})
	u := SortedUnion([]pipe.Pipe[int]{a, b, c}, intCmp)
	out := drainInts(t, ctx, u)
	assert.Equal(t, []int{1, 2, 3, 4}, out)
}
