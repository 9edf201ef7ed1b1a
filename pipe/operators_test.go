package pipe

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterPreservesOrder(t *testing.T) {
	ctx := context.Background()
	src := FromSlice([]int{1, 2, 3, 4, 5, 6})
	f := Filter(src, func(x int) bool { return x%2 == 0 })
	out := drainAll(t, ctx, f)
	assert.Equal(t, []int{2, 4, 6}, out)
	require.NoError(t, f.Close())
}

func TestMapBijective(t *testing.T) {
	ctx := context.Background()
	src := FromSlice([]int{1, 2, 3})
	m := Map(src, func(x int) int { return x * x })
	out := drainAll(t, ctx, m)
	assert.Equal(t, []int{1, 4, 9}, out)
}

func supplier[T any](items []T) func() (Pipe[T], error) {
	return func() (Pipe[T], error) { return FromSlice(items), nil }
}

func TestConcatAssociativity(t *testing.T) {
	ctx := context.Background()
	a := []int{1, 2}
	b := []int{3, 4}
	c := []int{5, 6}

	flat := drainAll(t, ctx, Concat(supplier(a), supplier(b), supplier(c)))
	left := drainAll(t, ctx, Concat(supplier(append(append([]int{}, a...), b...)), supplier(c)))
	right := drainAll(t, ctx, Concat(supplier(a), supplier(append(append([]int{}, b...), c...))))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, flat)
	assert.Equal(t, flat, left)
	assert.Equal(t, flat, right)
}

func TestConcatClosesEachSupplierBeforeOpeningNext(t *testing.T) {
	ctx := context.Background()
	var events []string

	mk := func(name string, items []int) func() (Pipe[int], error) {
		return func() (Pipe[int], error) {
			events = append(events, "open "+name)
			return concatCloseProbe{FromSlice(items), func() { events = append(events, "close "+name) }}, nil
		}
	}
	p := Concat(mk("a", []int{1}), mk("b", []int{2}))
	drainAll(t, ctx, p)
	assert.Equal(t, []string{"open a", "close a", "open b", "close b"}, events)
}

// concatCloseProbe records when Concat closes one of its suppliers.
type concatCloseProbe struct {
	Pipe[int]
	onClose func()
}

func (c concatCloseProbe) Close() error {
	c.onClose()
	return c.Pipe.Close()
}

func TestHeadStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	src := FromSlice([]int{1, 2, 3, 4, 5})
	h := Head(src, 2)
	out := drainAll(t, ctx, h)
	assert.Equal(t, []int{1, 2}, out)
}

func TestSkipDiscardsPrefix(t *testing.T) {
	ctx := context.Background()
	src := FromSlice([]int{1, 2, 3, 4, 5})
	s := Skip(src, 2)
	out := drainAll(t, ctx, s)
	assert.Equal(t, []int{3, 4, 5}, out)
}

func TestCallbackFiresDoneExactlyOnce(t *testing.T) {
	ctx := context.Background()
	var items []int
	doneCount := 0
	c := Callback(FromSlice([]int{1, 2}), func(x int) { items = append(items, x) }, func() { doneCount++ })
	require.NoError(t, c.Start(ctx))
	for {
		_, err := c.Next(ctx)
		if err == EOF {
			break
		}
		require.NoError(t, err)
	}
	// extra calls after exhaustion must not refire onDone
	_, _ = c.Next(ctx)
	_, _ = c.Peek(ctx)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, 1, doneCount)
}

func TestCountConsumesEntirely(t *testing.T) {
	ctx := context.Background()
	c := Count(FromSlice([]string{"a", "b", "c"}))
	out := drainAll(t, ctx, c)
	assert.Equal(t, []int{3}, out)
}

func TestCountEmpty(t *testing.T) {
	ctx := context.Background()
	c := Count(FromSlice([]string{}))
	out := drainAll(t, ctx, c)
	assert.Equal(t, []int{0}, out)
}

func TestPortionSamplerDeterministic(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))
	src := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	s := PortionSampler(src, 0.5, rng)
	out := drainAll(t, ctx, s)
	// order preserved: whatever subset survives must be increasing.
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1], out[i])
	}
}

func TestExactSamplerSelectsExactlyM(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	s := ExactSampler(FromSlice(items), 10, 100, rng)
	out := drainAll(t, ctx, s)
	assert.Len(t, out, 10)
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1], out[i])
	}
}

func TestReductorGroupsByFamily(t *testing.T) {
	ctx := context.Background()
	items := []int{1, 2, 3, 4, 5, 6}
	r := Reductor(
		FromSlice(items),
		func(x int) int { return x % 2 },
		func(int) *int { z := 0; return &z },
		func(agg *int, x int) *int { *agg += x; return agg },
		func(agg *int) int { return *agg },
	)
	out := drainAll(t, ctx, r)
	assert.ElementsMatch(t, []int{9, 12}, out) // odds sum to 9, evens sum to 12
}

func TestFlexMapStreamsNestedPipes(t *testing.T) {
	ctx := context.Background()
	src := FromSlice([]int{1, 2, 3})
	fm := FlexMap(src, func(x int) (Pipe[int], error) {
		return FromSlice([]int{x, x * 10}), nil
	})
	out := drainAll(t, ctx, fm)
	assert.Equal(t, []int{1, 10, 2, 20, 3, 30}, out)
}

func TestProgressPipeReportsMonotoneIntegers(t *testing.T) {
	ctx := context.Background()
	var reported []int
	src := FromSlice([]int{1, 2, 3, 4})
	p := Progress(src, 1, func(pct int) { reported = append(reported, pct) })
	drainAll(t, ctx, p)
	assert.Equal(t, []int{0, 25, 50, 75, 100}, reported)
}

func TestProgressPipeEmptyInput(t *testing.T) {
	ctx := context.Background()
	var reported []int
	src := FromSlice([]int{})
	p := Progress[int](src, 1, func(pct int) { reported = append(reported, pct) })
	drainAll(t, ctx, p)
	assert.Equal(t, []int{0, 100}, reported)
}

func TestProportionalMapperLinear(t *testing.T) {
	var out []int
	pm := ProportionalMapper(50, 100, 0, func(pct int) { out = append(out, pct) })
	for _, raw := range []int{0, 10, 50, 100} {
		pm(raw)
	}
	assert.Equal(t, []int{50, 55, 75, 100}, out)
}

func TestProportionalMapperQuantised(t *testing.T) {
	var out []int
	pm := ProportionalMapper(0, 100, 20, func(pct int) { out = append(out, pct) })
	for _, raw := range []int{0, 10, 30, 60, 90, 100} {
		pm(raw)
	}
	assert.Equal(t, []int{0, 20, 60, 80, 100}, out)
}
