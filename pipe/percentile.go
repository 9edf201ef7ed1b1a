package pipe

import (
	"context"
	"sort"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// percentilePipe extracts a sorting component F from every item,
// drains upstream entirely, and on exhaustion emits the smallest
// distinct component whose cumulative count (in ascending order) is
// at least round(p*N) (§4.4.17). Yields nothing for empty input.
type percentilePipe[T, F any] struct {
	state
	upstream Pipe[T]
	extract  func(T) F
	cmp      Comparator[F]
	p        float64

	hasResult bool
	result    F
	emitted   bool
	closeOnce closeOnce
}

// Percentile returns a Pipe[F] that yields the p-th percentile
// (p in [0,1]) of the components extracted from upstream's items by
// extract, ordered by cmp. p outside [0,1] fails at Start.
func Percentile[T, F any](upstream Pipe[T], extract func(T) F, cmp Comparator[F], p float64) Pipe[F] {
	return &percentilePipe[T, F]{upstream: upstream, extract: extract, cmp: cmp, p: p}
}

func (pp *percentilePipe[T, F]) Start(ctx context.Context) error {
	if !pp.transition(Created, Started) {
		return nil
	}
	if pp.p < 0 || pp.p > 1 {
		pp.fail()
		return perr.Validation("percentile: p must be in [0,1]")
	}
	if err := pp.upstream.Start(ctx); err != nil {
		pp.fail()
		return err
	}

	var components []F
	for {
		item, err := pp.upstream.Next(ctx)
		if err == EOF {
			break
		}
		if err != nil {
			pp.fail()
			return err
		}
		components = append(components, pp.extract(item))
	}
	if len(components) == 0 {
		return nil
	}

	sort.Slice(components, func(i, j int) bool { return pp.cmp(components[i], components[j]) < 0 })

	n := len(components)
	target := int(pp.p*float64(n) + 0.5) // round(p*N)
	if target < 1 {
		target = 1
	}
	if target > n {
		target = n
	}
	pp.result = components[target-1]
	pp.hasResult = true
	return nil
}

func (pp *percentilePipe[T, F]) Peek(ctx context.Context) (F, error) {
	var zero F
	if !pp.hasResult || pp.emitted {
		pp.set(Exhausted)
		return zero, EOF
	}
	return pp.result, nil
}

func (pp *percentilePipe[T, F]) Next(ctx context.Context) (F, error) {
	var zero F
	if !pp.hasResult || pp.emitted {
		pp.set(Exhausted)
		return zero, EOF
	}
	pp.emitted = true
	pp.set(Exhausted)
	return pp.result, nil
}

func (pp *percentilePipe[T, F]) Progress() float64 {
	if pp.get() == Created {
		return 0
	}
	return 1
}

func (pp *percentilePipe[T, F]) Close() error {
	return pp.closeOnce.do(func() error {
		pp.set(Closed)
		return pp.upstream.Close()
	})
}
