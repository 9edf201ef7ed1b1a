package sort

import (
	"context"

	"github.com/aalpar/deheap"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// setOpPipe is the shared multiset-to-set engine behind SortedUnion
// and SortedIntersection (§4.4.13): each round it advances every
// source whose head ties for the current minimum, builds a
// contributors bitset (one bool per original source), and asks
// shouldOutput whether to emit. canTerminate lets a subclass
// short-circuit once its invariant can no longer hold (intersection:
// once any source is exhausted, no further full-contributor round is
// possible).
type setOpPipe[T any] struct {
	lc lifecycle

	sources      []pipe.Pipe[T]
	cmp          pipe.Comparator[T]
	total        int
	shouldOutput func(item T, contributors []bool) bool
	canTerminate func(activeCount int) bool

	heap       *sourceHeap[T]
	terminated bool

	pending     T
	havePending bool

	closeOnce closeOnce
}

func (s *setOpPipe[T]) Start(ctx context.Context) error {
	if !s.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	h := &sourceHeap[T]{cmp: s.cmp}
	for i, src := range s.sources {
		if err := src.Start(ctx); err != nil {
			s.lc.set(pipe.Failed)
			return err
		}
		ps, err := primeSource(ctx, src, i)
		if err != nil {
			s.lc.set(pipe.Failed)
			return err
		}
		if !ps.exhausted {
			h.sources = append(h.sources, ps)
		}
	}
	deheap.Init(h)
	s.heap = h
	if s.canTerminate(h.Len()) {
		s.terminated = true
	}
	return nil
}

// advance runs rounds until it finds an item to emit or the source is
// exhausted/terminated.
func (s *setOpPipe[T]) advance(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		if s.terminated || s.heap.Len() == 0 {
			return zero, false, nil
		}
		minItem := s.heap.sources[0].item

		var tied []*peekedSource[T]
		for s.heap.Len() > 0 && s.cmp(s.heap.sources[0].item, minItem) == 0 {
			tied = append(tied, deheap.Pop(s.heap).(*peekedSource[T]))
		}

		contributors := make([]bool, s.total)
		for _, p := range tied {
			contributors[p.idx] = true
		}

		for _, p := range tied {
			for {
				if err := p.advance(ctx); err != nil {
					return zero, false, err
				}
				if p.exhausted || s.cmp(p.item, minItem) != 0 {
					break
				}
			}
			if !p.exhausted {
				deheap.Push(s.heap, p)
			}
		}

		emit := s.shouldOutput(minItem, contributors)
		if s.canTerminate(s.heap.Len()) {
			s.terminated = true
		}
		if emit {
			return minItem, true, nil
		}
		if s.terminated {
			return zero, false, nil
		}
	}
}

func (s *setOpPipe[T]) fill(ctx context.Context) error {
	if s.havePending {
		return nil
	}
	item, ok, err := s.advance(ctx)
	if err != nil {
		s.lc.set(pipe.Failed)
		return err
	}
	if !ok {
		s.lc.set(pipe.Exhausted)
		return pipe.EOF
	}
	s.pending = item
	s.havePending = true
	return nil
}

func (s *setOpPipe[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if err := s.fill(ctx); err != nil {
		return zero, err
	}
	return s.pending, nil
}

func (s *setOpPipe[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := s.fill(ctx); err != nil {
		return zero, err
	}
	item := s.pending
	s.havePending = false
	return item, nil
}

func (s *setOpPipe[T]) Progress() float64 {
	if len(s.sources) == 0 {
		return 1
	}
	var sum float64
	for _, src := range s.sources {
		sum += src.Progress()
	}
	return sum / float64(len(s.sources))
}

func (s *setOpPipe[T]) Close() error {
	return s.closeOnce.do(func() error {
		s.lc.set(pipe.Closed)
		errs := make([]error, len(s.sources))
		for i, src := range s.sources {
			errs[i] = src.Close()
		}
		return perr.CombineClose(errs...)
	})
}

// SortedUnion returns the set union of sorted sources, emitting each
// distinct item exactly once in sorted order (§4.4.13, invariant 9).
// cmp must be consistent with equality.
func SortedUnion[T any](sources []pipe.Pipe[T], cmp pipe.Comparator[T]) pipe.Pipe[T] {
	return &setOpPipe[T]{
		sources: sources,
		cmp:     cmp,
		total:   len(sources),
		shouldOutput: func(_ T, _ []bool) bool {
			return true
		},
		canTerminate: func(int) bool { return false },
	}
}

// SortedIntersection returns the set intersection of sorted sources,
// sorted and duplicate-free; it short-circuits (invariant 10) as soon
// as any source is exhausted, since no further full-contributor item
// can exist. If any input is empty, the output is empty.
func SortedIntersection[T any](sources []pipe.Pipe[T], cmp pipe.Comparator[T]) pipe.Pipe[T] {
	total := len(sources)
	return &setOpPipe[T]{
		sources: sources,
		cmp:     cmp,
		total:   total,
		shouldOutput: func(_ T, contributors []bool) bool {
			for _, c := range contributors {
				if !c {
					return false
				}
			}
			return true
		},
		canTerminate: func(activeCount int) bool { return activeCount < total },
	}
}
