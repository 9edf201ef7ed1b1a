package sort

import (
	"context"

	"github.com/pipecraft/pipecraft/pipe"
)

// peekedSource pairs a Pipe[T] with its cached head item, primed via
// Peek so a heap can compare sources without re-entering I/O on every
// comparison or swap.
type peekedSource[T any] struct {
	src       pipe.Pipe[T]
	idx       int // original position among the sources passed to the operator
	item      T
	exhausted bool
}

func primeSource[T any](ctx context.Context, src pipe.Pipe[T], idx int) (*peekedSource[T], error) {
	item, err := src.Peek(ctx)
	if err == pipe.EOF {
		return &peekedSource[T]{src: src, idx: idx, exhausted: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &peekedSource[T]{src: src, idx: idx, item: item}, nil
}

// advance consumes the cached head and re-primes from src.
func (p *peekedSource[T]) advance(ctx context.Context) error {
	if _, err := p.src.Next(ctx); err != nil && err != pipe.EOF {
		return err
	}
	item, err := p.src.Peek(ctx)
	if err == pipe.EOF {
		p.exhausted = true
		return nil
	}
	if err != nil {
		return err
	}
	p.item = item
	return nil
}

// sourceHeap is a deheap/container-heap-shaped min-heap over a set of
// primed, non-exhausted sources, ordered by each source's cached head
// item. It underlies SortedMerge, SortedUnion, SortedIntersection and
// External sort's run-merge phase (§4.4.11-§4.4.13), reusing the same
// adapter shape pipe.Comparator-based operators already use for TopK.
type sourceHeap[T any] struct {
	sources []*peekedSource[T]
	cmp     pipe.Comparator[T]
}

func (h *sourceHeap[T]) Len() int           { return len(h.sources) }
func (h *sourceHeap[T]) Less(i, j int) bool { return h.cmp(h.sources[i].item, h.sources[j].item) < 0 }
func (h *sourceHeap[T]) Swap(i, j int) {
	h.sources[i], h.sources[j] = h.sources[j], h.sources[i]
}
func (h *sourceHeap[T]) Push(x any) { h.sources = append(h.sources, x.(*peekedSource[T])) }
func (h *sourceHeap[T]) Pop() any {
	old := h.sources
	n := len(old)
	item := old[n-1]
	h.sources = old[:n-1]
	return item
}
