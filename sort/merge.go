package sort

import (
	"context"

	"github.com/aalpar/deheap"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// mergePipe is the k-way merge core shared by SortedMerge and
// External sort's run-merge phase. validate turns on the
// non-descending-input check SortedMerge needs (§4.4.12); External's
// own runs are already known-sorted, so it skips the check.
type mergePipe[T any] struct {
	lc lifecycle

	sources  []pipe.Pipe[T]
	cmp      pipe.Comparator[T]
	validate bool
	onClose  func() error

	heap     *sourceHeap[T]
	haveLast bool
	last     T

	closeOnce closeOnce
}

func newMergePipe[T any](sources []pipe.Pipe[T], cmp pipe.Comparator[T], validate bool, onClose func() error) *mergePipe[T] {
	return &mergePipe[T]{sources: sources, cmp: cmp, validate: validate, onClose: onClose}
}

// SortedMerge performs a k-way merge of already-sorted sources using a
// min-heap keyed by each source's head item (§4.4.12). Ties are broken
// arbitrarily (whichever source the heap happens to pop), but the
// output multiset always equals the multiset union of the inputs. If
// any source is not itself non-descending under cmp, Next returns a
// perr.OutOfOrder error.
func SortedMerge[T any](sources []pipe.Pipe[T], cmp pipe.Comparator[T]) pipe.Pipe[T] {
	return newMergePipe(sources, cmp, true, nil)
}

func (m *mergePipe[T]) Start(ctx context.Context) error {
	if !m.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	h := &sourceHeap[T]{cmp: m.cmp}
	for i, src := range m.sources {
		if err := src.Start(ctx); err != nil {
			m.lc.set(pipe.Failed)
			return err
		}
		ps, err := primeSource(ctx, src, i)
		if err != nil {
			m.lc.set(pipe.Failed)
			return err
		}
		if !ps.exhausted {
			h.sources = append(h.sources, ps)
		}
	}
	deheap.Init(h)
	m.heap = h
	return nil
}

func (m *mergePipe[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if m.heap.Len() == 0 {
		m.lc.set(pipe.Exhausted)
		return zero, pipe.EOF
	}
	return m.heap.sources[0].item, nil
}

func (m *mergePipe[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if m.heap.Len() == 0 {
		m.lc.set(pipe.Exhausted)
		return zero, pipe.EOF
	}
	top := deheap.Pop(m.heap).(*peekedSource[T])
	item := top.item

	if m.validate && m.haveLast && m.cmp(item, m.last) < 0 {
		m.lc.set(pipe.Failed)
		return zero, perr.OutOfOrder("sorted-merge: input is not non-descending under the comparator")
	}
	m.last = item
	m.haveLast = true

	if err := top.advance(ctx); err != nil {
		m.lc.set(pipe.Failed)
		return zero, err
	}
	if !top.exhausted {
		deheap.Push(m.heap, top)
	}
	if m.heap.Len() == 0 {
		m.lc.set(pipe.Exhausted)
	}
	return item, nil
}

func (m *mergePipe[T]) Progress() float64 {
	if len(m.sources) == 0 {
		return 1
	}
	var sum float64
	for _, s := range m.sources {
		sum += s.Progress()
	}
	return sum / float64(len(m.sources))
}

func (m *mergePipe[T]) Close() error {
	return m.closeOnce.do(func() error {
		m.lc.set(pipe.Closed)
		errs := make([]error, 0, len(m.sources)+1)
		for _, s := range m.sources {
			errs = append(errs, s.Close())
		}
		if m.onClose != nil {
			errs = append(errs, m.onClose())
		}
		return perr.CombineClose(errs...)
	})
}
