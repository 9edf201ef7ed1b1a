package pipe

import (
	"context"

	"github.com/aalpar/deheap"
)

// topK maintains a bounded min-heap of size k under a Comparator and,
// on exhaustion, emits the retained items in descending order
// (§4.4.10). Space is O(k) regardless of input size.
type topK[T any] struct {
	state
	upstream Pipe[T]
	k        int
	cmp      Comparator[T]

	heap      *heapItems[T]
	results   []T
	resultIdx int
	drained   bool
	closeOnce closeOnce
}

// TopK returns a Pipe[T] that, once upstream is exhausted, yields the
// k greatest items under cmp in descending order (ties broken
// arbitrarily but consistently - whichever order the heap happens to
// retain them in). If upstream has at most k items, all of them are
// returned, sorted.
func TopK[T any](upstream Pipe[T], k int, cmp Comparator[T]) Pipe[T] {
	return &topK[T]{
		upstream: upstream,
		k:        k,
		cmp:      cmp,
		heap:     &heapItems[T]{less: func(a, b T) bool { return cmp(a, b) < 0 }},
	}
}

func (t *topK[T]) Start(ctx context.Context) error {
	if !t.transition(Created, Started) {
		return nil
	}
	return t.upstream.Start(ctx)
}

func (t *topK[T]) drain(ctx context.Context) error {
	if t.drained {
		return nil
	}
	t.drained = true
	if t.k <= 0 {
		for {
			_, err := t.upstream.Next(ctx)
			if err == EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
	deheap.Init(t.heap)
	for {
		item, err := t.upstream.Next(ctx)
		if err == EOF {
			break
		}
		if err != nil {
			return err
		}
		if t.heap.Len() < t.k {
			deheap.Push(t.heap, item)
			continue
		}
		if t.cmp(item, t.heap.items[0]) > 0 {
			deheap.Pop(t.heap)
			deheap.Push(t.heap, item)
		}
	}
	t.results = make([]T, 0, t.heap.Len())
	for t.heap.Len() > 0 {
		t.results = append(t.results, deheap.PopMax(t.heap).(T))
	}
	return nil
}

func (t *topK[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if err := t.drain(ctx); err != nil {
		t.fail()
		return zero, err
	}
	if t.resultIdx >= len(t.results) {
		t.set(Exhausted)
		return zero, EOF
	}
	return t.results[t.resultIdx], nil
}

func (t *topK[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := t.drain(ctx); err != nil {
		t.fail()
		return zero, err
	}
	if t.resultIdx >= len(t.results) {
		t.set(Exhausted)
		return zero, EOF
	}
	item := t.results[t.resultIdx]
	t.resultIdx++
	return item, nil
}

func (t *topK[T]) Progress() float64 {
	if !t.drained {
		return t.upstream.Progress()
	}
	if len(t.results) == 0 {
		return 1
	}
	return float64(t.resultIdx) / float64(len(t.results))
}

func (t *topK[T]) Close() error {
	return t.closeOnce.do(func() error {
		t.set(Closed)
		return t.upstream.Close()
	})
}
