package pipe

// Comparator orders two items the way sort.Compare-style APIs do:
// negative if a precedes b, zero if they are equal, positive if a
// follows b. Sort, SortedMerge, SortedUnion/Intersection and TopK all
// share this shape so a single comparator can be reused across an
// entire pipeline stage.
type Comparator[T any] func(a, b T) int

// heapItems adapts a slice plus a Comparator into the shape deheap
// (and, via the same three methods plus Push/Pop, container/heap)
// expects: a drop-in double-ended priority queue used by TopK. The
// k-way sorted-merge family in package sort keeps its own sourceHeap
// over primed sources instead of sharing this type.
type heapItems[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (h *heapItems[T]) Len() int            { return len(h.items) }
func (h *heapItems[T]) Less(i, j int) bool  { return h.less(h.items[i], h.items[j]) }
func (h *heapItems[T]) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *heapItems[T]) Push(x any)          { h.items = append(h.items, x.(T)) }
func (h *heapItems[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
