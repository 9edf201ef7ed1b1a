package pipe

import "context"

// filter keeps only the items of an upstream Pipe[T] that satisfy a
// predicate, preserving order (§4.4.1). Progress is the upstream's
// progress, since Filter consumes upstream 1:1 regardless of how many
// items it keeps.
type filter[T any] struct {
	state
	upstream Pipe[T]
	keep     func(T) bool

	peeked    *T
	exhausted bool
	closeOnce closeOnce
}

// Filter returns a Pipe[T] over upstream's items for which keep
// returns true.
func Filter[T any](upstream Pipe[T], keep func(T) bool) Pipe[T] {
	return &filter[T]{upstream: upstream, keep: keep}
}

func (f *filter[T]) Start(ctx context.Context) error {
	if !f.transition(Created, Started) {
		return nil
	}
	return f.upstream.Start(ctx)
}

func (f *filter[T]) advance(ctx context.Context) (T, error) {
	var zero T
	for {
		item, err := f.upstream.Next(ctx)
		if err != nil {
			if err == EOF {
				f.exhausted = true
				f.set(Exhausted)
			} else {
				f.fail()
			}
			return zero, err
		}
		if f.keep(item) {
			return item, nil
		}
	}
}

func (f *filter[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if f.exhausted {
		return zero, EOF
	}
	if f.peeked != nil {
		return *f.peeked, nil
	}
	item, err := f.advance(ctx)
	if err != nil {
		return zero, err
	}
	f.peeked = &item
	return item, nil
}

func (f *filter[T]) Next(ctx context.Context) (T, error) {
	if f.peeked != nil {
		item := *f.peeked
		f.peeked = nil
		return item, nil
	}
	return f.advance(ctx)
}

func (f *filter[T]) Progress() float64 { return f.upstream.Progress() }

func (f *filter[T]) Close() error {
	return f.closeOnce.do(func() error {
		f.set(Closed)
		return f.upstream.Close()
	})
}
