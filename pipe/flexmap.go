package pipe

import (
	"context"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// flexMap implements flat-map (§4.4.3): for each item of an upstream
// Pipe[S], obtains a nested Pipe[T] and streams all of its items
// before advancing to the next upstream item. At most one nested pipe
// is open at a time; it is closed as soon as it is exhausted or on
// any failure.
type flexMap[S, T any] struct {
	state
	upstream Pipe[S]
	expand   func(S) (Pipe[T], error)

	nested    Pipe[T]
	peeked    *T
	closeOnce closeOnce
}

// FlexMap returns a Pipe[T] that, for every item of upstream, opens
// expand(item) and streams it to completion before moving to the next
// upstream item.
func FlexMap[S, T any](upstream Pipe[S], expand func(S) (Pipe[T], error)) Pipe[T] {
	return &flexMap[S, T]{upstream: upstream, expand: expand}
}

func (fm *flexMap[S, T]) Start(ctx context.Context) error {
	if !fm.transition(Created, Started) {
		return nil
	}
	return fm.upstream.Start(ctx)
}

// closeNested closes and clears the currently open nested pipe, if any.
func (fm *flexMap[S, T]) closeNested() error {
	if fm.nested == nil {
		return nil
	}
	n := fm.nested
	fm.nested = nil
	return n.Close()
}

func (fm *flexMap[S, T]) openNext(ctx context.Context) error {
	s, err := fm.upstream.Next(ctx)
	if err != nil {
		return err
	}
	nested, err := fm.expand(s)
	if err != nil {
		return err
	}
	if err := nested.Start(ctx); err != nil {
		_ = nested.Close()
		return err
	}
	fm.nested = nested
	return nil
}

// advance returns the next T, opening successive nested pipes as
// needed until one yields a value or upstream is exhausted.
func (fm *flexMap[S, T]) advance(ctx context.Context) (T, error) {
	var zero T
	for {
		if fm.nested == nil {
			if err := fm.openNext(ctx); err != nil {
				if err == EOF {
					fm.set(Exhausted)
				} else {
					fm.fail()
				}
				return zero, err
			}
		}
		item, err := fm.nested.Next(ctx)
		if err == EOF {
			if cerr := fm.closeNested(); cerr != nil {
				fm.fail()
				return zero, cerr
			}
			continue
		}
		if err != nil {
			_ = fm.closeNested()
			fm.fail()
			return zero, err
		}
		return item, nil
	}
}

func (fm *flexMap[S, T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if fm.peeked != nil {
		return *fm.peeked, nil
	}
	item, err := fm.advance(ctx)
	if err != nil {
		return zero, err
	}
	fm.peeked = &item
	return item, nil
}

func (fm *flexMap[S, T]) Next(ctx context.Context) (T, error) {
	if fm.peeked != nil {
		item := *fm.peeked
		fm.peeked = nil
		return item, nil
	}
	return fm.advance(ctx)
}

func (fm *flexMap[S, T]) Progress() float64 { return fm.upstream.Progress() }

func (fm *flexMap[S, T]) Close() error {
	return fm.closeOnce.do(func() error {
		fm.set(Closed)
		nestedErr := fm.closeNested()
		upErr := fm.upstream.Close()
		return perr.CombineClose(nestedErr, upErr)
	})
}
