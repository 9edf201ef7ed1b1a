package pipe

import "context"

// callback is a pass-through pipe that invokes onItem for every item
// and onDone exactly once, the first time the terminator is observed
// via either Peek or Next (§4.4.6).
type callback[T any] struct {
	state
	upstream  Pipe[T]
	onItem    func(T)
	onDone    func()
	doneFired bool
	closeOnce closeOnce
}

// Callback returns a pass-through Pipe[T] that calls onItem (if
// non-nil) for every item seen and onDone (if non-nil) exactly once
// when the terminator is first observed.
func Callback[T any](upstream Pipe[T], onItem func(T), onDone func()) Pipe[T] {
	return &callback[T]{upstream: upstream, onItem: onItem, onDone: onDone}
}

func (c *callback[T]) Start(ctx context.Context) error {
	if !c.transition(Created, Started) {
		return nil
	}
	return c.upstream.Start(ctx)
}

func (c *callback[T]) fireDone() {
	if c.doneFired {
		return
	}
	c.doneFired = true
	if c.onDone != nil {
		c.onDone()
	}
}

func (c *callback[T]) Peek(ctx context.Context) (T, error) {
	item, err := c.upstream.Peek(ctx)
	if err == EOF {
		c.set(Exhausted)
		c.fireDone()
		return item, err
	}
	if err != nil {
		c.fail()
		return item, err
	}
	return item, nil
}

func (c *callback[T]) Next(ctx context.Context) (T, error) {
	item, err := c.upstream.Next(ctx)
	if err == EOF {
		c.set(Exhausted)
		c.fireDone()
		return item, err
	}
	if err != nil {
		c.fail()
		return item, err
	}
	if c.onItem != nil {
		c.onItem(item)
	}
	return item, nil
}

func (c *callback[T]) Progress() float64 { return c.upstream.Progress() }

func (c *callback[T]) Close() error {
	return c.closeOnce.do(func() error {
		c.set(Closed)
		return c.upstream.Close()
	})
}
