package pipe

import "context"

// countPipe consumes its upstream entirely during Start and then
// yields a single int: the number of items seen (§4.4.8).
type countPipe[T any] struct {
	state
	upstream  Pipe[T]
	n         int
	emitted   bool
	closeOnce closeOnce
}

// Count returns a Pipe[int] that drains upstream and emits exactly one
// item: len(items(upstream)).
func Count[T any](upstream Pipe[T]) Pipe[int] {
	return &countPipe[T]{upstream: upstream}
}

func (c *countPipe[T]) Start(ctx context.Context) error {
	if !c.transition(Created, Started) {
		return nil
	}
	if err := c.upstream.Start(ctx); err != nil {
		c.fail()
		return err
	}
	n := 0
	for {
		_, err := c.upstream.Next(ctx)
		if err == EOF {
			break
		}
		if err != nil {
			c.fail()
			return err
		}
		n++
	}
	c.n = n
	return nil
}

func (c *countPipe[T]) Peek(ctx context.Context) (int, error) {
	if c.emitted {
		return 0, EOF
	}
	return c.n, nil
}

func (c *countPipe[T]) Next(ctx context.Context) (int, error) {
	if c.emitted {
		return 0, EOF
	}
	c.emitted = true
	c.set(Exhausted)
	return c.n, nil
}

func (c *countPipe[T]) Progress() float64 {
	if c.get() == Created {
		return 0
	}
	return 1
}

func (c *countPipe[T]) Close() error {
	return c.closeOnce.do(func() error {
		c.set(Closed)
		return c.upstream.Close()
	})
}
