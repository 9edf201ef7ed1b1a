package pipe

import (
	"context"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// concat sequentially exposes a list of lazy pipe suppliers as one
// pipe (§4.4.4). Supplier i+1 is only opened once supplier i is
// exhausted and closed; an error in any supplier aborts with every
// prior supplier already closed.
type concat[T any] struct {
	state
	suppliers []func() (Pipe[T], error)
	next      int // index of the next supplier to open

	current   Pipe[T]
	peeked    *T
	closeOnce closeOnce
}

// Concat returns a Pipe[T] that yields every item of suppliers[0],
// then suppliers[1], and so on. Concat(Concat(a,b), c),
// Concat(a, Concat(b,c)) and Concat(a,b,c) all produce the same
// sequence (§8 property 6).
func Concat[T any](suppliers ...func() (Pipe[T], error)) Pipe[T] {
	return &concat[T]{suppliers: suppliers}
}

func (c *concat[T]) Start(ctx context.Context) error {
	if !c.transition(Created, Started) {
		return nil
	}
	return nil
}

func (c *concat[T]) closeCurrent() error {
	if c.current == nil {
		return nil
	}
	cur := c.current
	c.current = nil
	return cur.Close()
}

func (c *concat[T]) openNext(ctx context.Context) error {
	for c.next < len(c.suppliers) {
		supplier := c.suppliers[c.next]
		c.next++
		p, err := supplier()
		if err != nil {
			return err
		}
		if err := p.Start(ctx); err != nil {
			_ = p.Close()
			return err
		}
		c.current = p
		return nil
	}
	return EOF
}

func (c *concat[T]) advance(ctx context.Context) (T, error) {
	var zero T
	for {
		if c.current == nil {
			if err := c.openNext(ctx); err != nil {
				if err == EOF {
					c.set(Exhausted)
				} else {
					c.fail()
				}
				return zero, err
			}
		}
		item, err := c.current.Next(ctx)
		if err == EOF {
			if cerr := c.closeCurrent(); cerr != nil {
				c.fail()
				return zero, cerr
			}
			continue
		}
		if err != nil {
			_ = c.closeCurrent()
			c.fail()
			return zero, err
		}
		return item, nil
	}
}

func (c *concat[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if c.peeked != nil {
		return *c.peeked, nil
	}
	item, err := c.advance(ctx)
	if err != nil {
		return zero, err
	}
	c.peeked = &item
	return item, nil
}

func (c *concat[T]) Next(ctx context.Context) (T, error) {
	if c.peeked != nil {
		item := *c.peeked
		c.peeked = nil
		return item, nil
	}
	return c.advance(ctx)
}

// Progress is the fraction of suppliers fully consumed, averaged with
// the in-flight supplier's own progress - a direct, source-agnostic
// approximation since suppliers are opened lazily and total size is
// not generally known up front.
func (c *concat[T]) Progress() float64 {
	total := len(c.suppliers)
	if total == 0 {
		return 1
	}
	done := float64(c.next)
	if c.current != nil {
		done -= 1 - c.current.Progress()
	}
	return done / float64(total)
}

func (c *concat[T]) Close() error {
	return c.closeOnce.do(func() error {
		c.set(Closed)
		return perr.CombineClose(c.closeCurrent())
	})
}
