package shard

import (
	"context"

	"github.com/pipecraft/pipecraft/pipe"
)

// EnqueuingSharder sends each item of an async input to one of k
// bounded blocking queues by a selector, per §4.4.16. After the
// producer finishes, a success sentinel is placed on every queue; on
// error, an error sentinel is placed on every queue first so consumers
// blocked reading from any of them are released, then the error is
// re-raised to the caller of Start/StartAsync.
type EnqueuingSharder[T any] struct {
	async    pipe.AsyncPipe[T]
	selector func(T) int
	queues   []chan pipe.QueueItem[T]
}

// NewEnqueuingSharder builds a sharder with k bounded queues of
// queueSize capacity each, dispatched by selector (which must return
// an index in [0,k)).
func NewEnqueuingSharder[T any](async pipe.AsyncPipe[T], k int, selector func(T) int, queueSize int) *EnqueuingSharder[T] {
	queues := make([]chan pipe.QueueItem[T], k)
	for i := range queues {
		queues[i] = make(chan pipe.QueueItem[T], queueSize)
	}
	return &EnqueuingSharder[T]{async: async, selector: selector, queues: queues}
}

// Queues returns the k destination queues. Consumers should begin
// draining them before or concurrently with Start/StartAsync.
func (e *EnqueuingSharder[T]) Queues() []chan pipe.QueueItem[T] { return e.queues }

// Start dispatches items synchronously, blocking the calling goroutine
// until the producer finishes or fails. Consumers must be draining the
// queues from other goroutines, or the bounded queues will block
// indefinitely - the same caller-thread coupling §5 calls out for
// async->sync bridges.
func (e *EnqueuingSharder[T]) Start(ctx context.Context) error {
	done, err := e.start(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// StartAsync is the deadlock-avoiding variant: it returns immediately
// with a future-like channel, for a caller that plans to drain
// Queues() on the current goroutine.
func (e *EnqueuingSharder[T]) StartAsync(ctx context.Context) (<-chan error, error) {
	return e.start(ctx)
}

func (e *EnqueuingSharder[T]) start(ctx context.Context) (<-chan error, error) {
	listener := &enqueueListener[T]{e: e, done: make(chan error, 1)}
	e.async.SetListener(listener)
	if err := e.async.Start(ctx); err != nil {
		return nil, err
	}
	return listener.done, nil
}

type enqueueListener[T any] struct {
	e    *EnqueuingSharder[T]
	done chan error
}

func (l *enqueueListener[T]) Next(item T) error {
	idx := l.e.selector(item)
	l.e.queues[idx] <- pipe.ValueItem(item)
	return nil
}

func (l *enqueueListener[T]) Done() {
	for _, q := range l.e.queues {
		q <- pipe.EndItem[T]()
	}
	l.done <- nil
}

func (l *enqueueListener[T]) Error(err error) {
	for _, q := range l.e.queues {
		q <- pipe.ErrorItem[T](err)
	}
	l.done <- err
}
