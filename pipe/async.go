package pipe

import "context"

// Listener receives push-based callbacks from an AsyncPipe. Next may
// be invoked concurrently by multiple worker goroutines and must
// block (applying backpressure) rather than drop items; Done and
// Error are each delivered at most once, after every in-flight Next
// call has returned, and never together. Implementations must be
// goroutine-safe.
type Listener[T any] interface {
	Next(item T) error
	Done()
	Error(err error)
}

// AsyncPipe is a push-based producer that drives items into a
// Listener from one or more internal goroutines, per §4.2.
type AsyncPipe[T any] interface {
	// SetListener installs l. Must be called before Start.
	SetListener(l Listener[T])

	// Start dispatches the producing goroutines and returns
	// immediately; items are delivered to the listener asynchronously.
	Start(ctx context.Context) error

	// Close unblocks any producer goroutines and guarantees no
	// further callbacks are delivered after it returns.
	Close() error
}

// ListenerFuncs adapts three plain functions into a Listener, for
// callers that don't want to declare a named type.
type ListenerFuncs[T any] struct {
	NextFunc  func(T) error
	DoneFunc  func()
	ErrorFunc func(error)
}

func (l ListenerFuncs[T]) Next(item T) error {
	if l.NextFunc == nil {
		return nil
	}
	return l.NextFunc(item)
}

func (l ListenerFuncs[T]) Done() {
	if l.DoneFunc != nil {
		l.DoneFunc()
	}
}

func (l ListenerFuncs[T]) Error(err error) {
	if l.ErrorFunc != nil {
		l.ErrorFunc(err)
	}
}
