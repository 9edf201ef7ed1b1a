package pipe

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// syncToAsync adapts n independent Pipe[T] suppliers into a single
// AsyncPipe[T]: each supplier is driven by its own worker goroutine
// that pulls items and pushes them into the listener. Worker fan-out
// and first-error cancellation are built on golang.org/x/sync/errgroup,
// the teacher's own concurrency dependency for exactly this
// fixed-width, cancel-the-rest-on-first-error shape.
type syncToAsync[T any] struct {
	suppliers []func() (Pipe[T], error)
	listener  Listener[T]
	started   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSyncToAsync builds an AsyncPipe[T] that runs len(suppliers)
// workers concurrently, one per supplier. Each supplier is invoked
// lazily, from its own worker goroutine, once Start is called.
func NewSyncToAsync[T any](suppliers ...func() (Pipe[T], error)) AsyncPipe[T] {
	return &syncToAsync[T]{suppliers: suppliers, done: make(chan struct{})}
}

func (s *syncToAsync[T]) SetListener(l Listener[T]) { s.listener = l }

func (s *syncToAsync[T]) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return perr.Internal(nil, "syncToAsync.Start called more than once")
	}
	if s.listener == nil {
		return perr.Internal(nil, "syncToAsync.Start called without a listener")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	for _, supplier := range s.suppliers {
		supplier := supplier
		g.Go(func() error { return s.runWorker(gctx, supplier) })
	}

	go func() {
		err := g.Wait()
		if err != nil {
			s.listener.Error(err)
		} else {
			s.listener.Done()
		}
		close(s.done)
	}()
	return nil
}

func (s *syncToAsync[T]) runWorker(ctx context.Context, supplier func() (Pipe[T], error)) error {
	p, err := supplier()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			Log.WithError(cerr).Debug("pipe: syncToAsync worker close error")
		}
	}()

	if err := p.Start(ctx); err != nil {
		return err
	}
	for {
		item, err := p.Next(ctx)
		if err == EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.listener.Next(item); err != nil {
			return err
		}
	}
}

func (s *syncToAsync[T]) Close() error {
	if !s.started.Load() {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	return nil
}
