package pipe

import (
	"context"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// asyncToSync adapts an AsyncPipe[T] into a Pipe[T] by installing a
// listener that pushes onto a bounded channel of QueueItem[T] and
// draining that channel from Next/Peek.
//
// Unlike the teacher's own AsyncToSyncPipe (flagged in SPEC_FULL.md's
// design notes as polling peek() with 10ms latency), Peek here never
// polls: it does a single blocking channel receive and caches the
// result, so a pending value is observed as soon as it arrives and
// Peek only ever performs one extra receive per Next, not a sleep
// loop.
type asyncToSync[T any] struct {
	state
	progress

	upstream AsyncPipe[T]
	queue    chan QueueItem[T]

	pending    *QueueItem[T]
	exhausted  bool
	terminal   error // non-nil once Done()/Error() observed
	closeOnce  closeOnce
	cancel     context.CancelFunc
}

// queueDepth is the default bound on the sync<->async bridge channel.
const queueDepth = 64

// NewAsyncToSync wraps upstream as a Pipe[T]. The caller must not have
// called upstream.SetListener or upstream.Start already.
func NewAsyncToSync[T any](upstream AsyncPipe[T]) Pipe[T] {
	return &asyncToSync[T]{
		upstream: upstream,
		queue:    make(chan QueueItem[T], queueDepth),
	}
}

func (a *asyncToSync[T]) Start(ctx context.Context) error {
	if !a.transition(Created, Started) {
		return perr.Internal(nil, "asyncToSync.Start called more than once")
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.upstream.SetListener(ListenerFuncs[T]{
		NextFunc: func(item T) error {
			select {
			case a.queue <- ValueItem(item):
				return nil
			case <-ctx.Done():
				return perr.Interruption(ctx.Err())
			}
		},
		DoneFunc: func() {
			select {
			case a.queue <- EndItem[T]():
			case <-ctx.Done():
			}
		},
		ErrorFunc: func(err error) {
			select {
			case a.queue <- ErrorItem[T](err):
			case <-ctx.Done():
			}
		},
	})

	if err := a.upstream.Start(ctx); err != nil {
		a.fail()
		cancel()
		return err
	}
	return nil
}

// receive performs the single blocking channel read shared by Peek
// and Next, honoring cancellation.
func (a *asyncToSync[T]) receive(ctx context.Context) (QueueItem[T], error) {
	select {
	case qi := <-a.queue:
		return qi, nil
	case <-ctx.Done():
		return QueueItem[T]{}, perr.Interruption(ctx.Err())
	}
}

func (a *asyncToSync[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if a.exhausted {
		return zero, a.terminalErr()
	}
	if a.pending != nil {
		if v, ok := a.pending.IsValue(); ok {
			return v, nil
		}
	}
	qi, err := a.receive(ctx)
	if err != nil {
		return zero, err
	}
	a.pending = &qi
	if v, ok := qi.IsValue(); ok {
		return v, nil
	}
	a.settleTerminal(qi)
	return zero, a.terminalErr()
}

func (a *asyncToSync[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if a.exhausted {
		return zero, a.terminalErr()
	}
	var qi QueueItem[T]
	if a.pending != nil {
		qi = *a.pending
		a.pending = nil
	} else {
		var err error
		qi, err = a.receive(ctx)
		if err != nil {
			return zero, err
		}
	}
	if v, ok := qi.IsValue(); ok {
		return v, nil
	}
	a.settleTerminal(qi)
	return zero, a.terminalErr()
}

func (a *asyncToSync[T]) settleTerminal(qi QueueItem[T]) {
	a.exhausted = true
	a.progress.set(1)
	if err, ok := qi.IsError(); ok {
		a.terminal = err
		a.fail()
	} else {
		a.set(Exhausted)
	}
}

func (a *asyncToSync[T]) terminalErr() error {
	if a.terminal != nil {
		return a.terminal
	}
	return EOF
}

func (a *asyncToSync[T]) Progress() float64 { return a.progress.get() }

func (a *asyncToSync[T]) Close() error {
	return a.closeOnce.do(func() error {
		if a.cancel != nil {
			a.cancel()
		}
		a.set(Closed)
		return a.upstream.Close()
	})
}
