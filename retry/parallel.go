package retry

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// ParallelTaskProcessor runs a fixed-width pool of workers over a list
// of tasks, each task optionally wrapped with a Retrier, grounded on
// the same golang.org/x/sync/errgroup fan-out pipe/bridge_sync_to_async.go
// uses - first error cancels every in-flight task's context. Used by
// bucket's putAllInterruptibly/putAllRecursiveInterruptibly (§4.6).
type ParallelTaskProcessor struct {
	concurrency int
	retrier     *Retrier
}

// NewParallelTaskProcessor builds a processor with the given worker
// width. If retrier is non-nil, every task runs through
// retrier.Call instead of being invoked directly.
func NewParallelTaskProcessor(concurrency int, retrier *Retrier) *ParallelTaskProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ParallelTaskProcessor{concurrency: concurrency, retrier: retrier}
}

// Run executes every task, returning the first error encountered
// (every other in-flight task's context is cancelled at that point,
// but already-running tasks are not forcibly killed - they're expected
// to observe ctx.Done()). Run blocks until either every task has
// completed or one has failed and the rest have unwound.
func (p *ParallelTaskProcessor) Run(ctx context.Context, tasks []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.concurrency)

	for _, task := range tasks {
		task := task
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			if p.retrier != nil {
				return p.retrier.Call(gctx, func() (bool, error) {
					err := task(gctx)
					return err != nil && perr.IsRetryable(err), err
				})
			}
			return task(gctx)
		})
	}
	return g.Wait()
}
