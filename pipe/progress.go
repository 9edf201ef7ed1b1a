package pipe

import "context"

// ProgressListener receives a strictly increasing integer percentage
// in [0,100].
type ProgressListener func(percent int)

// progressPipe wraps an upstream and, every batchSize items consumed,
// samples upstream.Progress() and reports it to listener as an integer
// percentage (§4.4.7). 0 is always reported at Start and 100 at
// exhaustion, even for empty input; reports are strictly monotone, so
// a sample that doesn't advance the percentage is silently dropped.
type progressPipe[T any] struct {
	state
	upstream  Pipe[T]
	batchSize int
	listener  ProgressListener

	count     int
	last      int
	reported0 bool
	closeOnce closeOnce
}

// Progress returns a pass-through Pipe[T] that reports upstream's
// completion percentage to listener every batchSize items (minimum 1).
func Progress[T any](upstream Pipe[T], batchSize int, listener ProgressListener) Pipe[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	return &progressPipe[T]{upstream: upstream, batchSize: batchSize, listener: listener}
}

func (p *progressPipe[T]) report(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	if percent <= p.last && p.reported0 {
		return
	}
	p.last = percent
	p.reported0 = true
	if p.listener != nil {
		p.listener(percent)
	}
}

func (p *progressPipe[T]) Start(ctx context.Context) error {
	if !p.transition(Created, Started) {
		return nil
	}
	if err := p.upstream.Start(ctx); err != nil {
		return err
	}
	p.report(0)
	return nil
}

func (p *progressPipe[T]) Peek(ctx context.Context) (T, error) {
	return p.upstream.Peek(ctx)
}

func (p *progressPipe[T]) Next(ctx context.Context) (T, error) {
	item, err := p.upstream.Next(ctx)
	if err == EOF {
		p.set(Exhausted)
		p.report(100)
		return item, err
	}
	if err != nil {
		p.fail()
		return item, err
	}
	p.count++
	if p.count%p.batchSize == 0 {
		p.report(int(p.upstream.Progress() * 100))
	}
	return item, nil
}

func (p *progressPipe[T]) Progress() float64 { return p.upstream.Progress() }

func (p *progressPipe[T]) Close() error {
	return p.closeOnce.do(func() error {
		p.set(Closed)
		return p.upstream.Close()
	})
}

// ProportionalMapper maps a raw [0,100] progress stream into a
// sub-range [from,to], optionally quantised to multiples of step
// (step <= 0 disables quantisation). Useful for composing several
// ProgressPipes that each own a slice of an overall job's percentage.
func ProportionalMapper(from, to, step int, listener ProgressListener) ProgressListener {
	span := to - from
	last := -1
	return func(percent int) {
		mapped := from + (percent*span)/100
		if step > 0 {
			mapped = (mapped / step) * step
		}
		if mapped == last {
			return
		}
		last = mapped
		listener(mapped)
	}
}

// asyncProgressListener wraps a Listener[T] to sample progress from an
// explicit counter rather than Progress() (async pipes don't expose a
// single upstream to poll), reporting every batchSize items and once
// more at Done (§4.4.7 async variant); Error is forwarded without a
// report.
type asyncProgressListener[T any] struct {
	inner     Listener[T]
	total     int64 // 0 means unknown; percentage then only moves at Done
	batchSize int
	count     int64
	onPercent ProgressListener
	last      int
}

// AsyncProgress wraps upstream so that its listener also drives
// onPercent with an integer percentage computed against total items
// (if known) or reports 0/100 only, at start/completion, when total is
// unknown.
func AsyncProgress[T any](upstream AsyncPipe[T], total int64, batchSize int, onPercent ProgressListener) AsyncPipe[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	return &asyncProgress[T]{upstream: upstream, total: total, batchSize: batchSize, onPercent: onPercent}
}

type asyncProgress[T any] struct {
	upstream  AsyncPipe[T]
	total     int64
	batchSize int
	onPercent ProgressListener
	apl       *asyncProgressListener[T]
}

func (a *asyncProgress[T]) SetListener(l Listener[T]) {
	a.apl = &asyncProgressListener[T]{inner: l, total: a.total, batchSize: a.batchSize, onPercent: a.onPercent, last: -1}
}

func (a *asyncProgress[T]) Start(ctx context.Context) error {
	a.upstream.SetListener(a.apl)
	if a.onPercent != nil {
		a.onPercent(0)
	}
	return a.upstream.Start(ctx)
}

func (a *asyncProgress[T]) Close() error { return a.upstream.Close() }

func (l *asyncProgressListener[T]) Next(item T) error {
	err := l.inner.Next(item)
	l.count++
	if l.total > 0 && l.count%int64(l.batchSize) == 0 && l.onPercent != nil {
		pct := int(float64(l.count) / float64(l.total) * 100)
		if pct > l.last {
			l.last = pct
			l.onPercent(pct)
		}
	}
	return err
}

func (l *asyncProgressListener[T]) Done() {
	if l.onPercent != nil && l.last < 100 {
		l.last = 100
		l.onPercent(100)
	}
	l.inner.Done()
}

func (l *asyncProgressListener[T]) Error(err error) {
	l.inner.Error(err)
}
