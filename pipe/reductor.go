package pipe

import "context"

// reductor groups upstream items into families by a discriminator,
// accumulates one aggregator per family, and on exhaustion emits one
// post-processed result per family (§4.4.18). Ordering across
// families is unspecified; this implementation emits them in the
// order their family was first seen.
type reductor[I any, F comparable, G any, O any] struct {
	state
	upstream      Pipe[I]
	discriminator func(I) F
	newAggregator func(F) G
	aggregate     func(agg G, item I) G
	postProcess   func(G) O

	families  map[F]G
	order     []F
	results   []O
	idx       int
	drained   bool
	closeOnce closeOnce
}

// Reductor returns a Pipe[O] implementing the family/aggregator/
// post-processor reduction of §4.4.18. aggregate receives the current
// aggregator for an item's family and the item, and returns the
// updated aggregator (mutate-and-return for a pointer-shaped G,
// copy-and-return for a value-shaped G both work).
func Reductor[I any, F comparable, G any, O any](
	upstream Pipe[I],
	discriminator func(I) F,
	newAggregator func(F) G,
	aggregate func(agg G, item I) G,
	postProcess func(G) O,
) Pipe[O] {
	return &reductor[I, F, G, O]{
		upstream:      upstream,
		discriminator: discriminator,
		newAggregator: newAggregator,
		aggregate:     aggregate,
		postProcess:   postProcess,
		families:      make(map[F]G),
	}
}

func (r *reductor[I, F, G, O]) Start(ctx context.Context) error {
	if !r.transition(Created, Started) {
		return nil
	}
	return r.upstream.Start(ctx)
}

func (r *reductor[I, F, G, O]) drain(ctx context.Context) error {
	if r.drained {
		return nil
	}
	r.drained = true
	for {
		item, err := r.upstream.Next(ctx)
		if err == EOF {
			break
		}
		if err != nil {
			return err
		}
		f := r.discriminator(item)
		agg, ok := r.families[f]
		if !ok {
			agg = r.newAggregator(f)
			r.order = append(r.order, f)
		}
		r.families[f] = r.aggregate(agg, item)
	}
	r.results = make([]O, 0, len(r.order))
	for _, f := range r.order {
		r.results = append(r.results, r.postProcess(r.families[f]))
	}
	return nil
}

func (r *reductor[I, F, G, O]) Peek(ctx context.Context) (O, error) {
	var zero O
	if err := r.drain(ctx); err != nil {
		r.fail()
		return zero, err
	}
	if r.idx >= len(r.results) {
		r.set(Exhausted)
		return zero, EOF
	}
	return r.results[r.idx], nil
}

func (r *reductor[I, F, G, O]) Next(ctx context.Context) (O, error) {
	var zero O
	if err := r.drain(ctx); err != nil {
		r.fail()
		return zero, err
	}
	if r.idx >= len(r.results) {
		r.set(Exhausted)
		return zero, EOF
	}
	item := r.results[r.idx]
	r.idx++
	return item, nil
}

func (r *reductor[I, F, G, O]) Progress() float64 {
	if !r.drained {
		return r.upstream.Progress()
	}
	if len(r.results) == 0 {
		return 1
	}
	return float64(r.idx) / float64(len(r.results))
}

func (r *reductor[I, F, G, O]) Close() error {
	return r.closeOnce.do(func() error {
		r.set(Closed)
		return r.upstream.Close()
	})
}
