package pipe

import (
	"context"
	"math/rand"
)

// portionSampler keeps each upstream item with independent probability
// p (§4.4.9 "Portion sampler"), preserving order. The RNG is
// injectable so tests get deterministic sampling (per SPEC_FULL.md's
// REDESIGN FLAGS note on isolating randomness behind an injectable
// source rather than thread-local state).
type portionSampler[T any] struct {
	state
	upstream  Pipe[T]
	p         float64
	rng       *rand.Rand
	peeked    *T
	closeOnce closeOnce
}

// PortionSampler returns a Pipe[T] that keeps each item of upstream
// independently with probability p, in order. rng may be nil, in
// which case the mutex-guarded process-wide source from rng.go,
// seeded from the current time at package init, is used.
func PortionSampler[T any](upstream Pipe[T], p float64, rng *rand.Rand) Pipe[T] {
	if rng == nil {
		rng = defaultRand()
	}
	return &portionSampler[T]{upstream: upstream, p: p, rng: rng}
}

func (s *portionSampler[T]) Start(ctx context.Context) error {
	if !s.transition(Created, Started) {
		return nil
	}
	return s.upstream.Start(ctx)
}

func (s *portionSampler[T]) advance(ctx context.Context) (T, error) {
	var zero T
	for {
		item, err := s.upstream.Next(ctx)
		if err != nil {
			if err == EOF {
				s.set(Exhausted)
			} else {
				s.fail()
			}
			return zero, err
		}
		if s.rng.Float64() < s.p {
			return item, nil
		}
	}
}

func (s *portionSampler[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if s.peeked != nil {
		return *s.peeked, nil
	}
	item, err := s.advance(ctx)
	if err != nil {
		return zero, err
	}
	s.peeked = &item
	return item, nil
}

func (s *portionSampler[T]) Next(ctx context.Context) (T, error) {
	if s.peeked != nil {
		item := *s.peeked
		s.peeked = nil
		return item, nil
	}
	return s.advance(ctx)
}

func (s *portionSampler[T]) Progress() float64 { return s.upstream.Progress() }

func (s *portionSampler[T]) Close() error {
	return s.closeOnce.do(func() error {
		s.set(Closed)
		return s.upstream.Close()
	})
}

// exactSampler selects exactly m items out of a declared population of
// n via sequential selection sampling (Algorithm S / Vitter), so every
// m-subset of the population is equiprobable, in O(n) time and O(1)
// extra space beyond the m retained items (§4.4.9 "Exact sampler").
type exactSampler[T any] struct {
	state
	upstream    Pipe[T]
	population  int // original n, kept for Progress
	remaining   int // population items not yet scanned
	toSelect    int // selections still owed
	rng         *rand.Rand
	peeked      *T
	closeOnce   closeOnce
}

// ExactSampler returns a Pipe[T] selecting exactly m items from
// upstream's declared population of n items, order preserved.
func ExactSampler[T any](upstream Pipe[T], m, n int, rng *rand.Rand) Pipe[T] {
	if rng == nil {
		rng = defaultRand()
	}
	return &exactSampler[T]{upstream: upstream, population: n, remaining: n, toSelect: m, rng: rng}
}

func (s *exactSampler[T]) Start(ctx context.Context) error {
	if !s.transition(Created, Started) {
		return nil
	}
	return s.upstream.Start(ctx)
}

func (s *exactSampler[T]) advance(ctx context.Context) (T, error) {
	var zero T
	for {
		if s.toSelect <= 0 || s.remaining <= 0 {
			return zero, EOF
		}
		item, err := s.upstream.Next(ctx)
		if err != nil {
			return zero, err
		}
		prob := float64(s.toSelect) / float64(s.remaining)
		s.remaining--
		if s.rng.Float64() < prob {
			s.toSelect--
			return item, nil
		}
	}
}

func (s *exactSampler[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if s.peeked != nil {
		return *s.peeked, nil
	}
	item, err := s.advance(ctx)
	if err != nil {
		if err == EOF {
			s.set(Exhausted)
		} else {
			s.fail()
		}
		return zero, err
	}
	s.peeked = &item
	return item, nil
}

func (s *exactSampler[T]) Next(ctx context.Context) (T, error) {
	if s.peeked != nil {
		item := *s.peeked
		s.peeked = nil
		return item, nil
	}
	item, err := s.advance(ctx)
	if err != nil {
		if err == EOF {
			s.set(Exhausted)
		} else {
			s.fail()
		}
		return item, err
	}
	return item, nil
}

func (s *exactSampler[T]) Progress() float64 {
	if s.population <= 0 {
		return 1
	}
	return 1 - float64(s.remaining)/float64(s.population)
}

func (s *exactSampler[T]) Close() error {
	return s.closeOnce.do(func() error {
		s.set(Closed)
		return s.upstream.Close()
	})
}
