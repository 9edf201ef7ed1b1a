package shard

import (
	"context"
	"sync"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// RunAsync drives async to completion, dispatching each pushed item to
// a per-shard encoder kept in a concurrent map; writes to the same
// shard are serialised with a shard-local lock so concurrent producer
// goroutines can write to distinct shards in parallel (§4.4.15 "An
// async sharder variant..."). It blocks until async reports Done or
// Error, then closes every shard encoder and returns the final
// shardId -> count map.
func RunAsync[T any](ctx context.Context, async pipe.AsyncPipe[T], cdc codec.Codec[T], f func(T) string, cfg Config) (map[string]int, error) {
	s := &asyncSharder[T]{
		cdc:     cdc,
		f:       f,
		cfg:     cfg,
		writers: make(map[string]*lockedWriter[T]),
		done:    make(chan error, 1),
	}
	async.SetListener(s)
	if err := async.Start(ctx); err != nil {
		return nil, err
	}
	runErr := <-s.done
	closeErr := s.closeAll()
	if runErr != nil {
		return nil, runErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return s.counts(), nil
}

type lockedWriter[T any] struct {
	mu sync.Mutex
	w  *shardWriter[T]
	n  int
}

type asyncSharder[T any] struct {
	mapMu   sync.Mutex
	writers map[string]*lockedWriter[T]

	cdc codec.Codec[T]
	f   func(T) string
	cfg Config

	done chan error
}

func (s *asyncSharder[T]) getWriter(id string) (*lockedWriter[T], error) {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	lw, ok := s.writers[id]
	if ok {
		return lw, nil
	}
	w, err := openShardWriter(s.cfg, id, s.cdc)
	if err != nil {
		return nil, err
	}
	lw = &lockedWriter[T]{w: w}
	s.writers[id] = lw
	return lw, nil
}

func (s *asyncSharder[T]) Next(item T) error {
	id := s.f(item)
	lw, err := s.getWriter(id)
	if err != nil {
		return err
	}
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if err := lw.w.write(item); err != nil {
		return err
	}
	lw.n++
	return nil
}

func (s *asyncSharder[T]) Done()            { s.done <- nil }
func (s *asyncSharder[T]) Error(err error) { s.done <- err }

func (s *asyncSharder[T]) closeAll() error {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	errs := make([]error, 0, len(s.writers))
	for _, lw := range s.writers {
		errs = append(errs, lw.w.close())
	}
	return perr.CombineClose(errs...)
}

func (s *asyncSharder[T]) counts() map[string]int {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	out := make(map[string]int, len(s.writers))
	for id, lw := range s.writers {
		out[id] = lw.n
	}
	return out
}
