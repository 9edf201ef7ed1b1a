package shard

import (
	"context"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// ByItem shards upstream by a user function f: T -> shardId, one open
// encoder per distinct shard id seen, preserving per-shard order
// (§4.4.15 "By item"). Like Count/Reductor, it drains upstream
// entirely and then emits a single item: the final shardId -> count
// map (invariant 13: the map's values sum to the input count).
func ByItem[T any](upstream pipe.Pipe[T], cdc codec.Codec[T], f func(T) string, cfg Config) pipe.Pipe[map[string]int] {
	return &byItem[T]{upstream: upstream, cdc: cdc, f: f, cfg: cfg}
}

type byItem[T any] struct {
	lc lifecycle
	close closeOnce

	upstream pipe.Pipe[T]
	cdc      codec.Codec[T]
	f        func(T) string
	cfg      Config

	writers map[string]*shardWriter[T]
	counts  map[string]int
	result  map[string]int
	emitted bool
}

func (b *byItem[T]) Start(ctx context.Context) error {
	if !b.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	return b.upstream.Start(ctx)
}

func (b *byItem[T]) drain(ctx context.Context) error {
	if b.result != nil {
		return nil
	}
	b.writers = make(map[string]*shardWriter[T])
	b.counts = make(map[string]int)

	for {
		item, err := b.upstream.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			b.closeWriters()
			return err
		}
		id := b.f(item)
		w, ok := b.writers[id]
		if !ok {
			w, err = openShardWriter(b.cfg, id, b.cdc)
			if err != nil {
				b.closeWriters()
				return err
			}
			b.writers[id] = w
		}
		if err := w.write(item); err != nil {
			b.closeWriters()
			return err
		}
		b.counts[id]++
	}
	if err := b.closeWriters(); err != nil {
		return err
	}
	b.result = b.counts
	return nil
}

// closeWriters closes every open shard encoder, suppressing errors
// after the first (§4.4.15 "On close(), all encoders are closed;
// errors suppressed after the first").
func (b *byItem[T]) closeWriters() error {
	errs := make([]error, 0, len(b.writers))
	for _, w := range b.writers {
		errs = append(errs, w.close())
	}
	b.writers = nil
	return perr.CombineClose(errs...)
}

func (b *byItem[T]) Peek(ctx context.Context) (map[string]int, error) {
	if err := b.drain(ctx); err != nil {
		b.lc.set(pipe.Failed)
		return nil, err
	}
	if b.emitted {
		return nil, pipe.EOF
	}
	return b.result, nil
}

func (b *byItem[T]) Next(ctx context.Context) (map[string]int, error) {
	if err := b.drain(ctx); err != nil {
		b.lc.set(pipe.Failed)
		return nil, err
	}
	if b.emitted {
		return nil, pipe.EOF
	}
	b.emitted = true
	b.lc.set(pipe.Exhausted)
	return b.result, nil
}

func (b *byItem[T]) Progress() float64 {
	if b.result == nil {
		return 0
	}
	return 1
}

func (b *byItem[T]) Close() error {
	return b.close.do(func() error {
		b.lc.set(pipe.Closed)
		return b.upstream.Close()
	})
}
