package shard

import (
	"context"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
)

// ByContiguousRun shards upstream assuming items are already grouped
// by shard id: it keeps only one encoder open at a time, opening the
// next shard's file when the selector's output changes (§4.4.15 "By
// contiguous run"). Only one encoder is open at a time, however many
// distinct shard ids there are; the returned count map still holds one
// entry per distinct id. Revisiting a previously seen shard id
// overwrites that shard's file (documented behaviour, since
// openShardWriter always truncates via os.Create).
func ByContiguousRun[T any](upstream pipe.Pipe[T], cdc codec.Codec[T], f func(T) string, cfg Config) pipe.Pipe[map[string]int] {
	return &byRun[T]{upstream: upstream, cdc: cdc, f: f, cfg: cfg}
}

type byRun[T any] struct {
	lc    lifecycle
	close closeOnce

	upstream pipe.Pipe[T]
	cdc      codec.Codec[T]
	f        func(T) string
	cfg      Config

	counts  map[string]int
	result  map[string]int
	emitted bool
}

func (b *byRun[T]) Start(ctx context.Context) error {
	if !b.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	return b.upstream.Start(ctx)
}

func (b *byRun[T]) drain(ctx context.Context) error {
	if b.result != nil {
		return nil
	}
	b.counts = make(map[string]int)

	var current *shardWriter[T]
	var currentID string
	haveCurrent := false

	closeCurrent := func() error {
		if !haveCurrent {
			return nil
		}
		haveCurrent = false
		return current.close()
	}

	for {
		item, err := b.upstream.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			_ = closeCurrent()
			return err
		}
		id := b.f(item)
		if !haveCurrent || id != currentID {
			if err := closeCurrent(); err != nil {
				return err
			}
			w, err := openShardWriter(b.cfg, id, b.cdc)
			if err != nil {
				return err
			}
			current = w
			currentID = id
			haveCurrent = true
		}
		if err := current.write(item); err != nil {
			_ = closeCurrent()
			return err
		}
		b.counts[id]++
	}
	if err := closeCurrent(); err != nil {
		return err
	}
	b.result = b.counts
	return nil
}

func (b *byRun[T]) Peek(ctx context.Context) (map[string]int, error) {
	if err := b.drain(ctx); err != nil {
		b.lc.set(pipe.Failed)
		return nil, err
	}
	if b.emitted {
		return nil, pipe.EOF
	}
	return b.result, nil
}

func (b *byRun[T]) Next(ctx context.Context) (map[string]int, error) {
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

func (b *byRun[T]) Progress() float64 {
	if b.result == nil {
		return 0
	}
	return 1
}

func (b *byRun[T]) Close() error {
	return b.close.do(func() error {
		b.lc.set(pipe.Closed)
		return b.upstream.Close()
	})
}
