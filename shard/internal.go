// Package shard implements the three synchronous sharders, their async
// variant and the enqueuing sharder (§4.4.15-§4.4.16): operators that
// partition a pipe's items across k on-disk (or in-memory queue)
// destinations by a selector function, reporting a shardId -> count
// map once every item has been placed in exactly one shard.
package shard

import (
	"sync"
	"sync/atomic"

	"github.com/pipecraft/pipecraft/pipe"
)

// lifecycle/closeOnce duplicate pipe's private bookkeeping helpers;
// see sort/internal.go for why each package keeps its own copy rather
// than sharing one across package boundaries.
type lifecycle struct {
	v atomic.Int32
}

func (l *lifecycle) get() pipe.State { return pipe.State(l.v.Load()) }
func (l *lifecycle) set(s pipe.State) { l.v.Store(int32(s)) }
func (l *lifecycle) transition(from, to pipe.State) bool {
	return l.v.CompareAndSwap(int32(from), int32(to))
}

type closeOnce struct {
	once sync.Once
	err  error
}

func (c *closeOnce) do(fn func() error) error {
	c.once.Do(func() { c.err = fn() })
	return c.err
}
