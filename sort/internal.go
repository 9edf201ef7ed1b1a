// Package sort implements the external (on-disk) sort and the sorted
// merge/union/intersection family of §4.4.11-§4.4.13: operators over
// Pipe[T] whose working set can exceed memory, all built on codec's
// streaming encode/decode contract and the same heap-backed k-way
// merge core.
package sort

import (
	"sync"
	"sync/atomic"

	"github.com/pipecraft/pipecraft/pipe"
)

// lifecycle and closeOnce duplicate the bookkeeping pipe.state /
// pipe.closeOnce give operators in the pipe package, kept local here
// since those helpers aren't exported - each package that defines its
// own Pipe[T] implementations owns its own copy rather than sharing a
// base class, the same way the teacher's backends don't share a
// common Fs/Object base either.
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
