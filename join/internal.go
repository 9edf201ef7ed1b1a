package join

import (
	"sync"
	"sync/atomic"

	"github.com/pipecraft/pipecraft/pipe"
)

// lifecycle and closeOnce duplicate the bookkeeping pipe.state /
// pipe.closeOnce give operators in the pipe package, the same local
// copy sort and shard each keep rather than sharing an unexported base.
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
