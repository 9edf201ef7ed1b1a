// Package httpsource reads newline-delimited text over HTTP(S) as a
// pipe.Pipe[string] (§4.7's "HTTP source" external interface), built
// on a *http.Client constructed the way the teacher's fs/fshttp
// configures connect/read timeouts through a custom *http.Transport
// rather than the zero-value client's no-timeout defaults.
package httpsource

import (
	"sync"
	"sync/atomic"

	"github.com/pipecraft/pipecraft/pipe"
)

// lifecycle and closeOnce duplicate pipe's private state bookkeeping,
// the same local copy every package defining its own Pipe[T] keeps.
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
