// Package pipe implements the core lazy, composable, closeable producer
// and consumer abstraction that the rest of pipecraft is built around:
// the synchronous Pipe contract, its asynchronous push-based sibling,
// the bridges between them, and the intermediate operator algebra
// (filter, map, flat-map, concat, head/skip, callback, progress,
// count, sampler, top-K, percentile, reductor).
//
// Heavier operators that need on-disk storage - external sort, hash
// join, sharders - live in the sibling sort, shard and join packages,
// but are built on the same Pipe[T] contract defined here.
package pipe

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EOF is the terminator sentinel returned by Peek/Next once a pipe is
// exhausted. It is io.EOF itself rather than a distinct value so that
// pipes compose naturally with stdlib-shaped readers: callers already
// know how to treat io.EOF as "no more data, not an error".
var EOF = io.EOF

// Log is the package-wide logger used for diagnostic messages (the
// sync→async bridge logs a worker's close error at debug level).
// Replace it (e.g. in an init() or main()) to redirect
// pipecraft's internal logging.
var Log logrus.FieldLogger = logrus.StandardLogger()

// State is one of the five states a pipe's lifecycle moves through.
type State int32

const (
	Created State = iota
	Started
	Exhausted
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Started:
		return "started"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Pipe is a lazy producer of a finite sequence of items of type T.
//
// Start must be called exactly once before Peek/Next. Close is
// idempotent, safe to call from any goroutine, at any time, including
// before Start or after exhaustion. Progress is safe to call
// concurrently with iteration from any goroutine; every other method
// is only safe to call from a single goroutine at a time (the
// "owning" goroutine), matching the teacher's own single-threaded
// fs.Fs iteration model.
type Pipe[T any] interface {
	// Start performs one-shot initialisation (opening files, priming
	// the first item, spawning helper goroutines). It must not be
	// called more than once; on failure the pipe moves to Failed and
	// Close is still required.
	Start(ctx context.Context) error

	// Peek returns the next item without consuming it, or the zero
	// value of T and EOF once exhausted. It is idempotent between
	// calls to Next.
	Peek(ctx context.Context) (T, error)

	// Next returns the current item and advances, or the zero value
	// of T and EOF once exhausted. After EOF has been observed,
	// subsequent calls must keep returning EOF, never block and
	// never return any other error.
	Next(ctx context.Context) (T, error)

	// Progress returns a monotone value in [0,1], safe to call from
	// any goroutine concurrently with iteration.
	Progress() float64

	// Close releases every resource this pipe owns, including
	// upstream pipes. It is idempotent and safe from any goroutine.
	Close() error
}

// state is embedded by pipe implementations to provide the shared
// lifecycle bookkeeping (§4.1) without repeating it in every operator:
// composition over the teacher's old inheritance-based sharing, per
// SPEC_FULL.md's REDESIGN FLAGS.
type state struct {
	v atomic.Int32
}

func (s *state) get() State { return State(s.v.Load()) }

func (s *state) set(to State) { s.v.Store(int32(to)) }

// transition moves the state to `to` iff it is currently `from`,
// returning whether the transition happened.
func (s *state) transition(from, to State) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}

// fail unconditionally marks the pipe Failed, from any prior state.
func (s *state) fail() { s.set(Failed) }

// progress is a monotone, concurrently-readable [0,1] counter shared
// by every pipe that tracks its own completion fraction directly
// (sources with a known size; Count; Percentile; ...). Derived pipes
// that compute progress from upstreams (min/average/passthrough)
// don't need this and just implement Progress() themselves.
type progress struct {
	bits atomic.Uint64 // IEEE-754 bits of a float64 in [0,1]
}

func (p *progress) set(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.bits.Store(float64bits(v))
}

func (p *progress) get() float64 {
	return float64frombits(p.bits.Load())
}

// closeOnce makes Close idempotent regardless of how many goroutines
// call it concurrently; the underlying close function runs exactly
// once and its result is cached for every caller.
type closeOnce struct {
	once sync.Once
	err  error
}

func (c *closeOnce) do(fn func() error) error {
	c.once.Do(func() { c.err = fn() })
	return c.err
}
