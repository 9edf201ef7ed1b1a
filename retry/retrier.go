// Package retry implements the adaptive-backoff retrier and bounded
// worker pool every pipe built on an unreliable remote depends on
// (SPEC_FULL.md §4.8), grounded on the teacher's pacer: its
// (minSleep/sleepTime, decayConstant/attackConstant, maxConnections)
// fields map onto this package's (initialBackoff/currentBackoff,
// factor, worker concurrency) rather than the token-bucket pacing the
// original pacer does, since retry here is per-call, not
// per-connection-stream.
package retry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/pipecraft/pipecraft/pipe/perr"
)

// Config parameterises a Retrier (§4.8): sleep before attempt k+1 is
// InitialBackoff * Factor^k, for k = 0, 1, ..., MaxAttempts-2.
type Config struct {
	InitialBackoff time.Duration
	Factor         float64
	MaxAttempts    int
}

// DefaultConfig matches the spec's convenience-constructor defaults
// (§9 REDESIGN FLAGS): 1000ms initial backoff, factor 2, 4 attempts.
func DefaultConfig() Config {
	return Config{InitialBackoff: time.Second, Factor: 2, MaxAttempts: 4}
}

// Retrier runs a failable task with exponential backoff, rethrowing
// immediately on ctx cancellation or whenever fn itself reports its
// error as non-retryable. It records invocations, ultimate failures
// and total attempts (invariant 19).
type Retrier struct {
	cfg Config

	invocations int64
	failures    int64
	attempts    int64
}

// New constructs a Retrier. A zero MaxAttempts or Factor falls back to
// DefaultConfig's corresponding field.
func New(cfg Config) *Retrier {
	d := DefaultConfig()
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = d.InitialBackoff
	}
	if cfg.Factor <= 0 {
		cfg.Factor = d.Factor
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	return &Retrier{cfg: cfg}
}

// Invocations returns the number of times Call has been invoked.
func (r *Retrier) Invocations() int64 { return atomic.LoadInt64(&r.invocations) }

// FailedInvocations returns the number of Call invocations that
// ultimately failed (exhausted attempts or hit a terminal error).
func (r *Retrier) FailedInvocations() int64 { return atomic.LoadInt64(&r.failures) }

// TotalAttempts returns the cumulative number of attempts across every
// Call invocation.
func (r *Retrier) TotalAttempts() int64 { return atomic.LoadInt64(&r.attempts) }

// Call runs fn, which reports for itself - exactly the way every
// teacher backend's shouldRetry(ctx, err) does, called through
// pacer.Call(srv.shouldRetry) - whether the error it just hit is worth
// retrying. The taxonomy's terminal/transient split (§7) is entirely
// fn's call: Call itself only enforces Config.MaxAttempts and the
// InitialBackoff*Factor^k backoff between attempts, and separately
// aborts on ctx cancellation (fn is never consulted about that).
func (r *Retrier) Call(ctx context.Context, fn func() (retry bool, err error)) error {
	atomic.AddInt64(&r.invocations, 1)

	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		atomic.AddInt64(&r.attempts, 1)

		if err := ctx.Err(); err != nil {
			atomic.AddInt64(&r.failures, 1)
			return perr.Interruption(err)
		}

		retry, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retry {
			atomic.AddInt64(&r.failures, 1)
			return err
		}

		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		sleep := time.Duration(float64(r.cfg.InitialBackoff) * math.Pow(r.cfg.Factor, float64(attempt)))
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			atomic.AddInt64(&r.failures, 1)
			return perr.Interruption(ctx.Err())
		case <-timer.C:
		}
	}
	atomic.AddInt64(&r.failures, 1)
	return lastErr
}
