package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pipecraft/pipecraft/pipe/perr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSucceedsWithoutRetry(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 4})
	calls := 0
	err := r.Call(context.Background(), func() (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, r.Invocations())
	assert.EqualValues(t, 0, r.FailedInvocations())
	assert.EqualValues(t, 1, r.TotalAttempts())
}

func TestCallRetriesTransientErrorsUpToMaxAttempts(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 3})
	calls := 0
	err := r.Call(context.Background(), func() (bool, error) {
		calls++
		return true, perr.IO(errors.New("boom"), "transient")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 1, r.FailedInvocations())
	assert.EqualValues(t, 3, r.TotalAttempts())
}

func TestCallSucceedsAfterTransientFailures(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 5})
	calls := 0
	err := r.Call(context.Background(), func() (bool, error) {
		calls++
		if calls < 3 {
			return true, perr.IO(errors.New("boom"), "transient")
		}
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 0, r.FailedInvocations())
	assert.EqualValues(t, 3, r.TotalAttempts())
}

func TestCallDoesNotRetryWhenFnReportsTerminal(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 5})
	calls := 0
	err := r.Call(context.Background(), func() (bool, error) {
		calls++
		return false, perr.Validation("caller error, never transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, r.FailedInvocations())
	assert.EqualValues(t, 1, r.TotalAttempts())
}

// TestCallLetsFnClassifyViaPerrIsRetryable exercises the idiom the
// teacher's own shouldRetry(ctx, err) helpers use - fn decides by
// delegating straight to perr's taxonomy rather than hand-rolling its
// own classification.
func TestCallLetsFnClassifyViaPerrIsRetryable(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 5})
	calls := 0
	err := r.Call(context.Background(), func() (bool, error) {
		calls++
		ioErr := perr.IO(errors.New("boom"), "transient")
		return perr.IsRetryable(ioErr), ioErr
	})
	require.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestCallRespectsContextCancellation(t *testing.T) {
	r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: 5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Call(ctx, func() (bool, error) {
		t.Fatal("fn should not run once context is already cancelled")
		return false, nil
	})
	require.Error(t, err)
	assert.True(t, perr.IsInterruption(err))
}

func TestCallNeverExceedsMaxAttempts(t *testing.T) {
	for _, max := range []int{1, 2, 4} {
		r := New(Config{InitialBackoff: time.Millisecond, Factor: 2, MaxAttempts: max})
		calls := 0
		_ = r.Call(context.Background(), func() (bool, error) {
			calls++
			return true, perr.IO(errors.New("boom"), "transient")
		})
		assert.Equal(t, max, calls)
	}
}
