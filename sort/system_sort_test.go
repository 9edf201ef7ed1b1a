package sort

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSystemSort(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("system sort acceleration is Linux-only")
	}
	if _, err := exec.LookPath("sort"); err != nil {
		t.Skip("sort binary not on PATH")
	}
}

func TestTrySystemSortOrdersLinesAscending(t *testing.T) {
	requireSystemSort(t)
	out, ok, err := trySystemSort(context.Background(), []string{"c", "a", "b"}, false, t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestTrySystemSortReverse(t *testing.T) {
	requireSystemSort(t)
	out, ok, err := trySystemSort(context.Background(), []string{"c", "a", "b"}, true, t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"c", "b", "a"}, out)
}

func TestTrySystemSortSkipsNonStringT(t *testing.T) {
	_, ok, err := trySystemSort(context.Background(), []int{3, 1, 2}, false, t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok, "system sort must only engage for T=string")
}

func TestExternalSortUsesSystemSortWhenFitsInMemory(t *testing.T) {
	requireSystemSort(t)
	ctx := context.Background()
	tmp := t.TempDir()
	src := pipe.FromSlice([]string{"c", "a", "b"})
	s := External(src, codec.Text, stringCmp, Config{TempDir: tmp, InMemoryLimit: 100, UseSystemSort: true})
	require.NoError(t, s.Start(ctx))
	out := drain(t, ctx, s)
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestExternalSortUseSystemSortIgnoredWhenSpilled(t *testing.T) {
	requireSystemSort(t)
	ctx := context.Background()
	tmp := t.TempDir()
	src := pipe.FromSlice([]string{"i", "a", "c", "d", "b", "a", "h", "b"})
	s := External(src, codec.Text, stringCmp, Config{TempDir: tmp, InMemoryLimit: 3, UseSystemSort: true})
	require.NoError(t, s.Start(ctx))
	out := drain(t, ctx, s)
	assert.Equal(t, []string{"a", "a", "b", "b", "c", "d", "h", "i"}, out)
}
