package shard

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readShardLines(t *testing.T, dir, id string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, id))
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	var lines []string
	cur := ""
	for _, b := range data {
		if b == '\n' {
			lines = append(lines, cur)
			cur = ""
			continue
		}
		cur += string(b)
	}
	return lines
}

func TestByItemConservesMultisetAndCounts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	items := []string{"a1", "b1", "a2", "c1", "b2", "a3"}
	upstream := pipe.FromSlice(items)

	s := ByItem(upstream, codec.Text, func(x string) string { return x[:1] }, Config{Dir: dir})
	require.NoError(t, s.Start(ctx))
	result, err := s.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 3, "b": 2, "c": 1}, result)
	sum := 0
	for _, n := range result {
		sum += n
	}
	assert.Equal(t, len(items), sum)

	assert.Equal(t, []string{"a1", "a2", "a3"}, readShardLines(t, dir, "a"))
	assert.Equal(t, []string{"b1", "b2"}, readShardLines(t, dir, "b"))

	_, err = s.Next(ctx)
	assert.Equal(t, pipe.EOF, err)
	require.NoError(t, s.Close())
}

func TestByItemEmptyInput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := ByItem(pipe.FromSlice([]string{}), codec.Text, func(x string) string { return x }, Config{Dir: dir})
	require.NoError(t, s.Start(ctx))
	result, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestByHashProducesKShardsAndConservesCount(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	items := make([]string, 37)
	for i := range items {
		items[i] = strconv.Itoa(i)
	}
	upstream := pipe.FromSlice(items)
	s := ByHash(upstream, codec.Text, func(x string) string { return x }, 5, Config{Dir: dir})
	require.NoError(t, s.Start(ctx))
	result, err := s.Next(ctx)
	require.NoError(t, err)

	sum := 0
	for id, n := range result {
		idx, err := strconv.Atoi(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 5)
		sum += n
	}
	assert.Equal(t, len(items), sum)
}

func TestByContiguousRunOverwritesOnRevisit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// "a" appears in two non-adjacent runs; by-contiguous-run treats
	// each run independently and the second overwrites the first.
	items := []string{"a1", "a2", "b1", "a3"}
	upstream := pipe.FromSlice(items)
	s := ByContiguousRun(upstream, codec.Text, func(x string) string { return x[:1] }, Config{Dir: dir})
	require.NoError(t, s.Start(ctx))
	result, err := s.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 3, "b": 1}, result)
	// the file on disk reflects only the last run written for "a".
	assert.Equal(t, []string{"a3"}, readShardLines(t, dir, "a"))
	assert.Equal(t, []string{"b1"}, readShardLines(t, dir, "b"))
}
