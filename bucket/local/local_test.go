package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pipecraft/pipecraft/bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())

	data := []byte("hello pipecraft")
	_, err := b.Put(ctx, "a/b/c.txt", bytes.NewReader(data), int64(len(data)), "text/plain", false, true)
	require.NoError(t, err)

	r, length, err := b.GetAsStream(ctx, "a/b/c.txt", 0)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(len(data)), length)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	exists, err := b.Exists(ctx, "a/b/c.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPutRejectsFolderKey(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	_, err := b.Put(ctx, "a/b/", bytes.NewReader(nil), 0, "", false, true)
	assert.Error(t, err)
}

func TestPutWithoutAllowOverrideFailsOnExistingKey(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	_, err := b.Put(ctx, "k", bytes.NewReader([]byte("1")), 1, "", false, true)
	require.NoError(t, err)
	_, err = b.Put(ctx, "k", bytes.NewReader([]byte("2")), 1, "", false, false)
	assert.Error(t, err)
}

func TestGetObjectMetadataNotFoundForMissingAndFolder(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	_, err := b.GetObjectMetadata(ctx, "missing")
	assert.ErrorIs(t, err, bucket.ErrNotFound)
	_, err = b.GetObjectMetadata(ctx, "a/")
	assert.ErrorIs(t, err, bucket.ErrNotFound)
}

func TestDeletePrunesEmptyVirtualFolder(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b := New(root)
	_, err := b.Put(ctx, "dir/only.txt", bytes.NewReader([]byte("x")), 1, "", false, true)
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, "dir/only.txt"))

	exists, err := b.Exists(ctx, "dir/only.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(filepath.Join(root, "dir"))
	assert.True(t, os.IsNotExist(err))
}

func TestListObjectsRecursiveAndNonRecursive(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	for _, k := range []string{"top.txt", "nested/one.txt", "nested/two.txt"} {
		_, err := b.Put(ctx, k, bytes.NewReader([]byte("x")), 1, "", false, true)
		require.NoError(t, err)
	}

	it, err := b.ListObjects(ctx, "", false)
	require.NoError(t, err)
	var flat []string
	for {
		m, err := it.Next(ctx)
		if err == bucket.ErrIteratorDone {
			break
		}
		require.NoError(t, err)
		flat = append(flat, m.Path)
	}
	assert.Equal(t, []string{"top.txt"}, flat)

	it, err = b.ListObjects(ctx, "", true)
	require.NoError(t, err)
	var all []string
	for {
		m, err := it.Next(ctx)
		if err == bucket.ErrIteratorDone {
			break
		}
		require.NoError(t, err)
		all = append(all, m.Path)
	}
	assert.ElementsMatch(t, []string{"top.txt", "nested/one.txt", "nested/two.txt"}, all)
}

func TestComposeConcatenatesInOrder(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())
	_, err := b.Put(ctx, "p1", bytes.NewReader([]byte("AB")), 2, "", false, true)
	require.NoError(t, err)
	_, err = b.Put(ctx, "p2", bytes.NewReader([]byte("CD")), 2, "", false, true)
	require.NoError(t, err)

	require.NoError(t, b.Compose(ctx, []string{"p1", "p2"}, "whole", true))

	r, _, err := b.GetAsStream(ctx, "whole", 0)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCD"), got)

	exists, err := b.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPutLockFileScenarioS8(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := b.PutLockFile(ctx, "lock")
			require.NoError(t, err)
			results[i] = created
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, boolCount(results, true))
	assert.Equal(t, 1, boolCount(results, false))

	exists, err := b.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.True(t, exists)
}

func boolCount(bs []bool, want bool) int {
	n := 0
	for _, b := range bs {
		if b == want {
			n++
		}
	}
	return n
}

func TestGetOutputStreamAtomicOnClose(t *testing.T) {
	ctx := context.Background()
	b := New(t.TempDir())

	w, err := b.GetOutputStream(ctx, "streamed", 0)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	exists, err := b.Exists(ctx, "streamed")
	require.NoError(t, err)
	assert.False(t, exists, "object must not be visible before Close")

	require.NoError(t, w.Close())
	exists, err = b.Exists(ctx, "streamed")
	require.NoError(t, err)
	assert.True(t, exists)
}
