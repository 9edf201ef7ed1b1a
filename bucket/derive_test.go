package bucket_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pipecraft/pipecraft/bucket"
	"github.com/pipecraft/pipecraft/bucket/local"
	"github.com/pipecraft/pipecraft/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutFileUsesSourceFileSize(t *testing.T) {
	ctx := context.Background()
	b := local.New(t.TempDir())

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "a.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("hello"), 0644))

	m, err := bucket.PutFile(ctx, b, srcPath, "dst/a.txt", "text/plain", false, true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.Length)
}

func TestPutUniquePublicGeneratesDistinctKeys(t *testing.T) {
	ctx := context.Background()
	b := local.New(t.TempDir())

	key1, _, err := bucket.PutUniquePublic(ctx, b, "uploads", "text/plain", bytes.NewReader([]byte("x")), 1)
	require.NoError(t, err)
	key2, _, err := bucket.PutUniquePublic(ctx, b, "uploads", "text/plain", bytes.NewReader([]byte("y")), 1)
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
	assert.Contains(t, key1, "uploads/")
}

func TestPutDoneFileWritesEmptyMarker(t *testing.T) {
	ctx := context.Background()
	b := local.New(t.TempDir())

	_, err := bucket.PutDoneFile(ctx, b, "job-output")
	require.NoError(t, err)

	exists, err := b.Exists(ctx, "job-output/_DONE")
	require.NoError(t, err)
	assert.True(t, exists)

	m, err := b.GetObjectMetadata(ctx, "job-output/_DONE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Length)
}

func TestPutAllInterruptiblyUploadsEveryFile(t *testing.T) {
	ctx := context.Background()
	b := local.New(t.TempDir())

	srcDir := t.TempDir()
	files := make(map[string]string)
	for _, name := range []string{"a", "b", "c"} {
		p := filepath.Join(srcDir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0644))
		files[p] = "out/" + name
	}

	err := bucket.PutAllInterruptibly(ctx, b, files, "text/plain", false, 2, retry.New(retry.DefaultConfig()))
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		exists, err := b.Exists(ctx, "out/"+name)
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestPutAllRecursiveInterruptiblyWalksDirectory(t *testing.T) {
	ctx := context.Background()
	b := local.New(t.TempDir())

	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "top.txt"), []byte("t"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "nested", "deep.txt"), []byte("d"), 0644))

	err := bucket.PutAllRecursiveInterruptibly(ctx, b, srcDir, "mirror", "text/plain", false, 2, nil)
	require.NoError(t, err)

	for _, key := range []string{"mirror/top.txt", "mirror/nested/deep.txt"} {
		exists, err := b.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, key)
	}
}
