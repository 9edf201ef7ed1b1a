package bucket

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenURLResolvesFileProtocol(t *testing.T) {
	root := t.TempDir()
	b, key, err := openURL("file://" + root + "/sub/key.txt")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, strings.TrimPrefix(root, "/")+"/sub/key.txt", key)
}

func TestOpenURLRejectsUnknownProtocol(t *testing.T) {
	_, _, err := openURL("ftp://bucket/key")
	assert.Error(t, err)
}

func TestRunPutAndGetRoundTrip(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "in.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	allowOverride = true
	isPublic = false
	require.NoError(t, runPut("file://"+root+"/out/in.txt", src))

	dst := filepath.Join(srcDir, "out.txt")
	require.NoError(t, runGet("file://"+root+"/out/in.txt", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRunRmRemovesObject(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "in.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	allowOverride = true
	require.NoError(t, runPut("file://"+root+"/a.txt", src))
	require.NoError(t, runRm("file://"+root+"/a.txt"))

	b, key, err := openURL("file://" + root + "/a.txt")
	require.NoError(t, err)
	exists, err := b.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}
