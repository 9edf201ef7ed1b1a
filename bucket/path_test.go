package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	protocol, name, key, err := ParsePath("s3://my-bucket/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "s3", protocol)
	assert.Equal(t, "my-bucket", name)
	assert.Equal(t, "a/b/c.txt", key)
}

func TestParsePathBucketOnly(t *testing.T) {
	protocol, name, key, err := ParsePath("file://data")
	require.NoError(t, err)
	assert.Equal(t, "file", protocol)
	assert.Equal(t, "data", name)
	assert.Equal(t, "", key)
}

func TestParsePathRejectsMissingProtocol(t *testing.T) {
	_, _, _, err := ParsePath("not-a-path")
	assert.Error(t, err)
}

func TestJoinPathCollapsesAndElides(t *testing.T) {
	assert.Equal(t, "a/b/c", JoinPath("a", "", "b//", "/c"))
	assert.Equal(t, "a/b", JoinPath("/a/", "/b/"))
}

func TestAsFolderAppendsOnce(t *testing.T) {
	assert.Equal(t, "a/", AsFolder("a"))
	assert.Equal(t, "a/", AsFolder("a/"))
}

func TestIsFolder(t *testing.T) {
	assert.True(t, IsFolder("a/"))
	assert.False(t, IsFolder("a"))
	assert.False(t, IsFolder(""))
}
