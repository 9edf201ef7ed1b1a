package sort

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestReadLinesSplitsOnNewlines(t *testing.T) {
	lines, err := readLines(bytes.NewBufferString("b\na\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, lines)
}

func TestRunSortsAndWritesToOutputFile(t *testing.T) {
	srcDir := t.TempDir()
	in := srcDir + "/in.txt"
	out := srcDir + "/out.txt"
	require.NoError(t, writeFile(in, "banana\napple\ncherry\n"))

	output = out
	tempDir = ""
	inMemoryLimit = 100000
	compression = "none"
	unique = false
	reverse = false

	require.NoError(t, run(in))

	assert.Equal(t, "apple\nbanana\ncherry\n", readFile(t, out))
}

func TestRunUniqueDropsAdjacentDuplicates(t *testing.T) {
	srcDir := t.TempDir()
	in := srcDir + "/in.txt"
	out := srcDir + "/out.txt"
	require.NoError(t, writeFile(in, "b\na\nb\na\n"))

	output = out
	tempDir = ""
	inMemoryLimit = 100000
	compression = "none"
	unique = true
	reverse = false

	require.NoError(t, run(in))

	assert.Equal(t, "a\nb\n", readFile(t, out))
}

func TestRunReverseSortsDescending(t *testing.T) {
	srcDir := t.TempDir()
	in := srcDir + "/in.txt"
	out := srcDir + "/out.txt"
	require.NoError(t, writeFile(in, "a\nc\nb\n"))

	output = out
	tempDir = ""
	inMemoryLimit = 100000
	compression = "none"
	unique = false
	reverse = true

	require.NoError(t, run(in))

	assert.Equal(t, "c\nb\na\n", readFile(t, out))
}

func TestRunSpillsToDiskAboveInMemoryLimit(t *testing.T) {
	srcDir := t.TempDir()
	in := srcDir + "/in.txt"
	out := srcDir + "/out.txt"
	require.NoError(t, writeFile(in, "d\nc\nb\na\n"))

	output = out
	tempDir = t.TempDir()
	inMemoryLimit = 1
	compression = "none"
	unique = false
	reverse = false

	require.NoError(t, run(in))

	assert.Equal(t, "a\nb\nc\nd\n", readFile(t, out))
}
