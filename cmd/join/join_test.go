package join

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRunOuterJoinTwoFiles(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.csv")
	right := filepath.Join(dir, "right.csv")
	out := filepath.Join(dir, "out.csv")
	writeCSV(t, left, "1,a\n2,b\n")
	writeCSV(t, right, "2,x\n3,y\n")

	output = out
	mode = "outer"
	partitions = 2
	tempDir = ""
	compression = "none"

	require.NoError(t, run(left, []string{right}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines, "1,a,")
	assert.Contains(t, lines, "2,b,x")
	assert.Contains(t, lines, "3,,y")
}

func TestRunLeftJoinDropsRightOnlyKeys(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.csv")
	right := filepath.Join(dir, "right.csv")
	out := filepath.Join(dir, "out.csv")
	writeCSV(t, left, "1,a\n2,b\n")
	writeCSV(t, right, "2,x\n3,y\n")

	output = out
	mode = "left"
	partitions = 1
	tempDir = ""
	compression = "none"

	require.NoError(t, run(left, []string{right}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.ElementsMatch(t, []string{"1,a,", "2,b,x"}, lines)
}

func TestParseModeRejectsUnknown(t *testing.T) {
	_, err := parseMode("bogus")
	assert.Error(t, err)
}

func TestReadPairsJoinsExtraColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	writeCSV(t, path, "k,v1,v2\n")

	pairs, err := readPairs(path)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "k", pairs[0].Key)
	assert.Equal(t, "v1,v2", pairs[0].Value)
}
