package compressio

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, kind Kind) {
	t.Helper()
	var buf bytes.Buffer
	w, err := GetCompressionOutputStream(&buf, FileWriteOptions{Kind: kind})
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello compressio")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := GetCompressionInputStream(&buf, FileReadOptions{Kind: kind})
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello compressio", string(got))
}

func TestNoneRoundTrip(t *testing.T) { roundTrip(t, None) }
func TestGzipRoundTrip(t *testing.T) { roundTrip(t, Gzip) }
func TestZstdRoundTrip(t *testing.T) { roundTrip(t, Zstd) }

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": None, "none": None, "gzip": Gzip, "gz": Gzip, "zstd": Zstd, "zst": Zstd} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("bzip2")
	assert.Error(t, err)
}

func TestVarint32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	values := []uint32{0, 1, 127, 128, 300, 1 << 20, ^uint32(0)}
	for _, v := range values {
		require.NoError(t, WriteVarint32(&buf, v))
	}
	for _, want := range values {
		got, err := ReadVarint32(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "hello"))
	require.NoError(t, WriteString(&buf, ""))
	require.NoError(t, WriteString(&buf, "unicode: éè"))

	for _, want := range []string{"hello", "", "unicode: éè"} {
		got, err := ReadString(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFixedWidthIntRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PutUint32LE(&buf, 0xdeadbeef))
	require.NoError(t, PutUint64LE(&buf, 0x0102030405060708))
	require.NoError(t, PutUint16LE(&buf, 0xabcd))

	v32, err := GetUint32LE(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v32)

	v64, err := GetUint64LE(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v64)

	v16, err := GetUint16LE(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xabcd), v16)
}

func TestCountingReaderWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCountingWriter(&buf)
	_, err := cw.Write([]byte("12345"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, cw.Count())

	cr := NewCountingReader(bytes.NewReader(buf.Bytes()))
	out, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(out))
	assert.EqualValues(t, 5, cr.Count())
}

func TestSampleLinesReturnsAllWhenFewerThanK(t *testing.T) {
	r := strings.NewReader("a\nb\nc\n")
	rng := rand.New(rand.NewSource(1))
	got, err := SampleLines(r, 10, rng)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
}

func TestSampleLinesReturnsExactlyK(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("line\n")
	}
	rng := rand.New(rand.NewSource(7))
	got, err := SampleLines(strings.NewReader(sb.String()), 25, rng)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}
