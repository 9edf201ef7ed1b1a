package compressio

import (
	"io"
	"sync/atomic"
)

// CountingReader wraps an io.Reader and tracks how many bytes have
// been read through it. The count is kept atomically, so another
// goroutine (a progress poller) may call Count while reads are in
// flight.
type CountingReader struct {
	r     io.Reader
	count atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count.Add(int64(n))
	return n, err
}

// Count returns the number of bytes read so far.
func (c *CountingReader) Count() int64 { return c.count.Load() }

// CountingWriter is the write-side equivalent of CountingReader.
type CountingWriter struct {
	w     io.Writer
	count atomic.Int64
}

// NewCountingWriter wraps w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count.Add(int64(n))
	return n, err
}

// Count returns the number of bytes written so far.
func (c *CountingWriter) Count() int64 { return c.count.Load() }
