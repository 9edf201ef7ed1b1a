package sort

import (
	"context"
	"io"
	"os"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
)

// codecSourcePipe streams a previously spilled run file back through
// cdc's Decoder - the read side of External sort's run bookkeeping
// (§4.5). It does not delete the file on Close; External owns that.
type codecSourcePipe[T any] struct {
	lc lifecycle

	path string
	cdc  codec.Codec[T]
	kind compressio.Kind

	file       *os.File
	decoderCls io.Closer
	dec        codec.Decoder[T]

	pending    T
	pendingErr error
	primed     bool

	closeOnce closeOnce
}

func newCodecSourcePipe[T any](path string, cdc codec.Codec[T], kind compressio.Kind) *codecSourcePipe[T] {
	return &codecSourcePipe[T]{path: path, cdc: cdc, kind: kind}
}

func (c *codecSourcePipe[T]) Start(ctx context.Context) error {
	if !c.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	f, err := os.Open(c.path)
	if err != nil {
		c.lc.set(pipe.Failed)
		return err
	}
	r, err := compressio.GetCompressionInputStream(f, compressio.FileReadOptions{Kind: c.kind})
	if err != nil {
		_ = f.Close()
		c.lc.set(pipe.Failed)
		return err
	}
	c.file = f
	c.decoderCls = r
	c.dec = c.cdc.NewDecoder(r)
	return nil
}

func (c *codecSourcePipe[T]) prime() {
	if c.primed {
		return
	}
	c.pending, c.pendingErr = c.dec.Decode()
	c.primed = true
}

func (c *codecSourcePipe[T]) Peek(ctx context.Context) (T, error) {
	c.prime()
	var zero T
	if c.pendingErr == io.EOF {
		c.lc.set(pipe.Exhausted)
		return zero, pipe.EOF
	}
	if c.pendingErr != nil {
		c.lc.set(pipe.Failed)
		return zero, c.pendingErr
	}
	return c.pending, nil
}

func (c *codecSourcePipe[T]) Next(ctx context.Context) (T, error) {
	item, err := c.Peek(ctx)
	if err == nil {
		c.primed = false
	}
	return item, err
}

func (c *codecSourcePipe[T]) Progress() float64 {
	if c.lc.get() == pipe.Exhausted {
		return 1
	}
	return 0
}

func (c *codecSourcePipe[T]) Close() error {
	return c.closeOnce.do(func() error {
		c.lc.set(pipe.Closed)
		var err error
		if c.decoderCls != nil {
			err = c.decoderCls.Close()
		}
		if c.file != nil {
			if cerr := c.file.Close(); err == nil {
				err = cerr
			}
		}
		return err
	})
}
