package compressio

import (
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// FileReadOptions configures getCompressionInputStream.
type FileReadOptions struct {
	Kind Kind
}

// FileWriteOptions configures getCompressionOutputStream.
type FileWriteOptions struct {
	Kind Kind
	// Level is passed to gzip.NewWriterLevel; ignored for Zstd and None.
	// Zero means gzip.DefaultCompression.
	Level int
}

// nopWriteCloser adapts an io.Writer with no Close of its own (e.g. a
// bytes.Buffer) to io.WriteCloser, matching the shape every concrete
// branch below returns.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// GetCompressionInputStream wraps r in a decompressing io.ReadCloser
// per opt.Kind. Closing the returned stream releases the decoder but
// does not close r.
func GetCompressionInputStream(r io.Reader, opt FileReadOptions) (io.ReadCloser, error) {
	switch opt.Kind {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return gz, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, unknownKind(opt.Kind)
	}
}

// GetCompressionOutputStream wraps w in a compressing io.WriteCloser
// per opt.Kind. Callers must Close the returned stream to flush
// trailing compressed bytes; closing does not close w.
func GetCompressionOutputStream(w io.Writer, opt FileWriteOptions) (io.WriteCloser, error) {
	switch opt.Kind {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		level := opt.Level
		if level == 0 {
			level = gzip.DefaultCompression
		}
		gz, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, err
		}
		return gz, nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, unknownKind(opt.Kind)
	}
}

func unknownKind(k Kind) error {
	return &unknownKindError{k}
}

type unknownKindError struct{ k Kind }

func (e *unknownKindError) Error() string {
	return "compressio: unsupported kind " + e.k.String()
}
