package shard

import (
	"os"
	"path/filepath"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
)

// Config configures where and how shard files are written (§4.4.15).
type Config struct {
	// Dir is the folder shard files are written under; it must exist.
	Dir string
	// Compression applies uniformly to every shard file.
	Compression compressio.Kind
	// Naming maps a shard id to a filename under Dir. Nil uses the id
	// itself as the filename.
	Naming func(shardID string) string
}

func (c Config) filename(shardID string) string {
	if c.Naming != nil {
		return c.Naming(shardID)
	}
	return shardID
}

// shardWriter owns one open shard file: the raw *os.File, the
// (possibly compressing) stream wrapped around it, and the codec
// encoder writing items into that stream.
type shardWriter[T any] struct {
	file   *os.File
	stream interface {
		Write([]byte) (int, error)
		Close() error
	}
	enc codec.Encoder[T]
}

func openShardWriter[T any](cfg Config, shardID string, cdc codec.Codec[T]) (*shardWriter[T], error) {
	path := filepath.Join(cfg.Dir, cfg.filename(shardID))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := compressio.GetCompressionOutputStream(f, compressio.FileWriteOptions{Kind: cfg.Compression})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &shardWriter[T]{file: f, stream: w, enc: cdc.NewEncoder(w)}, nil
}

func (w *shardWriter[T]) write(item T) error {
	return w.enc.Encode(item)
}

func (w *shardWriter[T]) close() error {
	var err error
	if w.stream != nil {
		err = w.stream.Close()
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
