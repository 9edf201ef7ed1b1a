package join

import (
	"context"
	"io"
	"os"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// partitionPipe drains src into p on-disk shards by keyHash(key) mod p,
// grounded on sort.External's spill-to-temp-file bookkeeping (§4.5)
// generalized from "one run file" to "p shard files written
// concurrently, one per partition index".
func partitionPipe[K comparable, V any](
	ctx context.Context,
	src pipe.Pipe[Pair[K, V]],
	cdc codec.Codec[Pair[K, V]],
	keyHash func(K) uint64,
	p int,
	dir, prefix string,
	compression compressio.Kind,
) ([]string, error) {
	files := make([]*os.File, p)
	streams := make([]interface {
		Write([]byte) (int, error)
		Close() error
	}, p)
	encs := make([]codec.Encoder[Pair[K, V]], p)
	paths := make([]string, p)

	closeAll := func() error {
		var errs []error
		for i := range streams {
			if streams[i] != nil {
				if err := streams[i].Close(); err != nil {
					errs = append(errs, err)
				}
			}
			if files[i] != nil {
				if err := files[i].Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return perr.CombineClose(errs...)
	}

	for i := 0; i < p; i++ {
		f, err := os.CreateTemp(dir, prefix+"-part-*")
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		files[i] = f
		paths[i] = f.Name()

		w, err := compressio.GetCompressionOutputStream(f, compressio.FileWriteOptions{Kind: compression})
		if err != nil {
			_ = closeAll()
			return nil, err
		}
		streams[i] = w
		encs[i] = cdc.NewEncoder(w)
	}

	if err := src.Start(ctx); err != nil {
		_ = closeAll()
		_ = src.Close()
		return nil, err
	}

	for {
		item, err := src.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			_ = closeAll()
			_ = src.Close()
			return nil, err
		}
		idx := int(keyHash(item.Key) % uint64(p))
		if err := encs[idx].Encode(item); err != nil {
			_ = closeAll()
			_ = src.Close()
			return nil, err
		}
	}

	shardErr := closeAll()
	srcErr := src.Close()
	if err := perr.CombineClose(shardErr, srcErr); err != nil {
		return nil, err
	}
	return paths, nil
}

// readPartition decodes every Pair written to path. Partitions are
// sized to fit comfortably in memory (the partition count P is the
// caller's memory-bound knob, per §4.4.14); only one partition's worth
// of decoded pairs is ever resident at a time.
func readPartition[K comparable, V any](path string, cdc codec.Codec[Pair[K, V]], compression compressio.Kind) ([]Pair[K, V], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := compressio.GetCompressionInputStream(f, compressio.FileReadOptions{Kind: compression})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	dec := cdc.NewDecoder(r)
	var pairs []Pair[K, V]
	for {
		item, err := dec.Decode()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		pairs = append(pairs, item)
	}
	return pairs, nil
}

func removePartitionFiles(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return perr.CombineClose(errs...)
}
