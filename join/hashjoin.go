package join

import (
	"context"
	"os"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// Config configures HashJoin's on-disk partitioning (§4.4.14, §4.5).
type Config struct {
	// TempDir is the caller-supplied root under which a per-join
	// subdirectory of partition files is created; it must already
	// exist. That subdirectory is removed on Close, including after an
	// error; TempDir itself is left in place.
	TempDir string
	// Partitions (P) bounds peak memory: only one partition's build
	// map is resident at a time. Must be at least 1.
	Partitions int
	// Compression applies uniformly to every partition file.
	Compression compressio.Kind
}

func (c Config) partitions() int {
	if c.Partitions <= 0 {
		return 1
	}
	return c.Partitions
}

// HashJoin partitions left and every entry of rights into P on-disk
// shards by keyHash(key) mod P (using cdc), then for each partition
// builds a map from the left shard and probes it with each right
// shard in turn, per §4.4.14's four-step build/probe/filter/emit
// algorithm. Only mode's qualifying records are emitted, but the
// collection and filter stages are kept separate internally - the
// full joined set is materialized first via pipe.FromSlice, then
// pipe.Filter applies shouldOutput - mirroring the "collection reader
// and filter pipe" emission the spec calls for.
func HashJoin[K comparable, V any](
	left pipe.Pipe[Pair[K, V]],
	rights []pipe.Pipe[Pair[K, V]],
	cdc codec.Codec[Pair[K, V]],
	keyHash func(K) uint64,
	mode Mode,
	cfg Config,
) pipe.Pipe[JoinRecord[K, V]] {
	return &hashJoinPipe[K, V]{left: left, rights: rights, cdc: cdc, keyHash: keyHash, mode: mode, cfg: cfg}
}

type hashJoinPipe[K comparable, V any] struct {
	lc lifecycle

	left    pipe.Pipe[Pair[K, V]]
	rights  []pipe.Pipe[Pair[K, V]]
	cdc     codec.Codec[Pair[K, V]]
	keyHash func(K) uint64
	mode    Mode
	cfg     Config

	tempDir string
	inner   pipe.Pipe[JoinRecord[K, V]]
	built   bool

	closeOnce closeOnce
}

func (h *hashJoinPipe[K, V]) Start(ctx context.Context) error {
	if !h.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	return nil
}

func (h *hashJoinPipe[K, V]) build(ctx context.Context) error {
	if h.built {
		return nil
	}
	h.built = true

	dir, err := os.MkdirTemp(h.cfg.TempDir, "pipecraft-join-")
	if err != nil {
		return err
	}
	h.tempDir = dir

	p := h.cfg.partitions()

	leftFiles, err := partitionPipe[K, V](ctx, h.left, h.cdc, h.keyHash, p, dir, "left", h.cfg.Compression)
	if err != nil {
		return err
	}
	rightFiles := make([][]string, len(h.rights))
	for i, r := range h.rights {
		files, err := partitionPipe[K, V](ctx, r, h.cdc, h.keyHash, p, dir, "right", h.cfg.Compression)
		if err != nil {
			return err
		}
		rightFiles[i] = files
	}

	var records []JoinRecord[K, V]
	for part := 0; part < p; part++ {
		leftPairs, err := readPartition(leftFiles[part], h.cdc, h.cfg.Compression)
		if err != nil {
			return err
		}

		index := make(map[K]*JoinRecord[K, V])
		var order []K
		for _, pair := range leftPairs {
			rec, ok := index[pair.Key]
			if !ok {
				rec = newJoinRecord[K, V](pair.Key, len(h.rights))
				index[pair.Key] = rec
				order = append(order, pair.Key)
			}
			rec.LeftValues = append(rec.LeftValues, pair.Value)
		}

		for i := range h.rights {
			pairs, err := readPartition(rightFiles[i][part], h.cdc, h.cfg.Compression)
			if err != nil {
				return err
			}
			for _, pair := range pairs {
				rec, ok := index[pair.Key]
				if !ok {
					rec = newJoinRecord[K, V](pair.Key, len(h.rights))
					index[pair.Key] = rec
					order = append(order, pair.Key)
				}
				rec.RightValues[i] = append(rec.RightValues[i], pair.Value)
			}
		}

		for _, key := range order {
			records = append(records, *index[key])
		}

		toRemove := []string{leftFiles[part]}
		for i := range h.rights {
			toRemove = append(toRemove, rightFiles[i][part])
		}
		if err := removePartitionFiles(toRemove...); err != nil {
			return err
		}
	}

	mode := h.mode
	h.inner = pipe.Filter(pipe.FromSlice(records), func(rec JoinRecord[K, V]) bool {
		rightLens := make([]int, len(rec.RightValues))
		for i, rv := range rec.RightValues {
			rightLens[i] = len(rv)
		}
		return mode.shouldOutput(len(rec.LeftValues), rightLens)
	})
	return h.inner.Start(ctx)
}

func (h *hashJoinPipe[K, V]) Peek(ctx context.Context) (JoinRecord[K, V], error) {
	var zero JoinRecord[K, V]
	if err := h.build(ctx); err != nil {
		h.lc.set(pipe.Failed)
		return zero, err
	}
	return h.inner.Peek(ctx)
}

func (h *hashJoinPipe[K, V]) Next(ctx context.Context) (JoinRecord[K, V], error) {
	var zero JoinRecord[K, V]
	if err := h.build(ctx); err != nil {
		h.lc.set(pipe.Failed)
		return zero, err
	}
	return h.inner.Next(ctx)
}

func (h *hashJoinPipe[K, V]) Progress() float64 {
	if h.inner == nil {
		return 0
	}
	return h.inner.Progress()
}

func (h *hashJoinPipe[K, V]) Close() error {
	return h.closeOnce.do(func() error {
		h.lc.set(pipe.Closed)
		var errs []error
		if h.inner != nil {
			errs = append(errs, h.inner.Close())
		}
		// partitionPipe already closes h.left/h.rights once their build-time
		// drain completes (success or failure), but build() can fail before
		// every right has even been started, so close whatever is left here
		// too; closeOnce on the underlying pipes (where they have it) makes
		// this safe to call twice.
		if h.left != nil {
			errs = append(errs, h.left.Close())
		}
		for _, r := range h.rights {
			if r != nil {
				errs = append(errs, r.Close())
			}
		}
		if h.tempDir != "" {
			if err := os.RemoveAll(h.tempDir); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}
		return perr.CombineClose(errs...)
	})
}
