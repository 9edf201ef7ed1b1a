package sort

import (
	"context"
	"os"
	"path/filepath"
	gosort "sort"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
	"github.com/pipecraft/pipecraft/pipe/perr"
)

// DefaultInMemoryLimit is used when Config.InMemoryLimit is zero.
const DefaultInMemoryLimit = 100000

// Config configures External's memory/temp-storage tradeoff (§4.4.11,
// §4.5).
type Config struct {
	// TempDir is the caller-supplied root under which run files are
	// spilled; it must already exist. Runs are removed on Close,
	// including after an error (§4.5).
	TempDir string
	// InMemoryLimit (L) is the number of items buffered before a run
	// is spilled to disk. Zero uses DefaultInMemoryLimit.
	InMemoryLimit int
	// Compression applies uniformly to every spilled run (§4.5).
	Compression compressio.Kind
	// UseSystemSort opts into accelerating the in-memory (no-spill)
	// case with the OS "sort" binary instead of the in-process
	// gosort.Slice call, when T is string, the build is running on
	// Linux, and "sort" is found on PATH (§9). It is silently
	// ignored - falling back to the in-process sort - whenever any
	// of those conditions don't hold, or once the input has spilled
	// to disk (the k-way merge always runs in-process). Because the
	// OS binary only ever does a byte-order (LC_ALL=C) sort and never
	// consults cmp, this is only correct when cmp *is* a plain
	// ascending/descending lexicographic string comparator; Reverse
	// tells the accelerated path which direction that comparator
	// actually sorts in.
	UseSystemSort bool
	// Reverse must match cmp's direction when UseSystemSort is set;
	// unused otherwise.
	Reverse bool
}

func (c Config) limit() int {
	if c.InMemoryLimit <= 0 {
		return DefaultInMemoryLimit
	}
	return c.InMemoryLimit
}

// External sorts upstream under cmp (§4.4.11). If upstream has fewer
// than Config.InMemoryLimit items it sorts in memory; otherwise it spills
// sorted runs of InMemoryLimit items each to Config.TempDir via cdc,
// then performs an in-process k-way merge on read-back. cmp need not
// be consistent with equality and stability is not guaranteed.
func External[T any](upstream pipe.Pipe[T], cdc codec.Codec[T], cmp pipe.Comparator[T], cfg Config) pipe.Pipe[T] {
	return &externalSort[T]{upstream: upstream, cdc: cdc, cmp: cmp, cfg: cfg}
}

type externalSort[T any] struct {
	lc lifecycle

	upstream pipe.Pipe[T]
	cdc      codec.Codec[T]
	cmp      pipe.Comparator[T]
	cfg      Config

	tempFiles []string
	inner     pipe.Pipe[T] // slicePipe (fits in memory) or *mergePipe (spilled)
	drained   bool

	closeOnce closeOnce
}

func (e *externalSort[T]) Start(ctx context.Context) error {
	if !e.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	return e.upstream.Start(ctx)
}

func (e *externalSort[T]) drain(ctx context.Context) error {
	if e.drained {
		return nil
	}
	e.drained = true

	limit := e.cfg.limit()
	buf := make([]T, 0, limit)
	for {
		item, err := e.upstream.Next(ctx)
		if err == pipe.EOF {
			break
		}
		if err != nil {
			return err
		}
		buf = append(buf, item)
		if len(buf) == limit {
			if err := e.spill(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}

	if len(e.tempFiles) == 0 {
		if sorted, ok, err := systemSortAttempt(ctx, e.cfg, buf); err != nil {
			return err
		} else if ok {
			buf = sorted
		} else {
			gosort.Slice(buf, func(i, j int) bool { return e.cmp(buf[i], buf[j]) < 0 })
		}
		e.inner = pipe.FromSlice(buf)
		return e.inner.Start(ctx)
	}

	if len(buf) > 0 {
		if err := e.spill(buf); err != nil {
			return err
		}
	}

	sources := make([]pipe.Pipe[T], len(e.tempFiles))
	for i, path := range e.tempFiles {
		sources[i] = newCodecSourcePipe(path, e.cdc, e.cfg.Compression)
	}
	merge := newMergePipe(sources, e.cmp, false, e.removeTempFiles)
	if err := merge.Start(ctx); err != nil {
		return err
	}
	e.inner = merge
	return nil
}

func (e *externalSort[T]) spill(buf []T) error {
	gosort.Slice(buf, func(i, j int) bool { return e.cmp(buf[i], buf[j]) < 0 })

	f, err := os.CreateTemp(e.cfg.TempDir, "pipecraft-sort-run-*")
	if err != nil {
		return err
	}
	path := f.Name()
	e.tempFiles = append(e.tempFiles, path)

	w, err := compressio.GetCompressionOutputStream(f, compressio.FileWriteOptions{Kind: e.cfg.Compression})
	if err != nil {
		_ = f.Close()
		return err
	}
	enc := e.cdc.NewEncoder(w)
	for _, item := range buf {
		if err := enc.Encode(item); err != nil {
			_ = w.Close()
			_ = f.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (e *externalSort[T]) removeTempFiles() error {
	var errs []error
	for _, path := range e.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return perr.CombineClose(errs...)
}

func (e *externalSort[T]) Peek(ctx context.Context) (T, error) {
	var zero T
	if err := e.drain(ctx); err != nil {
		e.lc.set(pipe.Failed)
		return zero, err
	}
	return e.inner.Peek(ctx)
}

func (e *externalSort[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := e.drain(ctx); err != nil {
		e.lc.set(pipe.Failed)
		return zero, err
	}
	return e.inner.Next(ctx)
}

func (e *externalSort[T]) Progress() float64 {
	if e.inner == nil {
		return e.upstream.Progress()
	}
	return e.inner.Progress()
}

func (e *externalSort[T]) Close() error {
	return e.closeOnce.do(func() error {
		e.lc.set(pipe.Closed)
		errs := []error{e.upstream.Close()}
		if e.inner != nil {
			errs = append(errs, e.inner.Close())
		} else {
			errs = append(errs, e.removeTempFiles())
		}
		return perr.CombineClose(errs...)
	})
}

// IsValidTempDir reports whether dir exists and is writable, a small
// guard callers can run before constructing Config so a bad TempDir
// fails fast instead of mid-spill.
func IsValidTempDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	probe := filepath.Join(dir, ".pipecraft-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return true
}
