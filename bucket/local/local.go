// Package local is the reference Bucket implementation (§4.6): a
// filesystem directory tree playing the role of an object-store
// namespace, grounded directly on the teacher's own
// backend/local/local.go (virtual-folder semantics over a plain
// directory, os.MkdirAll for transparent parent creation, os.Rename
// for atomic visibility).
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pipecraft/pipecraft/bucket"
	"github.com/sirupsen/logrus"
)

// Bucket is a bucket.Bucket backed by a root directory on the local
// filesystem. Keys map to paths under Root the way rclone's local
// backend maps a remote path onto an os-native one.
type Bucket struct {
	Root string
	Log  logrus.FieldLogger
}

// New returns a local Bucket rooted at root, which must already exist.
func New(root string) *Bucket {
	return &Bucket{Root: root, Log: logrus.StandardLogger()}
}

func (b *Bucket) path(key string) string {
	return filepath.Join(b.Root, filepath.FromSlash(key))
}

// Put writes atomically via the same trick backend/local's Move uses
// for cross-directory moves: write to a sibling temp file, then
// os.Rename it into place - rename is atomic on a POSIX filesystem, so
// no reader ever observes a partially written file (§4.6, invariant 17).
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader, length int64, contentType string, isPublic, allowOverride bool) (bucket.Metadata, error) {
	var zero bucket.Metadata
	if bucket.IsFolder(key) {
		return zero, &os.PathError{Op: "put", Path: key, Err: os.ErrInvalid}
	}
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return zero, err
	}
	if !allowOverride {
		if _, err := os.Stat(dst); err == nil {
			return zero, os.ErrExist
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".pipecraft-put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zero, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return zero, err
	}

	return b.GetObjectMetadata(ctx, key)
}

// Get copies key's full content to targetPath.
func (b *Bucket) Get(ctx context.Context, key string, targetPath string) error {
	src, err := os.Open(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return bucket.ErrNotFound
		}
		return err
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// GetAsStream opens key for streaming read, reporting its size.
func (b *Bucket) GetAsStream(ctx context.Context, key string, chunkSize int) (io.ReadCloser, int64, error) {
	f, err := os.Open(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, bucket.ErrNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Delete removes key; a missing key is not an error (§4.6).
func (b *Bucket) Delete(ctx context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	b.pruneEmptyParents(filepath.Dir(b.path(key)))
	return nil
}

// pruneEmptyParents removes now-empty virtual-folder directories up to
// Root, so a deleted last file's folder also disappears from listings
// (§4.6's folder semantics).
func (b *Bucket) pruneEmptyParents(dir string) {
	root := filepath.Clean(b.Root)
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// CopyToAnotherBucket copies fromKey here to toKey in dst. It always
// streams the bytes through this process via GetAsStream/Put, whatever
// dst's concrete type; there is no direct file-to-file copy path.
func (b *Bucket) CopyToAnotherBucket(ctx context.Context, fromKey string, dst bucket.Bucket, toKey string) error {
	r, length, err := b.GetAsStream(ctx, fromKey, 0)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = dst.Put(ctx, toKey, r, length, "", false, true)
	return err
}

// Exists reports whether key names a regular file.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	if bucket.IsFolder(key) {
		return false, nil
	}
	info, err := os.Stat(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// GetObjectMetadata fails with bucket.ErrNotFound for a missing key or
// a folder (§4.6).
func (b *Bucket) GetObjectMetadata(ctx context.Context, key string) (bucket.Metadata, error) {
	var zero bucket.Metadata
	if bucket.IsFolder(key) {
		return zero, bucket.ErrNotFound
	}
	info, err := os.Stat(b.path(key))
	if err != nil || info.IsDir() {
		return zero, bucket.ErrNotFound
	}
	return bucket.Metadata{Path: key, Length: info.Size(), LastModified: info.ModTime()}, nil
}

// ListObjects walks folderPath eagerly: the whole listing is read and
// sorted by key before the iterator is returned, so the iteration
// itself is not lazy. A missing folder yields an empty iterator, not
// an error (§4.6).
func (b *Bucket) ListObjects(ctx context.Context, folderPath string, recursive bool) (bucket.ObjectIterator, error) {
	root := b.path(folderPath)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return &sliceIterator{}, nil
	}

	var keys []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var walkDir func(dir, prefix string, entries []os.DirEntry)
	walkDir = func(dir, prefix string, entries []os.DirEntry) {
		for _, e := range entries {
			rel := bucket.JoinPath(prefix, e.Name())
			if e.IsDir() {
				if !recursive {
					continue
				}
				sub, err := os.ReadDir(filepath.Join(dir, e.Name()))
				if err != nil {
					continue
				}
				walkDir(filepath.Join(dir, e.Name()), rel, sub)
				continue
			}
			keys = append(keys, rel)
		}
	}
	walkDir(root, "", entries)
	sort.Strings(keys)

	items := make([]bucket.Metadata, 0, len(keys))
	for _, k := range keys {
		m, err := b.GetObjectMetadata(ctx, k)
		if err != nil {
			continue
		}
		items = append(items, m)
	}
	return &sliceIterator{items: items}, nil
}

// Compose concatenates sources (in order) into targetPath atomically,
// then best-effort removes the sources if requested (§4.6).
func (b *Bucket) Compose(ctx context.Context, sources []string, targetPath string, removeSources bool) error {
	dst := b.path(targetPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".pipecraft-compose-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	for _, src := range sources {
		f, err := os.Open(b.path(src))
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return err
		}
		_, err = io.Copy(tmp, f)
		_ = f.Close()
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if removeSources {
		for _, src := range sources {
			if err := os.Remove(b.path(src)); err != nil {
				b.Log.WithError(err).Warnf("bucket/local: best-effort cleanup of compose source %q failed", src)
			}
		}
	}
	return nil
}

// PutLockFile implements bucket.LockFiler via O_EXCL, the standard
// POSIX atomic create-if-absent primitive (§8 invariant 18).
func (b *Bucket) PutLockFile(ctx context.Context, key string) (bool, error) {
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return false, err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

// GetOutputStream implements bucket.StreamUploader: writes land in a
// sibling temp file and the object becomes visible only on Close,
// mirroring Put's atomic-rename discipline.
func (b *Bucket) GetOutputStream(ctx context.Context, key string, chunkSize int) (io.WriteCloser, error) {
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".pipecraft-stream-*")
	if err != nil {
		return nil, err
	}
	return &streamWriter{tmp: tmp, dst: dst}, nil
}

type streamWriter struct {
	tmp *os.File
	dst string
}

func (s *streamWriter) Write(p []byte) (int, error) { return s.tmp.Write(p) }

func (s *streamWriter) Close() error {
	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(s.tmp.Name())
		return err
	}
	return os.Rename(s.tmp.Name(), s.dst)
}

type sliceIterator struct {
	items []bucket.Metadata
	idx   int
}

func (it *sliceIterator) Next(ctx context.Context) (bucket.Metadata, error) {
	if it.idx >= len(it.items) {
		return bucket.Metadata{}, bucket.ErrIteratorDone
	}
	m := it.items[it.idx]
	it.idx++
	return m, nil
}

func (it *sliceIterator) Close() error { return nil }
