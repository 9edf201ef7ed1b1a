package bucket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/pipecraft/pipecraft/retry"
)

// PutFile reads path's full content and writes it to b under key,
// sizing the Put from the file's own stat info the way the teacher's
// file-open helpers do before streaming (§4.6 "Derived operations").
func PutFile(ctx context.Context, b Bucket, path, key, contentType string, isPublic, allowOverride bool) (Metadata, error) {
	var zero Metadata
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return zero, err
	}
	return b.Put(ctx, key, f, info.Size(), contentType, isPublic, allowOverride)
}

// PutPublic and PutPrivate fix isPublic, leaving every other Put
// parameter to the caller.
func PutPublic(ctx context.Context, b Bucket, key, contentType string, r io.Reader, length int64, allowOverride bool) (Metadata, error) {
	return b.Put(ctx, key, r, length, contentType, true, allowOverride)
}

func PutPrivate(ctx context.Context, b Bucket, key, contentType string, r io.Reader, length int64, allowOverride bool) (Metadata, error) {
	return b.Put(ctx, key, r, length, contentType, false, allowOverride)
}

// UniqueKeyGen generates the random key component used by
// PutUniquePublic/PutUniquePrivate - a uniform 64-bit identifier
// (§4.6) drawn from crypto/rand and hex-encoded as 16 characters.
func UniqueKeyGen() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// PutUniquePublic writes r under folder/<random-key>, returning the
// key it chose.
func PutUniquePublic(ctx context.Context, b Bucket, folder, contentType string, r io.Reader, length int64) (string, Metadata, error) {
	key := JoinPath(folder, UniqueKeyGen())
	m, err := PutPublic(ctx, b, key, contentType, r, length, false)
	return key, m, err
}

// PutUniquePrivate is PutUniquePublic's private-ACL counterpart.
func PutUniquePrivate(ctx context.Context, b Bucket, folder, contentType string, r io.Reader, length int64) (string, Metadata, error) {
	key := JoinPath(folder, UniqueKeyGen())
	m, err := PutPrivate(ctx, b, key, contentType, r, length, false)
	return key, m, err
}

// PutDoneFile writes an empty "_DONE" marker under folder, the
// standard completion sentinel for a batch job's output folder
// (§4.6).
func PutDoneFile(ctx context.Context, b Bucket, folder string) (Metadata, error) {
	return b.Put(ctx, JoinPath(folder, "_DONE"), emptyReader{}, 0, "text/plain", false, true)
}

type emptyReader struct{}

func (emptyReader) Read(p []byte) (int, error) { return 0, io.EOF }

// PutAllInterruptibly uploads every (localPath, key) pair in files
// with bounded parallelism and per-file retries, returning the first
// failure encountered (§4.6 "bulk putAllInterruptibly").
func PutAllInterruptibly(ctx context.Context, b Bucket, files map[string]string, contentType string, isPublic bool, concurrency int, retrier *retry.Retrier) error {
	tasks := make([]func(context.Context) error, 0, len(files))
	for localPath, key := range files {
		localPath, key := localPath, key
		tasks = append(tasks, func(ctx context.Context) error {
			_, err := PutFile(ctx, b, localPath, key, contentType, isPublic, true)
			return err
		})
	}
	return retry.NewParallelTaskProcessor(concurrency, retrier).Run(ctx, tasks)
}

// PutAllRecursiveInterruptibly walks localDir and uploads every
// regular file found under it to b, keyed by its path relative to
// localDir joined onto keyPrefix.
func PutAllRecursiveInterruptibly(ctx context.Context, b Bucket, localDir, keyPrefix, contentType string, isPublic bool, concurrency int, retrier *retry.Retrier) error {
	files := make(map[string]string)
	err := filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		files[path] = JoinPath(keyPrefix, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}
	return PutAllInterruptibly(ctx, b, files, contentType, isPublic, concurrency, retrier)
}
