// Package bucket defines the object-store abstraction (§4.6): a
// minimal mandatory contract every implementation must satisfy, and a
// handful of optional capability interfaces ("may throw Unsupported")
// checked with a type assertion the way the teacher's backends expose
// optional features through fs.Features rather than forcing every Fs
// to implement every method.
package bucket

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by GetObjectMetadata/Get for a missing key
// or a folder path (§4.6's "fails with not found for missing or folder").
var ErrNotFound = errors.New("bucket: object not found")

// ErrUnsupported is returned by an implementation that doesn't carry
// one of the optional capabilities below, and by a capability method
// on an implementation that fails the corresponding type assertion.
var ErrUnsupported = errors.New("bucket: capability not supported")

// Metadata (M in §3's data model) is an opaque per-implementation
// record describing an object: bucket-relative path, length,
// last-modified time, and enough to re-address the object for Get/Copy.
// A path ending in "/" denotes a folder and carries no bytes; folders
// are virtual and exist only while they have a descendant file.
type Metadata struct {
	Path         string
	Length       int64
	LastModified time.Time
}

// IsFolder reports whether path denotes a virtual folder (§3, §4.6).
func IsFolder(path string) bool {
	return len(path) > 0 && path[len(path)-1] == '/'
}

// Bucket is the mandatory object-store contract (§4.6). Every method
// takes a context so a caller can bound or cancel a blocking I/O call,
// per §5.
type Bucket interface {
	// Put writes length bytes read from r to key atomically: a
	// successful return is immediately visible (read-after-write) to
	// any reader, and no reader ever observes a partial write. length
	// may be -1 if unknown (implementation-dependent support).
	// allowOverride=false fails if key already exists. key must not
	// end in "/".
	Put(ctx context.Context, key string, r io.Reader, length int64, contentType string, isPublic, allowOverride bool) (Metadata, error)

	// Get writes the full contents of key to targetPath.
	Get(ctx context.Context, key string, targetPath string) error
	// GetAsStream returns a size-bearing stream over key's content.
	// chunkSize is a hint; implementations may ignore it.
	GetAsStream(ctx context.Context, key string, chunkSize int) (io.ReadCloser, int64, error)

	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// CopyToAnotherBucket copies fromKey in this bucket to toKey in
	// dst, without staging the whole object in this process where the
	// implementation can avoid it.
	CopyToAnotherBucket(ctx context.Context, fromKey string, dst Bucket, toKey string) error
	// Exists reports whether key names a file (never true for a folder).
	Exists(ctx context.Context, key string) (bool, error)
	// ListObjects lazily lists keys under folderPath. folderPath must
	// be empty or end in "/". A missing folder yields an empty
	// iterator, not an error. No ordering is guaranteed unless an
	// implementation documents one.
	ListObjects(ctx context.Context, folderPath string, recursive bool) (ObjectIterator, error)
	// GetObjectMetadata fails with ErrNotFound for a missing key or a
	// folder path.
	GetObjectMetadata(ctx context.Context, key string) (Metadata, error)

	// Compose concatenates the byte content of sources (in order) into
	// a single object at targetPath, atomically for the final object;
	// if removeSources, the source objects are removed afterward on a
	// best-effort basis (failures are not reported as a Compose error).
	Compose(ctx context.Context, sources []string, targetPath string, removeSources bool) error
}

// ObjectIterator is the lazy cursor ListObjects returns.
type ObjectIterator interface {
	// Next advances and returns the next object's metadata, or
	// ErrIteratorDone once exhausted.
	Next(ctx context.Context) (Metadata, error)
	Close() error
}

// ErrIteratorDone terminates an ObjectIterator, the bucket-side analog
// of pipe.EOF.
var ErrIteratorDone = errors.New("bucket: iterator exhausted")

// LockFiler is the optional exclusive-create capability (§4.6, §8
// invariant 18): PutLockFile(key) returns true iff this call created
// the key, false if it already existed. It returns an error only for a
// genuine I/O failure, never for the losing side of a race.
type LockFiler interface {
	PutLockFile(ctx context.Context, key string) (created bool, err error)
}

// SignedURLer is the optional signed-URL capability: time-limited
// bearer URLs for read, upload, or resumable upload, with an optional
// maximum size cap on upload URLs.
type SignedURLer interface {
	SignedReadURL(ctx context.Context, key string, expire time.Duration) (string, error)
	SignedUploadURL(ctx context.Context, key string, expire time.Duration, maxSize int64, contentType string) (string, error)
}

// StreamUploader is the optional streaming-upload capability:
// getOutputStream in §4.6. The returned writer's final object becomes
// atomically visible only after a clean Close.
type StreamUploader interface {
	GetOutputStream(ctx context.Context, key string, chunkSize int) (io.WriteCloser, error)
}
