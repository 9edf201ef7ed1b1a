// Package compressio provides the compressed-I/O substrate shared by
// Sort's run files, Shard's shard files and Bucket's stream uploads: a
// small Kind enum selecting a concrete compress/gzip or
// klauspost/compress/zstd codec, plus the binary coding helpers and
// counting wrappers the storage layer needs on top of plain io.Reader
// and io.Writer.
package compressio

import "fmt"

// Kind identifies a stream compression format.
type Kind int

const (
	// None passes bytes through unmodified.
	None Kind = iota
	// Gzip uses the standard library's compress/gzip.
	Gzip
	// Zstd uses github.com/klauspost/compress/zstd.
	Zstd
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compressio.Kind(%d)", int(k))
	}
}

// ParseKind maps a file extension or config string ("", "none",
// "gzip"/"gz", "zstd"/"zst") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "none":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return None, fmt.Errorf("compressio: unknown compression kind %q", s)
	}
}
