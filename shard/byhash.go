package shard

import (
	"hash/fnv"
	"strconv"

	"github.com/pipecraft/pipecraft/codec"
	"github.com/pipecraft/pipecraft/pipe"
)

// ByHash shards upstream by hashing a caller-extracted feature string
// and reducing mod k (§4.4.15 "By hash"). Shard ids default to
// "0".."k-1"; cfg.Naming overrides the filename, not the id used for
// the reported counts.
func ByHash[T any](upstream pipe.Pipe[T], cdc codec.Codec[T], feature func(T) string, k int, cfg Config) pipe.Pipe[map[string]int] {
	return ByItem(upstream, cdc, func(item T) string {
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature(item)))
		return strconv.Itoa(int(h.Sum64() % uint64(k)))
	}, cfg)
}
