package bucket

import (
	"fmt"
	"strings"
)

// ParsePath splits a fully qualified "<protocol>://<bucket>/<key>"
// path into its three parts (§6). protocol is one of the bucket
// implementations' own names ("file", "s3", "gs", ...).
func ParsePath(path string) (protocol, bucketName, key string, err error) {
	idx := strings.Index(path, "://")
	if idx < 0 {
		return "", "", "", fmt.Errorf("bucket: %q is not a fully qualified <protocol>://<bucket>/<key> path", path)
	}
	protocol = path[:idx]
	rest := path[idx+3:]

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return protocol, rest, "", nil
	}
	return protocol, rest[:slash], rest[slash+1:], nil
}

// JoinPath joins path segments with "/", eliding empty parts,
// collapsing runs of consecutive separators, and stripping any
// leading separator left over from an empty first segment (§6).
func JoinPath(parts ...string) string {
	var segments []string
	for _, p := range parts {
		for _, seg := range strings.Split(p, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return strings.Join(segments, "/")
}

// AsFolder returns key with exactly one trailing "/" appended, marking
// it as a virtual folder (§3, §4.6).
func AsFolder(key string) string {
	if IsFolder(key) {
		return key
	}
	return key + "/"
}
