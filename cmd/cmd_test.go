package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteSplit(t *testing.T) {
	for _, test := range []struct {
		key, wantParent, wantLeaf string
	}{
		{"", "", ""},
		{"root", ".", "root"},
		{"a/b", "a", "b"},
		{"a/b/c", "a/b", "c"},
		{"/a/b", "/a", "b"},
		{"/root", "/", "root"},
	} {
		gotParent, gotLeaf := RemoteSplit(test.key)
		assert.Equal(t, test.wantParent, gotParent, test.key)
		assert.Equal(t, test.wantLeaf, gotLeaf, test.key)
	}
}
