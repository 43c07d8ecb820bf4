package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wimpack/wim/internal/layout"
)

func file(name string, hash [20]byte) *Node {
	n := &Node{}
	n.Entry.FileName = name
	n.Entry.Hash = hash
	n.Entry.SecurityID = layout.NoSecurityID

	return n
}

func dir(name string) *Node {
	n := &Node{}
	n.Entry.FileName = name
	n.Entry.Attributes = layout.AttrDirectory
	n.Entry.SecurityID = layout.NoSecurityID

	return n
}

func TestBuildParseRoundTrip(t *testing.T) {
	root := NewRoot()
	sub := dir("sub")
	hash1 := [20]byte{1}
	hash2 := [20]byte{2}
	root.AddChild(file("a.txt", hash1))
	root.AddChild(sub)
	sub.AddChild(file("b.txt", hash2))

	data := Build(root, layout.SecurityBlock{})

	tree, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "a.txt", tree.Root.Children[0].Entry.FileName)
	assert.Equal(t, "sub", tree.Root.Children[1].Entry.FileName)
	require.Len(t, tree.Root.Children[1].Children, 1)
	assert.Equal(t, "b.txt", tree.Root.Children[1].Children[0].Entry.FileName)

	assert.Len(t, tree.ByHash[hash1], 1)
	assert.Len(t, tree.ByHash[hash2], 1)
}

func TestBuildEmptyDirectory(t *testing.T) {
	root := NewRoot()
	empty := dir("empty")
	root.AddChild(empty)

	data := Build(root, layout.SecurityBlock{})
	tree, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, tree.Root.Children, 1)
	assert.Empty(t, tree.Root.Children[0].Children)
}

func TestComputeStatsExcludesRootAndCountsDuplicateHashes(t *testing.T) {
	root := NewRoot()
	hash := [20]byte{9}
	root.AddChild(file("a.txt", hash))
	root.AddChild(file("b.txt", hash))
	sub := dir("sub")
	root.AddChild(sub)

	st := ComputeStats(root, func(h [20]byte) uint64 {
		if h == hash {
			return 5
		}
		return 0
	})

	assert.EqualValues(t, 1, st.DirCount)
	assert.EqualValues(t, 2, st.FileCount)
	assert.EqualValues(t, 10, st.TotalBytes)
}

func TestParseRejectsDanglingSubdirOffset(t *testing.T) {
	root := NewRoot()
	data := Build(root, layout.SecurityBlock{})

	// Corrupt the root entry's subdir offset to point somewhere impossible.
	layout.LE.PutUint64(data[8+layout.SubdirOffsetFieldOffset:8+layout.SubdirOffsetFieldOffset+8], 99999)

	_, err := Parse(data)
	assert.Error(t, err)
}
