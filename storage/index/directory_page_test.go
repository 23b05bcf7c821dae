package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

func newTestDirectory(maxDepth uint32) *DirectoryPage {
	d := NewDirectoryPage(&[common.PageSize]byte{})
	d.Init(maxDepth)
	return d
}

func TestDirectoryPageInitialState(t *testing.T) {
	d := newTestDirectory(3)
	assert.Equal(t, uint32(0), d.GlobalDepth())
	assert.Equal(t, uint32(1), d.Size())
	assert.Equal(t, types.InvalidPageID, d.GetBucketPageId(0))
}

func TestDirectoryPageIncrGlobalDepthDoublesAndCopies(t *testing.T) {
	d := newTestDirectory(2)
	d.SetBucketPageId(0, types.PageID(7))
	d.SetLocalDepth(0, 0)

	require.True(t, d.IncrGlobalDepth())
	assert.Equal(t, uint32(1), d.GlobalDepth())
	assert.Equal(t, uint32(2), d.Size())
	assert.Equal(t, types.PageID(7), d.GetBucketPageId(1))
	assert.Equal(t, d.GetLocalDepth(0), d.GetLocalDepth(1))
}

func TestDirectoryPageIncrGlobalDepthRejectsAtCap(t *testing.T) {
	d := newTestDirectory(1)
	require.True(t, d.IncrGlobalDepth()) // 0 -> 1, at cap now
	assert.False(t, d.IncrGlobalDepth())
	assert.Equal(t, uint32(1), d.GlobalDepth())
}

func TestDirectoryPageCanShrink(t *testing.T) {
	d := newTestDirectory(3)
	require.True(t, d.IncrGlobalDepth()) // global depth 1, size 2
	d.SetLocalDepth(0, 0)
	d.SetLocalDepth(1, 0)
	assert.True(t, d.CanShrink())

	d.SetLocalDepth(1, 1)
	assert.False(t, d.CanShrink())
}

func TestDirectoryPageGetSplitImageIndex(t *testing.T) {
	d := newTestDirectory(3)
	require.True(t, d.IncrGlobalDepth())
	require.True(t, d.IncrGlobalDepth()) // global depth 2, size 4
	d.SetLocalDepth(1, 2)
	assert.Equal(t, uint32(3), d.GetSplitImageIndex(1))
}
