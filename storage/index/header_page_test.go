package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

func TestHeaderPageInitialState(t *testing.T) {
	h := NewHeaderPage(&[common.PageSize]byte{})
	h.Init(2)

	assert.Equal(t, uint32(2), h.MaxDepth())
	assert.Equal(t, uint32(4), h.Size())
	for i := uint32(0); i < h.Size(); i++ {
		assert.Equal(t, types.InvalidPageID, h.GetDirectoryPageId(i))
	}
}

func TestHeaderPageHashToDirectoryIndexUsesTopBits(t *testing.T) {
	h := NewHeaderPage(&[common.PageSize]byte{})
	h.Init(2)

	assert.Equal(t, uint32(0), h.HashToDirectoryIndex(0x00000000))
	assert.Equal(t, uint32(3), h.HashToDirectoryIndex(0xFFFFFFFF))
	assert.Equal(t, uint32(2), h.HashToDirectoryIndex(0x80000000))
}

func TestHeaderPageSetAndGetDirectoryPageId(t *testing.T) {
	h := NewHeaderPage(&[common.PageSize]byte{})
	h.Init(1)

	h.SetDirectoryPageId(0, types.PageID(42))
	h.SetDirectoryPageId(1, types.PageID(43))
	assert.Equal(t, types.PageID(42), h.GetDirectoryPageId(0))
	assert.Equal(t, types.PageID(43), h.GetDirectoryPageId(1))
}
