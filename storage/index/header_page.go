package index

import (
	"encoding/binary"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

const headerDirectoryIDsOffset = 4

// HeaderPage is the immutable-depth root of the hash index: the top
// header_max_depth bits of a hash select one of 2^max_depth directory
// page identifiers. Allocated once at construction, it never resizes.
// It is a view over an existing PageSize-byte buffer, not an owned
// copy — reads and writes go straight through to the buffer pool frame
// backing it.
type HeaderPage struct {
	data *[common.PageSize]byte
}

// NewHeaderPage wraps data as a header page view.
func NewHeaderPage(data *[common.PageSize]byte) *HeaderPage {
	return &HeaderPage{data: data}
}

// Init sets maxDepth and fills every directory slot with the sentinel.
func (h *HeaderPage) Init(maxDepth uint32) {
	common.Assert(maxDepth <= common.HeaderMaxDepthCap, "header max depth %d exceeds cap %d", maxDepth, common.HeaderMaxDepthCap)
	binary.LittleEndian.PutUint32(h.data[0:4], maxDepth)
	size := uint32(1) << maxDepth
	for i := uint32(0); i < size; i++ {
		h.SetDirectoryPageId(i, types.InvalidPageID)
	}
}

// MaxDepth returns the header's fixed depth.
func (h *HeaderPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(h.data[0:4])
}

// Size returns the number of directory slots, 2^MaxDepth.
func (h *HeaderPage) Size() uint32 { return uint32(1) << h.MaxDepth() }

// HashToDirectoryIndex selects a directory slot from the top MaxDepth
// bits of hash.
func (h *HeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	return hash >> (32 - h.MaxDepth())
}

func (h *HeaderPage) offsetFor(idx uint32) int {
	return headerDirectoryIDsOffset + int(idx)*4
}

// GetDirectoryPageId returns the directory page id stored at idx.
func (h *HeaderPage) GetDirectoryPageId(idx uint32) types.PageID {
	off := h.offsetFor(idx)
	return types.PageID(int32(binary.LittleEndian.Uint32(h.data[off : off+4])))
}

// SetDirectoryPageId stores id at idx.
func (h *HeaderPage) SetDirectoryPageId(idx uint32, id types.PageID) {
	off := h.offsetFor(idx)
	binary.LittleEndian.PutUint32(h.data[off:off+4], uint32(int32(id)))
}
