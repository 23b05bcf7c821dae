package index

import (
	"encoding/binary"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

// directoryArrayCap is the physical width of the bucket-id and
// local-depth arrays: sized for the largest max_depth a directory can
// ever be constructed with, not the current global depth.
const directoryArrayCap = 1 << common.DirectoryMaxDepthCap

const (
	directoryMaxDepthOffset    = 0
	directoryGlobalDepthOffset = 4
	directoryBucketIDsOffset   = 8
	directoryLocalDepthsOffset = directoryBucketIDsOffset + directoryArrayCap*4
)

// DirectoryPage maps a hash's low global_depth bits to a bucket page id,
// growing by doubling and shrinking by halving.
// It is a view over an existing PageSize-byte buffer.
type DirectoryPage struct {
	data *[common.PageSize]byte
}

// NewDirectoryPage wraps data as a directory page view.
func NewDirectoryPage(data *[common.PageSize]byte) *DirectoryPage {
	return &DirectoryPage{data: data}
}

// Init sets maxDepth, resets global depth to zero, and clears every
// bucket id / local depth slot.
func (d *DirectoryPage) Init(maxDepth uint32) {
	common.Assert(maxDepth <= common.DirectoryMaxDepthCap, "directory max depth %d exceeds cap %d", maxDepth, common.DirectoryMaxDepthCap)
	binary.LittleEndian.PutUint32(d.data[directoryMaxDepthOffset:directoryMaxDepthOffset+4], maxDepth)
	binary.LittleEndian.PutUint32(d.data[directoryGlobalDepthOffset:directoryGlobalDepthOffset+4], 0)
	for i := uint32(0); i < directoryArrayCap; i++ {
		d.SetBucketPageId(i, types.InvalidPageID)
		d.setLocalDepthRaw(i, 0)
	}
}

func (d *DirectoryPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[directoryMaxDepthOffset : directoryMaxDepthOffset+4])
}

func (d *DirectoryPage) GlobalDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[directoryGlobalDepthOffset : directoryGlobalDepthOffset+4])
}

func (d *DirectoryPage) setGlobalDepth(depth uint32) {
	binary.LittleEndian.PutUint32(d.data[directoryGlobalDepthOffset:directoryGlobalDepthOffset+4], depth)
}

// Size returns the number of slots currently in use, 2^GlobalDepth.
func (d *DirectoryPage) Size() uint32 { return uint32(1) << d.GlobalDepth() }

func (d *DirectoryPage) globalDepthMask() uint32 { return d.Size() - 1 }

// HashToBucketIndex selects a bucket slot from the low GlobalDepth bits
// of hash.
func (d *DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	return hash & d.globalDepthMask()
}

func (d *DirectoryPage) bucketIDOffset(idx uint32) int {
	return directoryBucketIDsOffset + int(idx)*4
}

func (d *DirectoryPage) GetBucketPageId(idx uint32) types.PageID {
	off := d.bucketIDOffset(idx)
	return types.PageID(int32(binary.LittleEndian.Uint32(d.data[off : off+4])))
}

func (d *DirectoryPage) SetBucketPageId(idx uint32, id types.PageID) {
	off := d.bucketIDOffset(idx)
	binary.LittleEndian.PutUint32(d.data[off:off+4], uint32(int32(id)))
}

// GetSplitImageIndex returns the sibling index produced by flipping bit
// local_depth-1 of idx.
func (d *DirectoryPage) GetSplitImageIndex(idx uint32) uint32 {
	localDepth := d.GetLocalDepth(idx)
	return idx ^ (uint32(1) << (localDepth - 1))
}

func (d *DirectoryPage) localDepthOffset(idx uint32) int {
	return directoryLocalDepthsOffset + int(idx)
}

func (d *DirectoryPage) GetLocalDepth(idx uint32) uint32 {
	return uint32(d.data[d.localDepthOffset(idx)])
}

func (d *DirectoryPage) SetLocalDepth(idx uint32, depth uint32) {
	d.setLocalDepthRaw(idx, depth)
}

func (d *DirectoryPage) setLocalDepthRaw(idx uint32, depth uint32) {
	d.data[d.localDepthOffset(idx)] = byte(depth)
}

func (d *DirectoryPage) IncrLocalDepth(idx uint32) {
	depth := d.GetLocalDepth(idx)
	if depth >= d.MaxDepth() {
		return
	}
	d.setLocalDepthRaw(idx, depth+1)
}

func (d *DirectoryPage) DecrLocalDepth(idx uint32) {
	depth := d.GetLocalDepth(idx)
	if depth == 0 {
		return
	}
	d.setLocalDepthRaw(idx, depth-1)
}

// IncrGlobalDepth doubles the directory, copying every slot's bucket id
// and local depth into its mirror at index+size. Returns false without
// effect if global depth is already at the cap.
func (d *DirectoryPage) IncrGlobalDepth() bool {
	if d.GlobalDepth() >= d.MaxDepth() {
		return false
	}
	size := d.Size()
	for i := uint32(0); i < size; i++ {
		d.SetBucketPageId(size+i, d.GetBucketPageId(i))
		d.setLocalDepthRaw(size+i, d.GetLocalDepth(i))
	}
	d.setGlobalDepth(d.GlobalDepth() + 1)
	return true
}

// DecrGlobalDepth halves the directory. No-op at global depth zero.
func (d *DirectoryPage) DecrGlobalDepth() {
	if d.GlobalDepth() == 0 {
		return
	}
	d.setGlobalDepth(d.GlobalDepth() - 1)
}

// CanShrink reports whether every active slot's local depth is strictly
// less than the global depth, i.e. the directory can be halved without
// losing information.
func (d *DirectoryPage) CanShrink() bool {
	global := d.GlobalDepth()
	for i := uint32(0); i < d.Size(); i++ {
		if d.GetLocalDepth(i) >= global {
			return false
		}
	}
	return true
}
