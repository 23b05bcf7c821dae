package disk

import "github.com/stonefishdb/stonefishdb/types"

// DiskManager is the block device abstraction: synchronous, page-aligned
// reads and writes to a stable backing store, addressed by monotonically
// increasing page identifiers.
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	AllocatePage() types.PageID
	DeallocatePage(types.PageID)
	GetNumWrites() uint64
	ShutDown()
	Size() int64
}
