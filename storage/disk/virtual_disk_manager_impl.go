package disk

import (
	"errors"

	"github.com/dsnet/golib/memfile"
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

// MemDiskManager is an in-memory DiskManager backed by
// github.com/dsnet/golib/memfile instead of a real file. Used by the
// buffer, disk and index package tests, and available to callers that
// want a non-durable scratch instance.
type MemDiskManager struct {
	mu              deadlock.Mutex
	db              *memfile.File
	nextPageID      types.PageID
	numWrites       uint64
	size            int64
	reusableSpaceID []types.PageID
	spaceIDConvMap  map[types.PageID]types.PageID
	deallocedIDMap  map[types.PageID]bool
}

// NewMemDiskManager returns a fresh in-memory DiskManager.
func NewMemDiskManager() DiskManager {
	return &MemDiskManager{
		db:              memfile.New(make([]byte, 0)),
		spaceIDConvMap:  make(map[types.PageID]types.PageID),
		deallocedIDMap:  make(map[types.PageID]bool),
		reusableSpaceID: make([]types.PageID, 0),
	}
}

// ShutDown is a no-op: there is no file descriptor to release.
func (d *MemDiskManager) ShutDown() {}

// convToSpaceID maps a page id onto the backing space it actually
// occupies, redirecting through a deallocated page's reclaimed space
// when one was reused for it.
func (d *MemDiskManager) convToSpaceID(pageID types.PageID) types.PageID {
	if spaceID, ok := d.spaceIDConvMap[pageID]; ok {
		return spaceID
	}
	return pageID
}

func (d *MemDiskManager) WritePage(pageID types.PageID, pageData []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(d.convToSpaceID(pageID)) * common.PageSize
	if _, err := d.db.WriteAt(pageData, offset); err != nil {
		return err
	}
	if end := offset + int64(len(pageData)); end > d.size {
		d.size = end
	}
	d.numWrites++
	return nil
}

func (d *MemDiskManager) ReadPage(pageID types.PageID, pageData []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deallocedIDMap[pageID] {
		return types.DeallocatedPageErr
	}

	offset := int64(d.convToSpaceID(pageID)) * common.PageSize
	if offset > d.size || offset+int64(len(pageData)) > d.size {
		return errors.New("disk: I/O error past end of file")
	}

	_, err := d.db.ReadAt(pageData, offset)
	return err
}

func (d *MemDiskManager) AllocatePage() types.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextPageID
	if len(d.reusableSpaceID) > 0 {
		reuseID := d.reusableSpaceID[0]
		d.reusableSpaceID = d.reusableSpaceID[1:]
		d.spaceIDConvMap[id] = reuseID
	}
	d.nextPageID++
	return id
}

// DeallocatePage reclaims pageID's backing space for a future
// AllocatePage call and marks the id itself unreadable.
func (d *MemDiskManager) DeallocatePage(pageID types.PageID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.deallocedIDMap[pageID] = true
	if spaceID, ok := d.spaceIDConvMap[pageID]; ok {
		d.reusableSpaceID = append(d.reusableSpaceID, spaceID)
		delete(d.spaceIDConvMap, pageID)
	} else {
		d.reusableSpaceID = append(d.reusableSpaceID, pageID)
	}
}

func (d *MemDiskManager) GetNumWrites() uint64 { return d.numWrites }

func (d *MemDiskManager) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}
