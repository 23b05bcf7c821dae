package buffer

import (
	"github.com/deckarep/golang-set/v2"
	"github.com/sasha-s/go-deadlock"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/storage/disk"
	"github.com/stonefishdb/stonefishdb/storage/page"
	"github.com/stonefishdb/stonefishdb/types"
)

// BufferPoolManager is the fixed-size cache of disk pages: poolSize
// frames, each either free, holding a pinned page, or holding an
// unpinned page eligible for eviction through replacer. A single
// exclusive latch guards the pool's bookkeeping (page table, free set,
// frame array); each frame additionally carries its own independent
// read/write latch for concurrent access to page content.
type BufferPoolManager struct {
	latch deadlock.Mutex

	poolSize int
	pages    []*page.Page
	replacer *LRUKReplacer

	// freeList holds frame ids that hold no page (never used, or released
	// by DeletePage), modeled as a set since membership, not order, is all
	// that matters.
	freeList mapset.Set[types.FrameID]

	pageTable map[types.PageID]types.FrameID

	diskManager   disk.DiskManager
	diskScheduler *disk.DiskScheduler
}

// NewBufferPoolManager constructs a pool of poolSize frames over
// diskManager, with the LRU-K replacer's lookback window set to
// replacerK.
func NewBufferPoolManager(poolSize int, diskManager disk.DiskManager, replacerK int) *BufferPoolManager {
	pages := make([]*page.Page, poolSize)
	freeList := mapset.NewThreadUnsafeSet[types.FrameID]()
	for i := 0; i < poolSize; i++ {
		pages[i] = page.NewEmptyPage()
		freeList.Add(types.FrameID(i))
	}

	return &BufferPoolManager{
		poolSize:      poolSize,
		pages:         pages,
		replacer:      NewLRUKReplacer(poolSize, replacerK),
		freeList:      freeList,
		pageTable:     make(map[types.PageID]types.FrameID),
		diskManager:   diskManager,
		diskScheduler: disk.NewDiskScheduler(diskManager),
	}
}

// ShutDown stops the underlying disk scheduler. The pool must not be
// used afterwards.
func (b *BufferPoolManager) ShutDown() {
	b.diskScheduler.ShutDown()
}

// PoolSize returns the number of frames the pool manages.
func (b *BufferPoolManager) PoolSize() int { return b.poolSize }

// allocateFrame returns a frame id to use for a new or fetched page,
// writing back whatever dirty page currently occupies it. Returns false
// if the pool is completely exhausted.
// Caller must hold b.latch.
func (b *BufferPoolManager) allocateFrame() (types.FrameID, bool) {
	if frameIDAny, ok := b.freeList.Pop(); ok {
		return frameIDAny, true
	}

	frameID, ok := b.replacer.Evict()
	if !ok {
		return types.InvalidFrameID, false
	}

	victim := b.pages[frameID]
	if victim.IsDirty() {
		b.writeBack(victim)
	}
	delete(b.pageTable, victim.ID())
	return frameID, true
}

// writeBack synchronously flushes pg's current content to disk through
// the scheduler and clears its dirty bit. Caller must hold b.latch.
func (b *BufferPoolManager) writeBack(pg *page.Page) {
	req := disk.NewDiskRequest(true, pg.Data()[:], pg.ID())
	b.diskScheduler.Schedule(&req)
	if err := <-req.Done; err != nil {
		common.Log().Errorw("buffer pool: write-back failed", "page_id", pg.ID(), "err", err)
	}
	pg.SetIsDirty(false)
}

// NewPage allocates a brand-new page, pins it, and returns it along with
// its fresh id. Returns (InvalidPageID, nil) if the pool has no frame to
// spare.
func (b *BufferPoolManager) NewPage() (types.PageID, *page.Page) {
	b.latch.Lock()
	defer b.latch.Unlock()

	frameID, ok := b.allocateFrame()
	if !ok {
		return types.InvalidPageID, nil
	}

	pageID := b.diskManager.AllocatePage()
	pg := b.pages[frameID]
	pg.Reset(pageID)

	b.pageTable[pageID] = frameID
	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	return pageID, pg
}

// FetchPage returns pageID's page, pinning it, loading it from disk
// first if it is not already resident. Returns nil if pageID is invalid
// or the pool is exhausted.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	if !pageID.IsValid() {
		return nil
	}

	b.latch.Lock()
	defer b.latch.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.RecordAccess(frameID)
		b.replacer.SetEvictable(frameID, false)
		return pg
	}

	frameID, ok := b.allocateFrame()
	if !ok {
		return nil
	}

	pg := b.pages[frameID]
	pg.Reset(pageID)
	b.pageTable[pageID] = frameID

	req := disk.NewDiskRequest(false, pg.Data()[:], pageID)
	b.diskScheduler.Schedule(&req)
	if err := <-req.Done; err != nil {
		common.Log().Errorw("buffer pool: page read failed", "page_id", pageID, "err", err)
	}

	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	return pg
}

// UnpinPage decrements pageID's pin count, marking it evictable once the
// count reaches zero. isDirty, if true, marks the page dirty regardless
// of its prior state. Returns false if pageID is not resident or already
// has a zero pin count.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	if !pageID.IsValid() {
		return false
	}

	b.latch.Lock()
	defer b.latch.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() <= 0 {
		return false
	}
	pg.DecPinCount()
	if pg.PinCount() == 0 {
		b.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage forces pageID's current content to disk regardless of its
// dirty bit or pin count. Returns false if pageID is not resident.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	if !pageID.IsValid() {
		return false
	}

	b.latch.Lock()
	defer b.latch.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	req := disk.NewDiskRequest(true, b.pages[frameID].Data()[:], pageID)
	b.diskScheduler.Schedule(&req)
	if err := <-req.Done; err != nil {
		return false
	}
	b.pages[frameID].SetIsDirty(false)
	return true
}

// FlushAllPages forces every resident page to disk.
func (b *BufferPoolManager) FlushAllPages() {
	b.latch.Lock()
	pageIDs := make([]types.PageID, 0, len(b.pageTable))
	for pageID := range b.pageTable {
		pageIDs = append(pageIDs, pageID)
	}
	b.latch.Unlock()

	for _, pageID := range pageIDs {
		b.FlushPage(pageID)
	}
}

// DeletePage removes pageID from the pool and deallocates it on disk.
// Returns false if the page is currently pinned.
// Returns true (a no-op) if pageID is not resident.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	if !pageID.IsValid() {
		return true
	}

	b.latch.Lock()
	defer b.latch.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return true
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return false
	}

	delete(b.pageTable, pageID)
	b.replacer.Remove(frameID)
	pg.Evict()
	b.freeList.Add(frameID)

	b.diskManager.DeallocatePage(pageID)
	return true
}

// FetchPageBasic fetches pageID and wraps it in a BasicPageGuard.
func (b *BufferPoolManager) FetchPageBasic(pageID types.PageID) page.BasicPageGuard {
	return page.NewBasicPageGuard(b, b.FetchPage(pageID))
}

// FetchPageRead fetches pageID, acquires its shared latch, and wraps it
// in a ReadPageGuard.
func (b *BufferPoolManager) FetchPageRead(pageID types.PageID) page.ReadPageGuard {
	return page.NewReadPageGuard(b, b.FetchPage(pageID))
}

// FetchPageWrite fetches pageID, acquires its exclusive latch, and wraps
// it in a WritePageGuard.
func (b *BufferPoolManager) FetchPageWrite(pageID types.PageID) page.WritePageGuard {
	return page.NewWritePageGuard(b, b.FetchPage(pageID))
}

// NewPageGuarded allocates a new page and wraps it in a BasicPageGuard,
// returning the fresh page id alongside it.
func (b *BufferPoolManager) NewPageGuarded() (types.PageID, page.BasicPageGuard) {
	pageID, pg := b.NewPage()
	return pageID, page.NewBasicPageGuard(b, pg)
}
