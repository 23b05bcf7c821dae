// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

// Page is one in-memory frame: PageSize bytes of content plus the
// bookkeeping the buffer pool and replacer need.
// The pool owns a fixed array of these, indexed by frame id.
type Page struct {
	id       types.PageID
	pinCount int32
	isDirty  bool
	data     *[common.PageSize]byte
	latch    common.ReaderWriterLatch
}

// NewEmptyPage returns a page occupying no identifier, ready to be
// claimed by the pool's free list or an eviction.
func NewEmptyPage() *Page {
	return &Page{
		id:    types.InvalidPageID,
		data:  &[common.PageSize]byte{},
		latch: common.NewRWLatch(),
	}
}

func (p *Page) ID() types.PageID { return p.id }

func (p *Page) Data() *[common.PageSize]byte { return p.data }

func (p *Page) PinCount() int32 { return p.pinCount }

func (p *Page) IsDirty() bool { return p.isDirty }

func (p *Page) SetIsDirty(dirty bool) { p.isDirty = dirty }

// Reset reassigns the frame to id with zeroed content, one pin, and a
// clean dirty bit — the state a frame enters NewPage/FetchPage in.
func (p *Page) Reset(id types.PageID) {
	p.id = id
	p.pinCount = 1
	p.isDirty = false
	for i := range p.data {
		p.data[i] = 0
	}
}

// Evict clears the frame back to "unoccupied," for return to the free
// list or reassignment to another page.
func (p *Page) Evict() {
	p.id = types.InvalidPageID
	p.pinCount = 0
	p.isDirty = false
}

func (p *Page) IncPinCount() { p.pinCount++ }

// DecPinCount decrements the pin count. Callers must already know it
// is positive (the buffer pool checks this before calling).
func (p *Page) DecPinCount() { p.pinCount-- }

func (p *Page) WLatch()   { p.latch.WLock() }
func (p *Page) WUnlatch() { p.latch.WUnlock() }
func (p *Page) RLatch()   { p.latch.RLock() }
func (p *Page) RUnlatch() { p.latch.RUnlock() }
