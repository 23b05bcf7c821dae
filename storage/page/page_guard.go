package page

import "github.com/stonefishdb/stonefishdb/types"

// Pinner is the slice of BufferPoolManager a guard needs to release its
// pin on drop. Kept as an interface (rather than importing
// storage/buffer directly) because the pool is what constructs guards
// in the first place: buffer.BufferPoolManager depends on this package
// for the Page type, so this package cannot depend back on buffer
// without a cycle.
type Pinner interface {
	UnpinPage(pageID types.PageID, isDirty bool) bool
}

// BasicPageGuard is a scoped handle on a pinned page. Dropping it
// unpins exactly once, with whatever dirty bit was set via MarkDirty
// while the guard was held. Guards are move-only in
// spirit: Go cannot forbid copying a struct, but copying a guard and
// dropping both copies would double-unpin, so callers must treat a
// guard like a value that is consumed by its single Drop call.
type BasicPageGuard struct {
	pinner  Pinner
	pg      *Page
	dirty   bool
	dropped bool
}

// NewBasicPageGuard wraps pg, pinned via pinner. pg may be nil (pool
// exhaustion or invalid page id), in which case the guard is a no-op.
func NewBasicPageGuard(pinner Pinner, pg *Page) BasicPageGuard {
	return BasicPageGuard{pinner: pinner, pg: pg}
}

// IsValid reports whether the guard actually holds a page.
func (g *BasicPageGuard) IsValid() bool { return g.pg != nil }

// Page returns the underlying frame, or nil if the guard is empty.
func (g *BasicPageGuard) Page() *Page { return g.pg }

// MarkDirty records that the page was (or may have been) mutated, so
// Drop unpins it with the dirty bit set.
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// Drop releases the pin. Safe to call more than once; only the first
// call has an effect.
func (g *BasicPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	if g.pinner != nil && g.pg != nil {
		g.pinner.UnpinPage(g.pg.ID(), g.dirty)
	}
	g.pinner = nil
	g.pg = nil
}

// UpgradeRead consumes the basic guard and returns a ReadPageGuard
// holding its shared latch.
func (g *BasicPageGuard) UpgradeRead() ReadPageGuard {
	if g.pg != nil {
		g.pg.RLatch()
	}
	rg := ReadPageGuard{BasicPageGuard{pinner: g.pinner, pg: g.pg, dirty: g.dirty}}
	g.pinner, g.pg, g.dropped = nil, nil, true
	return rg
}

// UpgradeWrite consumes the basic guard and returns a WritePageGuard
// holding its exclusive latch.
func (g *BasicPageGuard) UpgradeWrite() WritePageGuard {
	if g.pg != nil {
		g.pg.WLatch()
	}
	wg := WritePageGuard{BasicPageGuard{pinner: g.pinner, pg: g.pg, dirty: g.dirty}}
	g.pinner, g.pg, g.dropped = nil, nil, true
	return wg
}

// ReadPageGuard is a BasicPageGuard plus the page's shared latch.
type ReadPageGuard struct {
	guard BasicPageGuard
}

// NewReadPageGuard acquires pg's read latch (if pg is non-nil) and
// wraps it in a ReadPageGuard.
func NewReadPageGuard(pinner Pinner, pg *Page) ReadPageGuard {
	if pg != nil {
		pg.RLatch()
	}
	return ReadPageGuard{BasicPageGuard{pinner: pinner, pg: pg}}
}

func (g *ReadPageGuard) IsValid() bool { return g.guard.pg != nil }
func (g *ReadPageGuard) Page() *Page   { return g.guard.pg }

// Drop releases the shared latch, then unpins.
func (g *ReadPageGuard) Drop() {
	if g.guard.dropped {
		return
	}
	if g.guard.pg != nil {
		g.guard.pg.RUnlatch()
	}
	g.guard.Drop()
}

// WritePageGuard is a BasicPageGuard plus the page's exclusive latch.
// Any access through a write guard implies the page became dirty, so
// Drop always marks it dirty before unpinning.
type WritePageGuard struct {
	guard BasicPageGuard
}

// NewWritePageGuard acquires pg's write latch (if pg is non-nil) and
// wraps it in a WritePageGuard.
func NewWritePageGuard(pinner Pinner, pg *Page) WritePageGuard {
	if pg != nil {
		pg.WLatch()
	}
	return WritePageGuard{BasicPageGuard{pinner: pinner, pg: pg}}
}

func (g *WritePageGuard) IsValid() bool { return g.guard.pg != nil }
func (g *WritePageGuard) Page() *Page   { return g.guard.pg }

// Drop sets dirty, releases the exclusive latch, then unpins.
func (g *WritePageGuard) Drop() {
	if g.guard.dropped {
		return
	}
	g.guard.dirty = true
	if g.guard.pg != nil {
		g.guard.pg.WUnlatch()
	}
	g.guard.Drop()
}
