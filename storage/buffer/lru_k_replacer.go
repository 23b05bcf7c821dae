package buffer

import (
	"container/list"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"github.com/stonefishdb/stonefishdb/types"
)

// lruKNode tracks one frame's access history. Once count reaches k the
// frame has "graduated" from the history list to the cache list; further
// accesses keep incrementing count and just move it to the cache list's
// front.
type lruKNode struct {
	count     int
	evictable bool
	elem      *list.Element
	inCache   bool
}

// LRUKReplacer implements the LRU-K eviction policy:
// frames with fewer than k accesses are tracked in a history list,
// ordered by recency of their single representative access; frames with
// k or more accesses move to a cache list, ordered by backward
// k-distance via most-recent-first placement. Evict always prefers the
// history list, scanning back-to-front (oldest is the list's back), and
// only falls back to the cache list if the history list holds no
// evictable frame.
type LRUKReplacer struct {
	latch deadlock.Mutex

	histList  *list.List // front = most recent, back = oldest
	cacheList *list.List

	nodeStore map[types.FrameID]*lruKNode

	replacerSize int
	k            int
	currSize     int
}

// NewLRUKReplacer constructs a replacer over numFrames frame slots, with
// the given k.
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	return &LRUKReplacer{
		histList:     list.New(),
		cacheList:    list.New(),
		nodeStore:    make(map[types.FrameID]*lruKNode),
		replacerSize: numFrames,
		k:            k,
	}
}

// Evict picks a victim frame among the evictable frames and removes its
// bookkeeping. Returns false if no frame is evictable.
func (r *LRUKReplacer) Evict() (types.FrameID, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	if fid, ok := r.evictFrom(r.histList); ok {
		delete(r.nodeStore, fid)
		r.currSize--
		return fid, true
	}
	if fid, ok := r.evictFrom(r.cacheList); ok {
		delete(r.nodeStore, fid)
		r.currSize--
		return fid, true
	}
	return types.InvalidFrameID, false
}

// evictFrom scans lst from the back (oldest) towards the front, removing
// and returning the first evictable frame it finds.
func (r *LRUKReplacer) evictFrom(lst *list.List) (types.FrameID, bool) {
	for e := lst.Back(); e != nil; e = e.Prev() {
		fid := e.Value.(types.FrameID)
		if r.nodeStore[fid].evictable {
			lst.Remove(e)
			return fid, true
		}
	}
	return types.InvalidFrameID, false
}

// RecordAccess registers that frameID was just accessed, advancing its
// access count and repositioning it per the history/cache transition
// rules above. Panics if frameID is out of the replacer's frame range —
// an invalid argument from a caller that should have validated it
// already.
func (r *LRUKReplacer) RecordAccess(frameID types.FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()

	if int(frameID) >= r.replacerSize || frameID < 0 {
		panic(fmt.Sprintf("lru_k_replacer: invalid frame id %d", frameID))
	}

	node, ok := r.nodeStore[frameID]
	if !ok {
		node = &lruKNode{}
		r.nodeStore[frameID] = node
	}
	node.count++

	switch {
	case node.count == 1:
		node.elem = r.histList.PushFront(frameID)
	case node.count == r.k:
		r.histList.Remove(node.elem)
		node.elem = r.cacheList.PushFront(frameID)
		node.inCache = true
	case node.count > r.k:
		r.cacheList.Remove(node.elem)
		node.elem = r.cacheList.PushFront(frameID)
	}
}

// SetEvictable toggles whether frameID may be chosen as an eviction
// victim, adjusting the replacer's tracked size. A frame the pool has
// pinned is not evictable; the pool flips this back and forth as pin
// counts go to and from zero.
func (r *LRUKReplacer) SetEvictable(frameID types.FrameID, evictable bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	if int(frameID) >= r.replacerSize || frameID < 0 {
		panic(fmt.Sprintf("lru_k_replacer: invalid frame id %d", frameID))
	}

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if evictable && !node.evictable {
		r.currSize++
	} else if node.evictable && !evictable {
		r.currSize--
	}
	node.evictable = evictable
}

// Remove erases frameID's access history outright, without evicting a
// page through the normal path. Panics if the frame is currently
// non-evictable — the caller is expected to have unpinned it first.
func (r *LRUKReplacer) Remove(frameID types.FrameID) {
	r.latch.Lock()
	defer r.latch.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if !node.evictable {
		panic(fmt.Sprintf("lru_k_replacer: cannot remove non-evictable frame %d", frameID))
	}

	if node.inCache {
		r.cacheList.Remove(node.elem)
	} else {
		r.histList.Remove(node.elem)
	}
	delete(r.nodeStore, frameID)
	r.currSize--
}

// Size reports how many frames are currently evictable.
func (r *LRUKReplacer) Size() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.currSize
}
