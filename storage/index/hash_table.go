package index

import (
	"bytes"
	"encoding/binary"

	pair "github.com/notEpsilon/go-pair"
	"github.com/spaolacci/murmur3"

	"github.com/stonefishdb/stonefishdb/storage/buffer"
	"github.com/stonefishdb/stonefishdb/types"
)

// Int32Comparator orders int32 keys numerically. A convenience
// comparator for the common case of integer keys.
func Int32Comparator(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Murmur3HashFunc builds a hash function over fixed-width keys using
// murmur3, suitable as the hash_fn construction parameter.
func Murmur3HashFunc[K any]() func(K) uint32 {
	return func(k K) uint32 {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, k)
		return murmur3.Sum32(buf.Bytes())
	}
}

// HashTable is a persistent multi-key hash map over the buffer pool
//: a header page selects a directory page by the top
// header_max_depth bits of a key's hash, the directory selects a bucket
// page by the low global_depth bits, and the bucket stores entries
// sorted under cmp.
type HashTable[K any, V any] struct {
	name string
	bpm  *buffer.BufferPoolManager
	cmp  Comparator[K]
	hash func(K) uint32

	headerPageID types.PageID

	headerMaxDepth    uint32
	directoryMaxDepth uint32
	bucketMaxSize     uint32
}

// NewHashTable allocates the header page and constructs the index.
func NewHashTable[K any, V any](
	name string,
	bpm *buffer.BufferPoolManager,
	cmp Comparator[K],
	hashFn func(K) uint32,
	headerMaxDepth, directoryMaxDepth, bucketMaxSize uint32,
) *HashTable[K, V] {
	pageID, guard := bpm.NewPageGuarded()
	defer guard.Drop()

	h := &HashTable[K, V]{
		name:              name,
		bpm:               bpm,
		cmp:               cmp,
		hash:              hashFn,
		headerPageID:      pageID,
		headerMaxDepth:    headerMaxDepth,
		directoryMaxDepth: directoryMaxDepth,
		bucketMaxSize:     bucketMaxSize,
	}
	if guard.IsValid() {
		header := NewHeaderPage(guard.Page().Data())
		header.Init(headerMaxDepth)
		guard.MarkDirty()
	}
	return h
}

// Get returns every value stored for key.
func (h *HashTable[K, V]) Get(key K) []V {
	bucketPageID, ok := h.findBucketPageID(key)
	if !ok {
		return nil
	}
	guard := h.bpm.FetchPageRead(bucketPageID)
	defer guard.Drop()
	if !guard.IsValid() {
		return nil
	}
	bucket := NewBucketPage[K, V](guard.Page().Data())
	if value, found := bucket.Lookup(key, h.cmp); found {
		return []V{value}
	}
	return nil
}

func (h *HashTable[K, V]) findBucketPageID(key K) (types.PageID, bool) {
	headerGuard := h.bpm.FetchPageRead(h.headerPageID)
	defer headerGuard.Drop()
	if !headerGuard.IsValid() {
		return types.InvalidPageID, false
	}
	header := NewHeaderPage(headerGuard.Page().Data())
	dirPageID := header.GetDirectoryPageId(header.HashToDirectoryIndex(h.hash(key)))
	if !dirPageID.IsValid() {
		return types.InvalidPageID, false
	}

	dirGuard := h.bpm.FetchPageRead(dirPageID)
	defer dirGuard.Drop()
	if !dirGuard.IsValid() {
		return types.InvalidPageID, false
	}
	directory := NewDirectoryPage(dirGuard.Page().Data())
	bucketPageID := directory.GetBucketPageId(directory.HashToBucketIndex(h.hash(key)))
	if !bucketPageID.IsValid() {
		return types.InvalidPageID, false
	}
	return bucketPageID, true
}

// Insert adds (key, value), splitting buckets and growing the directory
// as needed. Fails if key already exists, or if a needed
// split would exceed directory_max_depth, or the pool is exhausted.
func (h *HashTable[K, V]) Insert(key K, value V) bool {
	headerGuard := h.bpm.FetchPageWrite(h.headerPageID)
	if !headerGuard.IsValid() {
		headerGuard.Drop()
		return false
	}
	header := NewHeaderPage(headerGuard.Page().Data())
	dirIdx := header.HashToDirectoryIndex(h.hash(key))
	dirPageID := header.GetDirectoryPageId(dirIdx)

	if !dirPageID.IsValid() {
		newDirID, dirGuard := h.bpm.NewPageGuarded()
		if !dirGuard.IsValid() {
			headerGuard.Drop()
			return false
		}
		directory := NewDirectoryPage(dirGuard.Page().Data())
		directory.Init(h.directoryMaxDepth)
		dirGuard.MarkDirty()
		dirGuard.Drop()

		header.SetDirectoryPageId(dirIdx, newDirID)
		dirPageID = newDirID
	}
	headerGuard.Drop()

	return h.insertIntoDirectory(dirPageID, key, value)
}

func (h *HashTable[K, V]) insertIntoDirectory(dirPageID types.PageID, key K, value V) bool {
	dirGuard := h.bpm.FetchPageWrite(dirPageID)
	if !dirGuard.IsValid() {
		dirGuard.Drop()
		return false
	}
	defer dirGuard.Drop()
	directory := NewDirectoryPage(dirGuard.Page().Data())

	bucketIdx := directory.HashToBucketIndex(h.hash(key))
	bucketPageID := directory.GetBucketPageId(bucketIdx)

	if !bucketPageID.IsValid() {
		newBucketID, bucketGuard := h.bpm.NewPageGuarded()
		if !bucketGuard.IsValid() {
			return false
		}
		bucket := NewBucketPage[K, V](bucketGuard.Page().Data())
		bucket.Init(h.bucketMaxSize)
		bucketGuard.MarkDirty()
		bucketGuard.Drop()

		directory.SetBucketPageId(bucketIdx, newBucketID)
		directory.SetLocalDepth(bucketIdx, 0)
		bucketPageID = newBucketID
	}

	bucketGuard := h.bpm.FetchPageWrite(bucketPageID)
	if !bucketGuard.IsValid() {
		bucketGuard.Drop()
		return false
	}
	bucket := NewBucketPage[K, V](bucketGuard.Page().Data())

	if _, found := bucket.Lookup(key, h.cmp); found {
		bucketGuard.Drop()
		return false
	}

	if !bucket.IsFull() {
		bucket.Insert(key, value, h.cmp)
		bucketGuard.Drop()
		return true
	}

	// Split: grow the directory first if this bucket has no spare depth
	// to give.
	if directory.GetLocalDepth(bucketIdx) == directory.GlobalDepth() {
		if !directory.IncrGlobalDepth() {
			bucketGuard.Drop()
			return false
		}
	}
	directory.IncrLocalDepth(bucketIdx)

	if !h.splitBucket(directory, bucket, bucketIdx, bucketPageID) {
		bucketGuard.Drop()
		return false
	}
	bucketGuard.Drop()

	// Retry the insert (tail recursion): the directory is fully updated
	// before this point, so the key lands in exactly one of the two
	// post-split buckets. The directory latch is released first so the
	// retry can acquire it again.
	dirGuard.Drop()
	return h.insertIntoDirectory(dirPageID, key, value)
}

// splitBucket allocates a sibling bucket, repartitions bucket's entries
// between the two by the newly significant hash bit, and repoints every
// directory slot that shared the old bucket's id.
func (h *HashTable[K, V]) splitBucket(directory *DirectoryPage, bucket *BucketPage[K, V], bucketIdx uint32, oldBucketPageID types.PageID) bool {
	newLocalDepth := directory.GetLocalDepth(bucketIdx)
	splitBit := uint32(1) << (newLocalDepth - 1)

	newBucketPageID, newBucketGuard := h.bpm.NewPageGuarded()
	if !newBucketGuard.IsValid() {
		return false
	}
	defer newBucketGuard.Drop()
	newBucket := NewBucketPage[K, V](newBucketGuard.Page().Data())
	newBucket.Init(h.bucketMaxSize)
	newBucketGuard.MarkDirty()

	entries := make([]pair.Pair[K, V], bucket.Size())
	for i := uint32(0); i < bucket.Size(); i++ {
		entries[i] = bucket.EntryAt(i)
	}
	bucket.Clear()
	for _, e := range entries {
		if h.hash(e.First)&splitBit != 0 {
			newBucket.Insert(e.First, e.Second, h.cmp)
		} else {
			bucket.Insert(e.First, e.Second, h.cmp)
		}
	}

	for i := uint32(0); i < directory.Size(); i++ {
		if directory.GetBucketPageId(i) != oldBucketPageID {
			continue
		}
		directory.SetLocalDepth(i, newLocalDepth)
		if i&splitBit != 0 {
			directory.SetBucketPageId(i, newBucketPageID)
		}
	}
	return true
}

// Remove deletes key's entry, merges emptied buckets with their split
// image where possible (cascading), and shrinks the directory while it
// can. Fails if key is not present.
func (h *HashTable[K, V]) Remove(key K) bool {
	headerGuard := h.bpm.FetchPageRead(h.headerPageID)
	if !headerGuard.IsValid() {
		headerGuard.Drop()
		return false
	}
	header := NewHeaderPage(headerGuard.Page().Data())
	dirPageID := header.GetDirectoryPageId(header.HashToDirectoryIndex(h.hash(key)))
	headerGuard.Drop()
	if !dirPageID.IsValid() {
		return false
	}

	dirGuard := h.bpm.FetchPageWrite(dirPageID)
	if !dirGuard.IsValid() {
		dirGuard.Drop()
		return false
	}
	defer dirGuard.Drop()
	directory := NewDirectoryPage(dirGuard.Page().Data())

	bucketIdx := directory.HashToBucketIndex(h.hash(key))
	bucketPageID := directory.GetBucketPageId(bucketIdx)
	if !bucketPageID.IsValid() {
		return false
	}

	bucketGuard := h.bpm.FetchPageWrite(bucketPageID)
	if !bucketGuard.IsValid() {
		bucketGuard.Drop()
		return false
	}
	bucket := NewBucketPage[K, V](bucketGuard.Page().Data())
	removed := bucket.Remove(key, h.cmp)
	if removed {
	}
	bucketGuard.Drop()
	if !removed {
		return false
	}

	h.tryMergeBucket(directory, bucketIdx, bucketPageID)
	for directory.CanShrink() {
		directory.DecrGlobalDepth()
	}
	return true
}

// tryMergeBucket merges bucketPageID with its split image while one of
// the pair is empty and both share local depth, cascading as far as it
// can.
func (h *HashTable[K, V]) tryMergeBucket(directory *DirectoryPage, bucketIdx uint32, bucketPageID types.PageID) {
	for {
		localDepth := directory.GetLocalDepth(bucketIdx)
		if localDepth == 0 {
			return
		}
		splitIdx := directory.GetSplitImageIndex(bucketIdx)
		if directory.GetLocalDepth(splitIdx) != localDepth {
			return
		}
		siblingPageID := directory.GetBucketPageId(splitIdx)
		if !siblingPageID.IsValid() || siblingPageID == bucketPageID {
			return
		}

		bucketEmpty := h.bucketIsEmpty(bucketPageID)
		siblingEmpty := h.bucketIsEmpty(siblingPageID)
		if !bucketEmpty && !siblingEmpty {
			return
		}

		survivorPageID, deadPageID := bucketPageID, siblingPageID
		if bucketEmpty && !siblingEmpty {
			survivorPageID, deadPageID = siblingPageID, bucketPageID
		}

		newLocalDepth := localDepth - 1
		for i := uint32(0); i < directory.Size(); i++ {
			if directory.GetBucketPageId(i) == bucketPageID || directory.GetBucketPageId(i) == siblingPageID {
				directory.SetBucketPageId(i, survivorPageID)
				directory.SetLocalDepth(i, newLocalDepth)
			}
		}

		h.bpm.DeletePage(deadPageID)

		bucketPageID = survivorPageID
		bucketIdx = h.anySlotFor(directory, survivorPageID)
	}
}

func (h *HashTable[K, V]) bucketIsEmpty(pageID types.PageID) bool {
	guard := h.bpm.FetchPageRead(pageID)
	defer guard.Drop()
	if !guard.IsValid() {
		return true
	}
	return NewBucketPage[K, V](guard.Page().Data()).IsEmpty()
}

func (h *HashTable[K, V]) anySlotFor(directory *DirectoryPage, pageID types.PageID) uint32 {
	for i := uint32(0); i < directory.Size(); i++ {
		if directory.GetBucketPageId(i) == pageID {
			return i
		}
	}
	return 0
}
