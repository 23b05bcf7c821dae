package index

import (
	"bytes"
	"encoding/binary"

	pair "github.com/notEpsilon/go-pair"

	"github.com/stonefishdb/stonefishdb/common"
)

// Comparator orders two keys, returning a negative number, zero, or a
// positive number.
type Comparator[K any] func(a, b K) int

const bucketHeaderSize = 8 // size (u32) + max_size (u32)

// BucketPage is a disk-resident sorted array of (key, value) pairs,
// ordered by the comparator passed to each operation. K and V must be
// fixed-width, binary.Write/Read encodable types (integers, fixed-size
// arrays, or structs of such) so an entry's on-disk width is known from
// a zero value alone.
type BucketPage[K any, V any] struct {
	data      *[common.PageSize]byte
	keySize   int
	valueSize int
}

// NewBucketPage wraps data as a bucket page view parameterized by K, V.
func NewBucketPage[K any, V any](data *[common.PageSize]byte) *BucketPage[K, V] {
	var zk K
	var zv V
	keySize := binary.Size(zk)
	valueSize := binary.Size(zv)
	common.Assert(keySize > 0 && valueSize > 0, "bucket page key/value type is not fixed-width encodable")
	return &BucketPage[K, V]{data: data, keySize: keySize, valueSize: valueSize}
}

func (b *BucketPage[K, V]) entrySize() int { return b.keySize + b.valueSize }

// Init resets the bucket to empty, sized to hold at most maxSize
// entries (capped to whatever actually fits in the page).
func (b *BucketPage[K, V]) Init(maxSize uint32) {
	fits := uint32((common.PageSize - bucketHeaderSize) / b.entrySize())
	if maxSize > fits {
		maxSize = fits
	}
	binary.LittleEndian.PutUint32(b.data[0:4], 0)
	binary.LittleEndian.PutUint32(b.data[4:8], maxSize)
}

func (b *BucketPage[K, V]) Size() uint32    { return binary.LittleEndian.Uint32(b.data[0:4]) }
func (b *BucketPage[K, V]) MaxSize() uint32 { return binary.LittleEndian.Uint32(b.data[4:8]) }
func (b *BucketPage[K, V]) IsFull() bool    { return b.Size() >= b.MaxSize() }
func (b *BucketPage[K, V]) IsEmpty() bool   { return b.Size() == 0 }

// Clear empties the bucket without touching its max size.
func (b *BucketPage[K, V]) Clear() {
	binary.LittleEndian.PutUint32(b.data[0:4], 0)
}

func (b *BucketPage[K, V]) offsetFor(idx uint32) int {
	return bucketHeaderSize + int(idx)*b.entrySize()
}

func (b *BucketPage[K, V]) KeyAt(idx uint32) K {
	off := b.offsetFor(idx)
	var k K
	_ = binary.Read(bytes.NewReader(b.data[off:off+b.keySize]), binary.LittleEndian, &k)
	return k
}

func (b *BucketPage[K, V]) ValueAt(idx uint32) V {
	off := b.offsetFor(idx) + b.keySize
	var v V
	_ = binary.Read(bytes.NewReader(b.data[off:off+b.valueSize]), binary.LittleEndian, &v)
	return v
}

// EntryAt returns the (key, value) pair at idx as a pair.Pair.
func (b *BucketPage[K, V]) EntryAt(idx uint32) pair.Pair[K, V] {
	return *pair.New(b.KeyAt(idx), b.ValueAt(idx))
}

// KeyIndex binary-searches for key, returning its index if present or
// the insertion point that preserves sort order if not.
func (b *BucketPage[K, V]) KeyIndex(key K, cmp Comparator[K]) uint32 {
	left, right := 0, int(b.Size())-1
	for left <= right {
		mid := (left + right) / 2
		switch ret := cmp(key, b.KeyAt(uint32(mid))); {
		case ret > 0:
			left = mid + 1
		case ret < 0:
			right = mid - 1
		default:
			return uint32(mid)
		}
	}
	return uint32(left)
}

// Lookup returns the value stored for key, if present.
func (b *BucketPage[K, V]) Lookup(key K, cmp Comparator[K]) (V, bool) {
	var zero V
	if b.Size() == 0 {
		return zero, false
	}
	idx := b.KeyIndex(key, cmp)
	if idx >= b.Size() {
		return zero, false
	}
	if cmp(key, b.KeyAt(idx)) == 0 {
		return b.ValueAt(idx), true
	}
	return zero, false
}

// Insert adds (key, value) in sorted position. Fails if the bucket is
// full or key is already present.
func (b *BucketPage[K, V]) Insert(key K, value V, cmp Comparator[K]) bool {
	if b.IsFull() {
		return false
	}
	size := b.Size()
	if size == 0 {
		b.insertAt(0, key, value)
		return true
	}
	idx := b.KeyIndex(key, cmp)
	if idx < size && cmp(key, b.KeyAt(idx)) == 0 {
		return false
	}
	b.insertAt(idx, key, value)
	return true
}

func (b *BucketPage[K, V]) insertAt(idx uint32, key K, value V) {
	size := b.Size()
	for i := int(size) - 1; i >= int(idx); i-- {
		b.copyEntry(uint32(i), uint32(i+1))
	}
	b.setEntry(idx, key, value)
	binary.LittleEndian.PutUint32(b.data[0:4], size+1)
}

// Remove deletes key's entry, if present.
func (b *BucketPage[K, V]) Remove(key K, cmp Comparator[K]) bool {
	if b.Size() == 0 {
		return false
	}
	idx := b.KeyIndex(key, cmp)
	if idx >= b.Size() || cmp(key, b.KeyAt(idx)) != 0 {
		return false
	}
	b.removeAt(idx)
	return true
}

func (b *BucketPage[K, V]) removeAt(idx uint32) {
	size := b.Size()
	for i := idx; i < size-1; i++ {
		b.copyEntry(i+1, i)
	}
	binary.LittleEndian.PutUint32(b.data[0:4], size-1)
}

func (b *BucketPage[K, V]) copyEntry(src, dst uint32) {
	n := b.entrySize()
	srcOff, dstOff := b.offsetFor(src), b.offsetFor(dst)
	copy(b.data[dstOff:dstOff+n], b.data[srcOff:srcOff+n])
}

func (b *BucketPage[K, V]) setEntry(idx uint32, key K, value V) {
	off := b.offsetFor(idx)
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, key)
	_ = binary.Write(&buf, binary.LittleEndian, value)
	copy(b.data[off:off+b.entrySize()], buf.Bytes())
}
