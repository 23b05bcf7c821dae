package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefishdb/stonefishdb/storage/buffer"
	"github.com/stonefishdb/stonefishdb/storage/disk"
)

func newTestHashTable(t *testing.T, headerMaxDepth, directoryMaxDepth, bucketMaxSize uint32) (*HashTable[int32, int32], func()) {
	t.Helper()
	dm := disk.NewMemDiskManager()
	bpm := buffer.NewBufferPoolManager(32, dm, 2)
	ht := NewHashTable[int32, int32]("test", bpm, Int32Comparator, Murmur3HashFunc[int32](), headerMaxDepth, directoryMaxDepth, bucketMaxSize)
	return ht, func() {
		bpm.ShutDown()
		dm.ShutDown()
	}
}

func TestHashTableGetInsertRemoveRoundTrip(t *testing.T) {
	ht, cleanup := newTestHashTable(t, 2, 4, 4)
	defer cleanup()

	for i := int32(0); i < 20; i++ {
		require.True(t, ht.Insert(i, i*10))
	}
	for i := int32(0); i < 20; i++ {
		got := ht.Get(i)
		require.Len(t, got, 1)
		assert.Equal(t, i*10, got[0])
	}

	assert.False(t, ht.Insert(5, 999)) // duplicate key

	assert.True(t, ht.Remove(5))
	assert.Empty(t, ht.Get(5))
	assert.False(t, ht.Remove(5)) // already gone

	for i := int32(0); i < 20; i++ {
		if i == 5 {
			continue
		}
		got := ht.Get(i)
		require.Len(t, got, 1)
		assert.Equal(t, i*10, got[0])
	}
}

// TestHashTableSplitOnOverflow covers bucket_max_size=2,
// directory_max_depth=3, header_max_depth=1: inserting a third key into
// an already-full two-entry bucket must trigger one or more
// directory-growing splits rather than failing, and every key distinct
// from its bucket-mates must stay retrievable afterward.
func TestHashTableSplitOnOverflow(t *testing.T) {
	ht, cleanup := newTestHashTable(t, 1, 3, 2)
	defer cleanup()

	require.True(t, ht.Insert(0, 0))
	require.True(t, ht.Insert(2, 20))
	require.True(t, ht.Insert(4, 40))

	for _, k := range []int32{0, 2, 4} {
		got := ht.Get(k)
		require.Lenf(t, got, 1, "key %d should be retrievable after split", k)
	}
}

// TestHashTableShrinkAfterRemovingSiblingPartitions fills the index
// until buckets split, removes every key, and confirms that every
// directory has merged its buckets and shrunk back to global depth 0.
func TestHashTableShrinkAfterRemovingSiblingPartitions(t *testing.T) {
	ht, cleanup := newTestHashTable(t, 2, 4, 2)
	defer cleanup()

	// Twelve keys over four directories of two-entry buckets: at least
	// one directory receives three keys and must split.
	keys := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for _, k := range keys {
		require.True(t, ht.Insert(k, k))
	}
	for _, k := range keys {
		require.Len(t, ht.Get(k), 1)
	}

	for _, k := range keys {
		require.True(t, ht.Remove(k))
	}
	for _, k := range keys {
		assert.Empty(t, ht.Get(k))
	}

	headerGuard := ht.bpm.FetchPageRead(ht.headerPageID)
	require.True(t, headerGuard.IsValid())
	header := NewHeaderPage(headerGuard.Page().Data())
	for i := uint32(0); i < header.Size(); i++ {
		dirPageID := header.GetDirectoryPageId(i)
		if !dirPageID.IsValid() {
			continue
		}
		dirGuard := ht.bpm.FetchPageRead(dirPageID)
		require.True(t, dirGuard.IsValid())
		assert.Equal(t, uint32(0), NewDirectoryPage(dirGuard.Page().Data()).GlobalDepth())
		dirGuard.Drop()
	}
	headerGuard.Drop()
}

func TestHashTableInsertFailsWhenDirectoryAtMaxDepth(t *testing.T) {
	ht, cleanup := newTestHashTable(t, 1, 1, 1)
	defer cleanup()

	// header_max_depth=1 gives two directories; directory_max_depth=1
	// caps each at two buckets; bucket_max_size=1 forces a split on the
	// second colliding key. At most four of the 64 keys fit, so the
	// remaining inserts must fail.
	inserted := 0
	for i := int32(0); i < 64; i++ {
		if ht.Insert(i, i) {
			inserted++
		}
	}
	assert.Greater(t, inserted, 0)
	assert.LessOrEqual(t, inserted, 4)
}
