package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefishdb/stonefishdb/storage/disk"
	"github.com/stonefishdb/stonefishdb/types"
)

func newTestPool(t *testing.T, poolSize int) (*BufferPoolManager, func()) {
	t.Helper()
	dm := disk.NewMemDiskManager()
	bpm := NewBufferPoolManager(poolSize, dm, 2)
	return bpm, func() {
		bpm.ShutDown()
		dm.ShutDown()
	}
}

// TestBufferPoolManagerExhaustionWhenAllPinned covers the case where
// every frame holds a pinned page: further NewPage/FetchPage calls must
// fail rather than evict a pinned frame.
func TestBufferPoolManagerExhaustionWhenAllPinned(t *testing.T) {
	bpm, cleanup := newTestPool(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		id, pg := bpm.NewPage()
		require.NotNil(t, pg)
		assert.Equal(t, types.PageID(i), id)
	}

	id, pg := bpm.NewPage()
	assert.Nil(t, pg)
	assert.Equal(t, types.InvalidPageID, id)

	assert.Nil(t, bpm.FetchPage(types.PageID(99)))
}

// TestBufferPoolManagerEvictsUnpinnedUnderPressure covers the case
// where unpinning frees a victim for the replacer to choose once the
// pool is otherwise full.
func TestBufferPoolManagerEvictsUnpinnedUnderPressure(t *testing.T) {
	bpm, cleanup := newTestPool(t, 2)
	defer cleanup()

	id0, pg0 := bpm.NewPage()
	require.NotNil(t, pg0)
	copy(pg0.Data()[:], []byte("page-zero"))

	id1, pg1 := bpm.NewPage()
	require.NotNil(t, pg1)

	assert.True(t, bpm.UnpinPage(id0, true))
	assert.True(t, bpm.UnpinPage(id1, false))

	id2, pg2 := bpm.NewPage()
	require.NotNil(t, pg2)
	assert.NotEqual(t, types.InvalidPageID, id2)
}

// TestBufferPoolManagerFlushEvictRefetchRoundTrip confirms that content
// written to a page survives eviction: the dirty page is written back
// to disk, and fetching its id again returns the same bytes.
func TestBufferPoolManagerFlushEvictRefetchRoundTrip(t *testing.T) {
	bpm, cleanup := newTestPool(t, 2)
	defer cleanup()

	id0, pg0 := bpm.NewPage()
	copy(pg0.Data()[:], []byte("round-trip-content"))
	require.True(t, bpm.UnpinPage(id0, true))

	id1, pg1 := bpm.NewPage()
	require.NotNil(t, pg1)
	require.True(t, bpm.UnpinPage(id1, false))

	// force eviction of id0 by requesting a third page on a two-frame pool
	id2, pg2 := bpm.NewPage()
	require.NotNil(t, pg2)
	require.True(t, bpm.UnpinPage(id2, false))

	refetched := bpm.FetchPage(id0)
	require.NotNil(t, refetched)
	var want [len("round-trip-content")]byte
	copy(want[:], "round-trip-content")
	assert.Equal(t, want[:], refetched.Data()[:len(want)])
	bpm.UnpinPage(id0, false)
}

func TestBufferPoolManagerUnpinUnknownPageFails(t *testing.T) {
	bpm, cleanup := newTestPool(t, 2)
	defer cleanup()

	assert.False(t, bpm.UnpinPage(types.PageID(123), false))
}

func TestBufferPoolManagerDeletePinnedPageFails(t *testing.T) {
	bpm, cleanup := newTestPool(t, 2)
	defer cleanup()

	id, pg := bpm.NewPage()
	require.NotNil(t, pg)

	assert.False(t, bpm.DeletePage(id))
	require.True(t, bpm.UnpinPage(id, false))
	assert.True(t, bpm.DeletePage(id))
	assert.True(t, bpm.DeletePage(id)) // deleting an already-absent page is a no-op success
}

func TestBufferPoolManagerFlushAllPages(t *testing.T) {
	bpm, cleanup := newTestPool(t, 3)
	defer cleanup()

	ids := make([]types.PageID, 0, 3)
	for i := 0; i < 3; i++ {
		id, pg := bpm.NewPage()
		require.NotNil(t, pg)
		copy(pg.Data()[:], []byte{byte('a' + i)})
		ids = append(ids, id)
	}

	bpm.FlushAllPages()

	for _, id := range ids {
		assert.True(t, bpm.UnpinPage(id, false))
	}
}
