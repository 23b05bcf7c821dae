package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefishdb/stonefishdb/common"
)

func TestDiskSchedulerFIFOWriteOrdering(t *testing.T) {
	dm := NewMemDiskManager()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)
	defer scheduler.ShutDown()

	pageID := dm.AllocatePage()

	dataA := make([]byte, common.PageSize)
	copy(dataA, "A...")
	reqA := NewDiskRequest(true, dataA, pageID)
	scheduler.Schedule(&reqA)
	require.NoError(t, <-reqA.Done)

	dataB := make([]byte, common.PageSize)
	copy(dataB, "B...")
	reqB := NewDiskRequest(true, dataB, pageID)
	scheduler.Schedule(&reqB)
	require.NoError(t, <-reqB.Done)

	readBuf := make([]byte, common.PageSize)
	reqRead := NewDiskRequest(false, readBuf, pageID)
	scheduler.Schedule(&reqRead)
	require.NoError(t, <-reqRead.Done)

	assert.Equal(t, dataB, readBuf)
}

func TestDiskSchedulerPropagatesDeviceError(t *testing.T) {
	dm := NewMemDiskManager()
	defer dm.ShutDown()
	scheduler := NewDiskScheduler(dm)
	defer scheduler.ShutDown()

	// Reading an id that was never allocated/written is past the end of
	// file for MemDiskManager and must surface as a request error.
	buf := make([]byte, common.PageSize)
	req := NewDiskRequest(false, buf, 42)
	scheduler.Schedule(&req)
	assert.Error(t, <-req.Done)
}
