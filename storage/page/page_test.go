// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

func TestPageResetAndPin(t *testing.T) {
	p := NewEmptyPage()
	p.Reset(types.PageID(0))

	assert.Equal(t, types.PageID(0), p.ID())
	assert.Equal(t, int32(1), p.PinCount())
	p.IncPinCount()
	assert.Equal(t, int32(2), p.PinCount())
	p.DecPinCount()
	p.DecPinCount()
	assert.Equal(t, int32(0), p.PinCount())
	assert.False(t, p.IsDirty())
	p.SetIsDirty(true)
	assert.True(t, p.IsDirty())

	copy(p.Data()[:], []byte{'H', 'E', 'L', 'L', 'O'})
	var want [common.PageSize]byte
	copy(want[:], []byte{'H', 'E', 'L', 'L', 'O'})
	assert.Equal(t, want, *p.Data())
}

func TestPageEvictClearsIdentity(t *testing.T) {
	p := NewEmptyPage()
	p.Reset(types.PageID(7))
	p.SetIsDirty(true)

	p.Evict()

	assert.Equal(t, types.InvalidPageID, p.ID())
	assert.Equal(t, int32(0), p.PinCount())
	assert.False(t, p.IsDirty())
}
