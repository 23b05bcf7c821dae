// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"bytes"
	"encoding/binary"

	"github.com/stonefishdb/stonefishdb/errors"
)

// PageID is the type of a page identifier: a 32-bit integer handed out
// monotonically by the DiskManager's AllocatePage (the buffer pool calls
// it for every new page; it keeps no counter of its own), never reused
// within a process lifetime.
type PageID int32

// InvalidPageID is the sentinel meaning "no page."
const InvalidPageID = PageID(-1)

// DeallocatedPageErr is returned by a DiskManager when asked to read a
// page identifier that has already been deallocated.
const DeallocatedPageErr = errors.Error("deallocated page id was passed")

// IsValid reports whether id is usable as a real page identifier.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

// Serialize encodes the id in host byte order.
func (id PageID) Serialize() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, id)
	return buf.Bytes()
}

// NewPageIDFromBytes decodes a page id previously produced by Serialize.
func NewPageIDFromBytes(data []byte) (ret PageID) {
	_ = binary.Read(bytes.NewBuffer(data), binary.LittleEndian, &ret)
	return ret
}
