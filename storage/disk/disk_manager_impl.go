// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"errors"
	"io"
	"os"

	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

// FileDiskManager is the file-backed implementation of DiskManager: one
// regular file, pages addressed by pageID*PageSize byte offset.
type FileDiskManager struct {
	db         *os.File
	fileName   string
	nextPageID types.PageID
	numWrites  uint64
	size       int64
}

// NewFileDiskManager opens (creating if necessary) dbFilename and returns
// a DiskManager backed by it.
func NewFileDiskManager(dbFilename string) (DiskManager, error) {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, err
	}

	fileSize := fileInfo.Size()
	nPages := fileSize / common.PageSize
	nextPageID := types.PageID(0)
	if nPages > 0 {
		nextPageID = types.PageID(int32(nPages))
	}

	return &FileDiskManager{
		db:         file,
		fileName:   dbFilename,
		nextPageID: nextPageID,
		size:       fileSize,
	}, nil
}

// ShutDown closes the backing file.
func (d *FileDiskManager) ShutDown() {
	_ = d.db.Close()
}

// WritePage writes pageData to pageID's offset and fsyncs before
// returning, satisfying the core's assumption that writes reach the
// device before a flush call returns.
func (d *FileDiskManager) WritePage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize
	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	written, err := d.db.Write(pageData)
	if err != nil {
		return err
	}
	if written != common.PageSize {
		return errors.New("disk: bytes written not equal to page size")
	}
	if offset+int64(written) > d.size {
		d.size = offset + int64(written)
	}
	d.numWrites++
	return d.db.Sync()
}

// ReadPage reads pageID's contents into pageData. Reading past the
// written extent of the file zero-fills pageData rather than failing,
// so a freshly allocated page reads back as zeroes before its first
// write.
func (d *FileDiskManager) ReadPage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize
	fileInfo, err := d.db.Stat()
	if err != nil {
		return err
	}
	if offset >= fileInfo.Size() {
		for i := range pageData {
			pageData[i] = 0
		}
		return nil
	}
	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	read, err := d.db.Read(pageData)
	if err != nil && err != io.EOF {
		return err
	}
	for i := read; i < len(pageData); i++ {
		pageData[i] = 0
	}
	return nil
}

// AllocatePage hands out the next monotonically increasing page id.
func (d *FileDiskManager) AllocatePage() types.PageID {
	id := d.nextPageID
	d.nextPageID++
	return id
}

// DeallocatePage is a no-op: page ids are never reused, so
// there is no free-space bitmap to maintain.
func (d *FileDiskManager) DeallocatePage(types.PageID) {}

// GetNumWrites returns the number of WritePage calls that have completed.
func (d *FileDiskManager) GetNumWrites() uint64 { return d.numWrites }

// Size returns the backing file's logical size in bytes.
func (d *FileDiskManager) Size() int64 { return d.size }

// RemoveFile deletes the backing file. Only safe after ShutDown.
func (d *FileDiskManager) RemoveFile() {
	_ = os.Remove(d.fileName)
}
