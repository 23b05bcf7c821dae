package disk

import (
	"github.com/stonefishdb/stonefishdb/common"
	"github.com/stonefishdb/stonefishdb/types"
)

// DiskRequest is one asynchronous page I/O request: a
// write copies Data to PageID, a read copies PageID into Data. Done
// receives the operation's error (nil on success) once the device
// operation has completed.
type DiskRequest struct {
	IsWrite bool
	Data    []byte
	PageID  types.PageID
	Done    chan error
}

// NewDiskRequest builds a request with a fresh completion channel.
func NewDiskRequest(isWrite bool, data []byte, pageID types.PageID) DiskRequest {
	return DiskRequest{IsWrite: isWrite, Data: data, PageID: pageID, Done: make(chan error, 1)}
}

// DiskScheduler serializes page I/O requests and completes each by
// executing it against a DiskManager on a single background worker.
// Requests are served in FIFO order; the worker forks one goroutine per
// request and waits for it before dequeuing the next.
type DiskScheduler struct {
	diskManager DiskManager
	queue       chan *DiskRequest
	stopped     chan struct{}
}

// NewDiskScheduler starts the scheduler's worker goroutine.
func NewDiskScheduler(diskManager DiskManager) *DiskScheduler {
	s := &DiskScheduler{
		diskManager: diskManager,
		queue:       make(chan *DiskRequest, 256),
		stopped:     make(chan struct{}),
	}
	go s.startWorkerThread()
	return s
}

// Schedule enqueues a request and returns immediately; the caller reads
// req.Done to learn the outcome.
func (s *DiskScheduler) Schedule(req *DiskRequest) {
	s.queue <- req
}

// ShutDown signals the worker to drain and exit. After ShutDown, further
// Schedule calls are invalid. Blocks until the worker has exited, so
// every previously enqueued request has completed by the time it
// returns.
func (s *DiskScheduler) ShutDown() {
	close(s.queue)
	<-s.stopped
}

func (s *DiskScheduler) startWorkerThread() {
	defer close(s.stopped)
	for req := range s.queue {
		done := make(chan struct{})
		go func(req *DiskRequest) {
			defer close(done)
			s.processRequest(req)
		}(req)
		<-done
	}
}

func (s *DiskScheduler) processRequest(req *DiskRequest) {
	var err error
	if req.IsWrite {
		err = s.diskManager.WritePage(req.PageID, req.Data)
	} else {
		err = s.diskManager.ReadPage(req.PageID, req.Data)
	}
	if err != nil {
		common.Log().Errorw("disk request failed", "page_id", req.PageID, "is_write", req.IsWrite, "err", err)
	}
	req.Done <- err
}
