// this code is adapted from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// ReaderWriterLatch is the per-frame shared/exclusive latch: independent
// of the buffer pool's internal lock, it enforces reader/writer
// exclusion on page contents and is what read/write page guards acquire
// and release.
type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

type readerWriterLatch struct {
	mutex deadlock.RWMutex
}

// NewRWLatch returns a fresh, unlocked latch.
func NewRWLatch() ReaderWriterLatch {
	return &readerWriterLatch{}
}

func (l *readerWriterLatch) WLock()   { l.mutex.Lock() }
func (l *readerWriterLatch) WUnlock() { l.mutex.Unlock() }
func (l *readerWriterLatch) RLock()   { l.mutex.RLock() }
func (l *readerWriterLatch) RUnlock() { l.mutex.RUnlock() }
