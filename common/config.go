// this code is adapted from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

var EnableDebug bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// invalid frame id
	InvalidFrameID = -1
	// size of a data page in bytes
	PageSize = 4096
	// header page directory-id array width cap, so the on-disk array still
	// fits one PageSize page for any header_max_depth the caller configures
	HeaderMaxDepthCap = 9
	// directory page bucket-id / local-depth array width cap, for the same
	// reason as HeaderMaxDepthCap
	DirectoryMaxDepthCap = 9
)
