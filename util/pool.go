package util

import "sync"

// BufPool provides reusable read buffers.  The event loop borrows one
// per readiness event and copies what it read into the session's own
// accumulator, so no buffer is ever shared between two connections.
var BufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
