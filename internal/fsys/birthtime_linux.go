//go:build linux

package fsys

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx for the inode creation time.  ok is false when the
// kernel or filesystem does not record one.
func birthTime(path string) (t time.Time, ok bool) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
