//go:build linux

package scanner

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// createTime returns the birth time reported by statx. Filesystems that do
// not record it leave STATX_BTIME unset in the mask.
func createTime(path string, _ fs.FileInfo) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 || stx.Btime.Sec == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
