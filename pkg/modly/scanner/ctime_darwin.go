//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// createTime returns the birth time from the stat structure.
func createTime(_ string, info fs.FileInfo) (time.Time, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat.Birthtimespec.Sec == 0 {
		return time.Time{}, false
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec), true
}
