//go:build !darwin && !linux && !windows

package scanner

import (
	"io/fs"
	"time"
)

// createTime reports no creation time on platforms without one.
func createTime(string, fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
