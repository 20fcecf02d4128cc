//go:build linux

package playlist

import (
	"os"
	"syscall"
	"time"
)

// creationTime is the inode change time, which is what Linux reports as ctime.
func creationTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return fi.ModTime()
}
