//go:build !linux

package playlist

import (
	"os"
	"time"
)

func creationTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
