// Package media holds the frame-level building blocks of the playback engine: the media
// item description, raw and processed frames, the intake queue, the frame buffer and the
// processing pool that connects them.
package media

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// ErrEndOfStream is returned by a FrameSource once the last frame has been read.
var ErrEndOfStream = errors.New("media: end of stream")

// Item describes a probed media file. It is immutable once probed.
type Item struct {
	Path        string
	FrameRate   float64
	TotalFrames int
	Duration    time.Duration
	Width       int
	Height      int
	HasAudio    bool
}

// Name is the item's basename.
func (i Item) Name() string {
	return filepath.Base(i.Path)
}

// FrameAt maps a normalized progress value in [0,1] to floor(progress*TotalFrames),
// clamped to a valid frame index.
func (i Item) FrameAt(progress float64) int {
	if i.TotalFrames <= 0 {
		return 0
	}
	progress = math.Max(0, math.Min(1, progress))
	f := int(math.Floor(progress * float64(i.TotalFrames)))
	return i.Clamp(f)
}

// Clamp bounds a frame index to [0, TotalFrames-1].
func (i Item) Clamp(frame int) int {
	if frame < 0 || i.TotalFrames <= 0 {
		return 0
	}
	if frame >= i.TotalFrames {
		return i.TotalFrames - 1
	}
	return frame
}

// Offset is the presentation time of a frame, rounded up to the nanosecond so that
// FrameAtTime(Offset(f)) is f.
func (i Item) Offset(frame int) time.Duration {
	if i.FrameRate <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(float64(frame) * float64(time.Second) / i.FrameRate))
}

// FrameAtTime is the frame due after elapsed playback time.
func (i Item) FrameAtTime(elapsed time.Duration) int {
	return int(math.Floor(elapsed.Seconds() * i.FrameRate))
}

// Progress is the fraction of the item covered by frame.
func (i Item) Progress(frame int) float64 {
	if i.TotalFrames <= 0 || frame < 0 {
		return 0
	}
	return float64(frame) / float64(i.TotalFrames)
}

func (i Item) String() string {
	return fmt.Sprintf("%s (%dx%d, %.3f fps, %d frames)", i.Name(), i.Width, i.Height, i.FrameRate, i.TotalFrames)
}

// FormatTime renders seconds as mm:ss.
func FormatTime(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
