package player

import (
	"time"

	"github.com/GoldenFealla/framesync/internal/media"
)

// State is the playback clock state.
type State int

const (
	Stopped State = iota
	Loading
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the engine state for display.
type Snapshot struct {
	State State
	Item  media.Item
	// Frame is the displayed frame, -1 before the first render.
	Frame int
	// Target is the frame the last tick asked for.
	Target   int
	Anchor   time.Time
	Buffered int
	Seeking  bool
	Audio    bool
	Status   string
}

// Elapsed is the presentation time of the displayed frame.
func (s Snapshot) Elapsed() time.Duration {
	if s.Frame < 0 {
		return 0
	}
	return s.Item.Offset(s.Frame)
}

func (s Snapshot) Progress() float64 {
	return s.Item.Progress(s.Frame)
}

// TimeLabel renders "mm:ss / mm:ss".
func (s Snapshot) TimeLabel() string {
	return media.FormatTime(s.Elapsed()) + " / " + media.FormatTime(s.Item.Duration)
}
