package media

import (
	"image"
	"sync"
)

// RawFrame is a decoded picture tagged with its source frame index and the seek epoch it
// was decoded in.
type RawFrame struct {
	Index int
	Epoch uint64
	Image image.Image
}

// ProcessedFrame is a display-ready picture sized for the viewport it was processed for.
type ProcessedFrame struct {
	Index int
	Epoch uint64
	Image image.Image
}

// Viewport is a presentation surface size in pixels.
type Viewport struct {
	Width  int
	Height int
}

// FitSize fits a srcW x srcH picture inside vp keeping its aspect ratio.
func FitSize(vp Viewport, srcW, srcH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return max(1, vp.Width), max(1, vp.Height)
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return srcW, srcH
	}

	var w, h int
	if vp.Width*srcH > vp.Height*srcW {
		h = vp.Height
		w = vp.Height * srcW / srcH
	} else {
		w = vp.Width
		h = vp.Width * srcH / srcW
	}
	return max(1, w), max(1, h)
}

// ViewportState is the single shared "last known viewport size".
type ViewportState struct {
	mu sync.Mutex
	vp Viewport
}

func NewViewportState(vp Viewport) *ViewportState {
	return &ViewportState{vp: vp}
}

func (s *ViewportState) Get() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

// Set records a new size. Degenerate sizes are ignored. It reports whether the size changed.
func (s *ViewportState) Set(vp Viewport) bool {
	if vp.Width <= 1 || vp.Height <= 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vp == vp {
		return false
	}
	s.vp = vp
	return true
}
