// Package widget holds the fyne presentation surface and the playback controls.
package widget

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// VideoSurface shows the engine's frames, letterboxed on black, and reports its size.
type VideoSurface struct {
	widget.BaseWidget

	mu       sync.Mutex
	frame    image.Image
	onResize func(width, height int)
}

func NewVideoSurface(onResize func(width, height int)) *VideoSurface {
	s := &VideoSurface{onResize: onResize}
	s.ExtendBaseWidget(s)
	return s
}

// OnResize sets the size callback. It runs on the fyne goroutine.
func (s *VideoSurface) OnResize(fn func(width, height int)) {
	s.onResize = fn
}

// Present may be called from any goroutine; the redraw is posted to the fyne goroutine.
func (s *VideoSurface) Present(img image.Image, _, _ int) {
	s.mu.Lock()
	s.frame = img
	s.mu.Unlock()
	fyne.Do(s.Refresh)
}

// Frame returns the picture on screen.
func (s *VideoSurface) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Clear blanks the surface.
func (s *VideoSurface) Clear() {
	s.Present(nil, 0, 0)
}

func (s *VideoSurface) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.Black)
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest

	return &surfaceRenderer{
		surface: s,
		bg:      bg,
		img:     img,
		objects: []fyne.CanvasObject{bg, img},
	}
}

type surfaceRenderer struct {
	surface *VideoSurface
	bg      *canvas.Rectangle
	img     *canvas.Image
	objects []fyne.CanvasObject
	size    fyne.Size
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.img.Resize(size)

	if size == r.size {
		return
	}
	r.size = size
	if r.surface.onResize != nil {
		r.surface.onResize(int(size.Width), int(size.Height))
	}
}

func (r *surfaceRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 180)
}

func (r *surfaceRenderer) Refresh() {
	r.img.Image = r.surface.Frame()
	r.img.Refresh()
}

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *surfaceRenderer) Destroy() {}
