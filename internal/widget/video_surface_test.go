package widget

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVideoSurface(t *testing.T) {
	Convey("Given a video surface", t, func() {
		test.NewApp()

		var sizes [][2]int
		s := NewVideoSurface(func(w, h int) {
			sizes = append(sizes, [2]int{w, h})
		})
		r := test.WidgetRenderer(s)

		Convey("layout reports each new size once", func() {
			r.Layout(fyne.NewSize(640, 360))
			r.Layout(fyne.NewSize(640, 360))
			r.Layout(fyne.NewSize(800, 450))

			So(sizes, ShouldResemble, [][2]int{{640, 360}, {800, 450}})
		})

		Convey("a presented frame reaches the canvas image", func() {
			img := image.NewRGBA(image.Rect(0, 0, 32, 18))
			s.Present(img, 32, 18)

			So(s.Frame(), ShouldEqual, img)
			r.Refresh()
			So(r.Objects()[1].(*canvas.Image).Image, ShouldEqual, img)

			s.Clear()
			So(s.Frame(), ShouldBeNil)
		})

		Convey("a frame presented from another goroutine is shown", func() {
			img := image.NewRGBA(image.Rect(0, 0, 16, 9))
			done := make(chan struct{})
			go func() {
				defer close(done)
				s.Present(img, 16, 9)
			}()
			<-done

			So(s.Frame(), ShouldEqual, img)
			r.Refresh()
			So(r.Objects()[1].(*canvas.Image).Image, ShouldEqual, img)
		})
	})
}
