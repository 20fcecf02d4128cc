package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type countingConverter struct {
	calls atomic.Int32
	fail  int
}

func (c *countingConverter) Convert(src image.Image, w, h int) (image.Image, error) {
	c.calls.Add(1)
	if src.Bounds().Dx() == c.fail {
		return nil, errors.New("boom")
	}
	return ScaleConverter{}.Convert(src, w, h)
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestScaleConverter(t *testing.T) {
	Convey("ScaleConverter", t, func() {
		Convey("Resizes to the requested size", func() {
			out, err := ScaleConverter{}.Convert(solid(64, 36), 32, 18)
			So(err, ShouldBeNil)
			So(out.Bounds().Dx(), ShouldEqual, 32)
			So(out.Bounds().Dy(), ShouldEqual, 18)
			r, _, _, _ := out.At(10, 10).RGBA()
			So(r>>8, ShouldEqual, 200)
		})

		Convey("Converts colour without scaling when sizes match", func() {
			src := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)
			out, err := ScaleConverter{}.Convert(src, 8, 8)
			So(err, ShouldBeNil)
			_, ok := out.(*image.RGBA)
			So(ok, ShouldBeTrue)
		})

		Convey("Rejects a nil source", func() {
			_, err := ScaleConverter{}.Convert(nil, 8, 8)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a running pool", t, func() {
		q := NewFrameQueue(8)
		b := NewFrameBuffer()
		conv := &countingConverter{fail: 7}
		p := &Pool{
			Queue:        q,
			Buffer:       b,
			Viewport:     NewViewportState(Viewport{Width: 40, Height: 40}),
			Converter:    conv,
			Workers:      3,
			SourceWidth:  16,
			SourceHeight: 9,
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- p.Run(ctx) }()
		defer func() {
			cancel()
			q.Close()
			<-done
		}()

		Convey("Frames land in the buffer fitted to the viewport", func() {
			for i := 0; i < 5; i++ {
				q.Push(RawFrame{Index: i, Epoch: b.Epoch(), Image: solid(16, 9)})
			}
			So(waitFor(func() bool { return b.Len() == 5 }), ShouldBeTrue)

			f, ok := b.Get(4)
			So(ok, ShouldBeTrue)
			So(f.Image.Bounds().Dx(), ShouldEqual, 40)
			So(f.Image.Bounds().Dy(), ShouldEqual, 22)
		})

		Convey("Frames from an older epoch are skipped without work", func() {
			stale := b.Epoch()
			b.Invalidate()
			q.Push(RawFrame{Index: 1, Epoch: stale, Image: solid(16, 9)})
			q.Push(RawFrame{Index: 2, Epoch: b.Epoch(), Image: solid(16, 9)})

			So(waitFor(func() bool { return b.Has(2) }), ShouldBeTrue)
			So(b.Has(1), ShouldBeFalse)
			So(conv.calls.Load(), ShouldEqual, 1)
		})

		Convey("A failing conversion skips only that frame", func() {
			q.Push(RawFrame{Index: 0, Epoch: b.Epoch(), Image: solid(7, 7)})
			q.Push(RawFrame{Index: 1, Epoch: b.Epoch(), Image: solid(16, 9)})
			So(waitFor(func() bool { return b.Has(1) }), ShouldBeTrue)
			So(b.Has(0), ShouldBeFalse)
		})
	})

	Convey("Run returns once the queue is closed", t, func() {
		q := NewFrameQueue(1)
		p := &Pool{Queue: q, Buffer: NewFrameBuffer(), Viewport: NewViewportState(Viewport{8, 8}), Workers: 2}
		done := make(chan error, 1)
		go func() { done <- p.Run(context.Background()) }()
		q.Close()

		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(time.Second):
			t.Fatal("pool did not stop")
		}
	})
}
