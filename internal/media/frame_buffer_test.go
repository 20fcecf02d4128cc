package media

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFrameBuffer(t *testing.T) {
	Convey("Given an empty frame buffer", t, func() {
		b := NewFrameBuffer()

		Convey("Put then Get returns the frame", func() {
			So(b.Put(ProcessedFrame{Index: 3}), ShouldBeTrue)
			f, ok := b.Get(3)
			So(ok, ShouldBeTrue)
			So(f.Index, ShouldEqual, 3)
			So(b.Has(4), ShouldBeFalse)
		})

		Convey("An index holds at most one frame", func() {
			b.Put(ProcessedFrame{Index: 1})
			b.Put(ProcessedFrame{Index: 1})
			So(b.Len(), ShouldEqual, 1)
		})

		Convey("EvictBelow removes only lower indices", func() {
			for i := 0; i < 10; i++ {
				b.Put(ProcessedFrame{Index: i})
			}
			So(b.EvictBelow(6), ShouldEqual, 6)
			So(b.Indices(), ShouldResemble, []int{6, 7, 8, 9})
		})

		Convey("Invalidate rejects frames from the previous epoch", func() {
			old := b.Epoch()
			b.Put(ProcessedFrame{Index: 1, Epoch: old})
			epoch := b.Invalidate()

			So(epoch, ShouldEqual, old+1)
			So(b.Len(), ShouldEqual, 0)
			So(b.Put(ProcessedFrame{Index: 2, Epoch: old}), ShouldBeFalse)
			So(b.Put(ProcessedFrame{Index: 2, Epoch: epoch}), ShouldBeTrue)
		})

		Convey("Clear keeps the epoch", func() {
			epoch := b.Epoch()
			b.Put(ProcessedFrame{Index: 1, Epoch: epoch})
			b.Clear()
			So(b.Len(), ShouldEqual, 0)
			So(b.Put(ProcessedFrame{Index: 1, Epoch: epoch}), ShouldBeTrue)
		})

		Convey("FirstInRange finds the nearest frame forward", func() {
			b.Put(ProcessedFrame{Index: 48})
			b.Put(ProcessedFrame{Index: 50})
			f, ok := b.FirstInRange(45, 60)
			So(ok, ShouldBeTrue)
			So(f.Index, ShouldEqual, 48)

			_, ok = b.FirstInRange(51, 60)
			So(ok, ShouldBeFalse)
		})
	})
}
