package media

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFrameQueue(t *testing.T) {
	Convey("Given a queue of capacity 2", t, func() {
		q := NewFrameQueue(2)

		Convey("Frames come out in push order", func() {
			q.Push(RawFrame{Index: 1})
			q.Push(RawFrame{Index: 2})
			a, _ := q.Pop()
			b, _ := q.Pop()
			So(a.Index, ShouldEqual, 1)
			So(b.Index, ShouldEqual, 2)
		})

		Convey("Push blocks while full until a Pop makes room", func() {
			q.Push(RawFrame{Index: 1})
			q.Push(RawFrame{Index: 2})

			pushed := make(chan bool)
			go func() { pushed <- q.Push(RawFrame{Index: 3}) }()

			select {
			case <-pushed:
				t.Fatal("push should block on a full queue")
			case <-time.After(50 * time.Millisecond):
			}

			q.Pop()
			So(<-pushed, ShouldBeTrue)
			So(q.Len(), ShouldEqual, 2)
		})

		Convey("Clear drops queued frames and unblocks producers", func() {
			q.Push(RawFrame{Index: 1})
			q.Push(RawFrame{Index: 2})

			done := make(chan struct{})
			go func() {
				q.Push(RawFrame{Index: 3})
				close(done)
			}()

			time.Sleep(20 * time.Millisecond)
			So(q.Clear(), ShouldEqual, 2)
			<-done
			So(q.Len(), ShouldEqual, 1)
		})

		Convey("Close releases blocked consumers", func() {
			var wg sync.WaitGroup
			results := make(chan bool, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, ok := q.Pop()
					results <- ok
				}()
			}

			time.Sleep(20 * time.Millisecond)
			q.Close()
			wg.Wait()
			So(<-results, ShouldBeFalse)
			So(<-results, ShouldBeFalse)
			So(q.Push(RawFrame{}), ShouldBeFalse)
		})
	})
}
