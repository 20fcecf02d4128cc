package media

import (
	"sync"
)

// FrameQueue is the bounded intake queue between the decoder and the processing pool.
// Push blocks while the queue is full, Pop blocks while it is empty, Close wakes both.
type FrameQueue struct {
	frames []RawFrame
	max    int

	head, tail, count int

	mutex  sync.Mutex
	cond   *sync.Cond
	closed bool
}

func NewFrameQueue(max int) *FrameQueue {
	if max < 1 {
		max = 1
	}

	fq := &FrameQueue{
		frames: make([]RawFrame, max),
		max:    max,
	}
	fq.cond = sync.NewCond(&fq.mutex)
	return fq
}

// Push appends f, waiting for room. It returns false once the queue is closed.
func (fq *FrameQueue) Push(f RawFrame) bool {
	fq.mutex.Lock()
	defer fq.mutex.Unlock()

	for fq.count >= fq.max && !fq.closed {
		fq.cond.Wait()
	}
	if fq.closed {
		return false
	}

	fq.frames[fq.tail] = f
	fq.tail = (fq.tail + 1) % fq.max
	fq.count++

	fq.cond.Broadcast()
	return true
}

// Pop removes the oldest frame, waiting for one. It returns false once the queue is closed.
func (fq *FrameQueue) Pop() (RawFrame, bool) {
	fq.mutex.Lock()
	defer fq.mutex.Unlock()

	for fq.count == 0 && !fq.closed {
		fq.cond.Wait()
	}
	if fq.closed {
		return RawFrame{}, false
	}

	f := fq.frames[fq.head]
	fq.frames[fq.head] = RawFrame{}
	fq.head = (fq.head + 1) % fq.max
	fq.count--

	fq.cond.Broadcast()
	return f, true
}

// Clear discards everything queued and returns how many frames were dropped.
func (fq *FrameQueue) Clear() int {
	fq.mutex.Lock()
	defer fq.mutex.Unlock()

	n := fq.count
	for i := range fq.frames {
		fq.frames[i] = RawFrame{}
	}
	fq.head, fq.tail, fq.count = 0, 0, 0

	fq.cond.Broadcast()
	return n
}

// Close releases every blocked Push and Pop. Queued frames are dropped.
func (fq *FrameQueue) Close() {
	fq.mutex.Lock()
	defer fq.mutex.Unlock()

	fq.closed = true
	fq.cond.Broadcast()
}

func (fq *FrameQueue) Len() int {
	fq.mutex.Lock()
	defer fq.mutex.Unlock()
	return fq.count
}

func (fq *FrameQueue) Cap() int {
	return fq.max
}
