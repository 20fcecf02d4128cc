package media

import (
	"sort"
	"sync"
)

// FrameBuffer is a sparse index -> frame map. Eviction follows the playback position only.
//
// Every buffer carries an epoch. Invalidate starts a new epoch and Put rejects frames from
// an older one, so work that was in flight when a seek happened can never be displayed.
type FrameBuffer struct {
	mu     sync.RWMutex
	frames map[int]ProcessedFrame
	epoch  uint64
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		frames: make(map[int]ProcessedFrame),
	}
}

func (b *FrameBuffer) Epoch() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.epoch
}

// Put stores f unless it belongs to a stale epoch. A frame already stored at the same
// index is replaced.
func (b *FrameBuffer) Put(f ProcessedFrame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f.Epoch != b.epoch {
		return false
	}
	b.frames[f.Index] = f
	return true
}

func (b *FrameBuffer) Get(index int) (ProcessedFrame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.frames[index]
	return f, ok
}

func (b *FrameBuffer) Has(index int) bool {
	_, ok := b.Get(index)
	return ok
}

// FirstInRange returns the lowest buffered frame with from <= index < to.
func (b *FrameBuffer) FirstInRange(from, to int) (ProcessedFrame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := from; i < to; i++ {
		if f, ok := b.frames[i]; ok {
			return f, true
		}
	}
	return ProcessedFrame{}, false
}

// EvictBelow drops every frame with an index lower than index and returns how many went.
func (b *FrameBuffer) EvictBelow(index int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for i := range b.frames {
		if i < index {
			delete(b.frames, i)
			n++
		}
	}
	return n
}

// Clear drops all frames but keeps the epoch: frames already being processed may still land.
func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.frames)
}

// Invalidate drops all frames and starts a new epoch.
func (b *FrameBuffer) Invalidate() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.frames)
	b.epoch++
	return b.epoch
}

func (b *FrameBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.frames)
}

// Indices returns the buffered indices in ascending order.
func (b *FrameBuffer) Indices() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int, 0, len(b.frames))
	for i := range b.frames {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
