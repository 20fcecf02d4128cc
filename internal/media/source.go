package media

// FrameSource owns a decoder handle and yields frames sequentially.
//
// Decoders are not assumed reentrant: a FrameSource is driven by exactly one goroutine.
// Reposition is only called by that goroutine after it observed a pending seek while
// holding the engine's seek lock.
type FrameSource interface {
	Open(path string) (Item, error)
	// ReadNext returns the next frame, ErrEndOfStream after the last one, or a decode error.
	ReadNext() (RawFrame, error)
	Reposition(index int) error
	Close() error
}

// Prober reads an item's metadata without decoding it.
type Prober interface {
	Probe(path string) (Item, error)
}
