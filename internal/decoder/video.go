package decoder

import (
	"errors"
	"fmt"
	"image"

	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// VideoSource decodes the first video stream of a file into indexed frames.
// It is not safe for concurrent use: one goroutine owns it.
type VideoSource struct {
	input *astiav.FormatContext
	video *codecStream

	pkt *astiav.Packet
	df  *astiav.Frame

	closer *astikit.Closer

	item     media.Item
	timeBase float64

	// last is the most recently emitted index, skipTo the first index wanted after a
	// reposition.
	last    int
	skipTo  int
	pending []media.RawFrame
	flushed bool
}

var _ media.FrameSource = (*VideoSource)(nil)

func NewVideoSource() *VideoSource {
	return &VideoSource{
		closer: astikit.NewCloser(),
		last:   -1,
	}
}

// Open opens path and describes its video stream.
func (vs *VideoSource) Open(path string) (media.Item, error) {
	fc, err := openInput(path)
	if err != nil {
		return media.Item{}, fmt.Errorf("%w: %s: %w", ErrProbe, path, err)
	}
	vs.input = fc
	vs.closer.Add(func() {
		fc.CloseInput()
		fc.Free()
	})

	st, err := findStream(fc, astiav.MediaTypeVideo)
	if err != nil {
		return media.Item{}, fmt.Errorf("%w: %s: %w", ErrProbe, path, err)
	}

	if vs.video, err = openCodec(st); err != nil {
		return media.Item{}, fmt.Errorf("%w: %s: %w", ErrProbe, path, err)
	}
	vs.closer.Add(vs.video.free)

	vs.pkt = astiav.AllocPacket()
	vs.closer.Add(vs.pkt.Free)

	vs.df = astiav.AllocFrame()
	vs.closer.Add(vs.df.Free)

	fps := pickFrameRate(rationalRate(st.AvgFrameRate()), rationalRate(st.RFrameRate()))
	duration := containerDuration(fc)

	_, audioErr := findStream(fc, astiav.MediaTypeAudio)

	vs.timeBase = rationalRate(st.TimeBase())
	vs.item = media.Item{
		Path:        path,
		FrameRate:   fps,
		TotalFrames: estimateTotalFrames(st.NbFrames(), duration, fps),
		Duration:    duration,
		Width:       st.CodecParameters().Width(),
		Height:      st.CodecParameters().Height(),
		HasAudio:    audioErr == nil,
	}

	if vs.item.TotalFrames <= 0 {
		return media.Item{}, fmt.Errorf("%w: %s: unknown frame count", ErrProbe, path)
	}

	return vs.item, nil
}

// ReadNext returns the next frame in index order, or media.ErrEndOfStream.
func (vs *VideoSource) ReadNext() (media.RawFrame, error) {
	if vs.input == nil {
		return media.RawFrame{}, ErrInputContextNil
	}

	for len(vs.pending) == 0 {
		if vs.flushed {
			return media.RawFrame{}, media.ErrEndOfStream
		}
		if err := vs.readPacket(); err != nil {
			return media.RawFrame{}, err
		}
	}

	f := vs.pending[0]
	vs.pending = vs.pending[1:]
	return f, nil
}

func (vs *VideoSource) readPacket() error {
	if err := vs.input.ReadFrame(vs.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			vs.flushed = true
			return vs.decode(nil)
		}
		return fmt.Errorf("%w: reading frame failed: %w", ErrDecode, err)
	}

	defer vs.pkt.Unref()

	if vs.pkt.StreamIndex() != vs.video.st.Index() {
		return nil
	}
	return vs.decode(vs.pkt)
}

// decode sends pkt (nil drains the decoder) and collects every frame it yields.
func (vs *VideoSource) decode(pkt *astiav.Packet) error {
	if err := vs.video.cc.SendPacket(pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil
		}
		return fmt.Errorf("%w: sending packet to video decoder failed: %w", ErrDecode, err)
	}

	for {
		stop, err := vs.receive()
		if err != nil {
			return err
		}

		if stop {
			return nil
		}
	}
}

func (vs *VideoSource) receive() (bool, error) {
	if err := vs.video.cc.ReceiveFrame(vs.df); err != nil {
		if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
			return true, nil
		}
		return true, fmt.Errorf("%w: receiving frame failed: %w", ErrDecode, err)
	}

	defer vs.df.Unref()

	index, ok := ptsToIndex(vs.df.Pts(), vs.timeBase, vs.item.FrameRate)
	if !ok || index <= vs.last {
		index = vs.last + 1
	}

	// Decoded from the keyframe before a reposition target.
	if index < vs.skipTo {
		vs.last = index
		return false, nil
	}

	img, err := vs.toImage()
	if err != nil {
		return false, fmt.Errorf("%w: frame %d: %w", ErrDecode, index, err)
	}

	vs.last = index
	vs.pending = append(vs.pending, media.RawFrame{
		Index: index,
		Image: img,
	})
	return false, nil
}

func (vs *VideoSource) toImage() (image.Image, error) {
	i, err := vs.df.Data().GuessImageFormat()
	if err != nil {
		return nil, fmt.Errorf("guessing image format failed: %w", err)
	}

	if err = vs.df.Data().ToImage(i); err != nil {
		return nil, fmt.Errorf("copying frame to image failed: %w", err)
	}
	return i, nil
}

// Reposition seeks to the keyframe at or before index; ReadNext then resumes at index.
func (vs *VideoSource) Reposition(index int) error {
	if vs.input == nil {
		return ErrInputContextNil
	}
	index = vs.item.Clamp(index)

	ts := indexToPts(index, vs.timeBase, vs.item.FrameRate)
	flags := astiav.NewSeekFlags(astiav.SeekFlagBackward)
	if err := vs.input.SeekFrame(vs.video.st.Index(), ts, flags); err != nil {
		return fmt.Errorf("%w: seeking to frame %d failed: %w", ErrDecode, index, err)
	}

	if err := vs.video.reset(); err != nil {
		return fmt.Errorf("%w: resetting decoder failed: %w", ErrDecode, err)
	}

	vs.pending = nil
	vs.flushed = false
	vs.skipTo = index
	vs.last = -1
	return nil
}

func (vs *VideoSource) Item() media.Item {
	return vs.item
}

// Close releases every FFmpeg resource. It is safe to call more than once.
func (vs *VideoSource) Close() error {
	err := vs.closer.Close()
	vs.closer = astikit.NewCloser()
	vs.input = nil
	vs.pending = nil
	return err
}

// Prober describes media items by opening and immediately closing them.
type Prober struct{}

func (Prober) Probe(path string) (media.Item, error) {
	vs := NewVideoSource()
	defer vs.Close()
	return vs.Open(path)
}
