// Package decoder wraps FFmpeg (through astiav) behind the media.FrameSource contract and
// extracts audio tracks for the audio pipeline.
package decoder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

// DefaultFrameRate is used when a stream advertises neither an average nor a real base rate.
const DefaultFrameRate = 25.0

// codecStream is a decoder opened on one stream of an input.
type codecStream struct {
	st    *astiav.Stream
	codec *astiav.Codec
	cc    *astiav.CodecContext
}

// findStream returns the first stream of the given media type.
func findStream(i *astiav.FormatContext, t astiav.MediaType) (*astiav.Stream, error) {
	if i == nil {
		return nil, ErrInputContextNil
	}

	for _, is := range i.Streams() {
		if is.CodecParameters().MediaType() == t {
			return is, nil
		}
	}

	switch t {
	case astiav.MediaTypeVideo:
		return nil, ErrNoVideo
	case astiav.MediaTypeAudio:
		return nil, ErrNoAudio
	default:
		return nil, errors.New("finding stream: no stream found")
	}
}

// openCodec allocates and opens a decoder context for st.
func openCodec(st *astiav.Stream) (*codecStream, error) {
	codec := astiav.FindDecoder(st.CodecParameters().CodecID())
	if codec == nil {
		return nil, errors.New("finding codec: codec is nil")
	}

	cs := &codecStream{st: st, codec: codec}
	if err := cs.reset(); err != nil {
		return nil, err
	}
	return cs, nil
}

// reset replaces the codec context with a fresh one. Used after a demuxer seek so that no
// reference frames from the previous position survive.
func (cs *codecStream) reset() error {
	cs.free()

	if cs.cc = astiav.AllocCodecContext(cs.codec); cs.cc == nil {
		return errors.New("finding codec: codec context is nil")
	}

	if err := cs.st.CodecParameters().ToCodecContext(cs.cc); err != nil {
		cs.free()
		return fmt.Errorf("finding codec: updating codec context failed: %w", err)
	}

	if err := cs.cc.Open(cs.codec, nil); err != nil {
		cs.free()
		return fmt.Errorf("finding codec: opening codec context failed: %w", err)
	}

	return nil
}

func (cs *codecStream) free() {
	if cs.cc != nil {
		cs.cc.Free()
		cs.cc = nil
	}
}

func openInput(path string) (*astiav.FormatContext, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, ErrInputContextNil
	}

	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, fmt.Errorf("opening input failed: %w", err)
	}

	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, fmt.Errorf("finding stream info failed: %w", err)
	}

	return fc, nil
}

// pickFrameRate returns the first usable rate, falling back to DefaultFrameRate.
func pickFrameRate(candidates ...float64) float64 {
	for _, r := range candidates {
		if r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r) {
			return r
		}
	}
	return DefaultFrameRate
}

func rationalRate(r astiav.Rational) float64 {
	if r.Den() == 0 {
		return 0
	}
	return r.Float64()
}

// estimateTotalFrames prefers the container's frame count and derives one from the
// duration otherwise.
func estimateTotalFrames(nbFrames int64, duration time.Duration, fps float64) int {
	if nbFrames > 0 {
		return int(nbFrames)
	}
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration.Seconds() * fps))
}

// ptsToIndex maps a presentation timestamp to a frame index. A negative pts means unknown.
func ptsToIndex(pts int64, timeBase, fps float64) (int, bool) {
	if pts < 0 || timeBase <= 0 || fps <= 0 {
		return 0, false
	}
	return int(math.Round(float64(pts) * timeBase * fps)), true
}

// indexToPts is the inverse of ptsToIndex.
func indexToPts(index int, timeBase, fps float64) int64 {
	if timeBase <= 0 || fps <= 0 || index <= 0 {
		return 0
	}
	return int64(math.Floor(float64(index) / fps / timeBase))
}

func containerDuration(fc *astiav.FormatContext) time.Duration {
	d := fc.Duration()
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) / float64(astiav.TimeBase) * float64(time.Second))
}
