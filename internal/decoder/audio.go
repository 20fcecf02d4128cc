package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

const (
	SampleRate = 44100
	Channels   = 2
)

// AudioTrack decodes the first audio stream of a file through an FFmpeg filter graph that
// ends in interleaved stereo float32 at SampleRate.
type AudioTrack struct {
	input *astiav.FormatContext
	audio *codecStream

	pkt           *astiav.Packet
	decodedFrame  *astiav.Frame
	filteredFrame *astiav.Frame

	filterGraph   *astiav.FilterGraph
	buffersrcCtx  *astiav.BuffersrcFilterContext
	buffersinkCtx *astiav.BuffersinkFilterContext

	closer *astikit.Closer

	sampleRate int
	pending    [][2]float64
	inputDone  bool
	drained    bool
}

// OpenAudioTrack opens path and builds the filter graph. chain is an FFmpeg audio filter
// description applied before the final format conversion; empty means none.
func OpenAudioTrack(path, chain string, sampleRate int) (*AudioTrack, error) {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}

	at := &AudioTrack{
		closer:     astikit.NewCloser(),
		sampleRate: sampleRate,
	}

	if err := at.open(path, chain); err != nil {
		at.Close()
		return nil, err
	}
	return at, nil
}

func (at *AudioTrack) open(path, chain string) error {
	fc, err := openInput(path)
	if err != nil {
		return fmt.Errorf("audio track: %w", err)
	}
	at.input = fc
	at.closer.Add(func() {
		fc.CloseInput()
		fc.Free()
	})

	st, err := findStream(fc, astiav.MediaTypeAudio)
	if err != nil {
		return err
	}

	if at.audio, err = openCodec(st); err != nil {
		return fmt.Errorf("audio track: %w", err)
	}
	at.closer.Add(at.audio.free)

	at.pkt = astiav.AllocPacket()
	at.closer.Add(at.pkt.Free)

	at.decodedFrame = astiav.AllocFrame()
	at.closer.Add(at.decodedFrame.Free)

	at.filteredFrame = astiav.AllocFrame()
	at.closer.Add(at.filteredFrame.Free)

	return at.buildFilter(chain)
}

func (at *AudioTrack) buildFilter(chain string) error {
	var err error

	if at.filterGraph = astiav.AllocFilterGraph(); at.filterGraph == nil {
		return errors.New("audio filter: graph is nil")
	}
	at.closer.Add(at.filterGraph.Free)

	buffersrc := astiav.FindFilterByName("abuffer")
	if buffersrc == nil {
		return errors.New("audio filter: buffersrc is nil")
	}

	buffersink := astiav.FindFilterByName("abuffersink")
	if buffersink == nil {
		return errors.New("audio filter: buffersink is nil")
	}

	if at.buffersrcCtx, err = at.filterGraph.NewBuffersrcFilterContext(buffersrc, "in"); err != nil {
		return fmt.Errorf("audio filter: creating buffersrc context failed: %w", err)
	}

	if at.buffersinkCtx, err = at.filterGraph.NewBuffersinkFilterContext(buffersink, "out"); err != nil {
		return fmt.Errorf("audio filter: creating buffersink context failed: %w", err)
	}

	cc := at.audio.cc
	params := astiav.AllocBuffersrcFilterContextParameters()
	defer params.Free()
	params.SetSampleFormat(cc.SampleFormat())
	params.SetChannelLayout(cc.ChannelLayout())
	params.SetSampleRate(cc.SampleRate())
	params.SetTimeBase(at.audio.st.TimeBase())

	if err := at.buffersrcCtx.SetParameters(params); err != nil {
		return fmt.Errorf("audio filter: setting buffersrc context parameters failed: %w", err)
	}

	if err := at.buffersrcCtx.Initialize(nil); err != nil {
		return fmt.Errorf("audio filter: initializing buffersrc context failed: %w", err)
	}

	outputs := astiav.AllocFilterInOut()
	if outputs == nil {
		return errors.New("audio filter: outputs is nil")
	}
	defer outputs.Free()

	inputs := astiav.AllocFilterInOut()
	if inputs == nil {
		return errors.New("audio filter: inputs is nil")
	}
	defer inputs.Free()

	outputs.SetName("in")
	outputs.SetFilterContext(at.buffersrcCtx.FilterContext())
	outputs.SetPadIdx(0)
	outputs.SetNext(nil)

	inputs.SetName("out")
	inputs.SetFilterContext(at.buffersinkCtx.FilterContext())
	inputs.SetPadIdx(0)
	inputs.SetNext(nil)

	if err := at.filterGraph.Parse(FilterSpec(chain, at.sampleRate), inputs, outputs); err != nil {
		return fmt.Errorf("audio filter: parsing filter failed: %w", err)
	}

	if err := at.filterGraph.Configure(); err != nil {
		return fmt.Errorf("audio filter: configuring filter failed: %w", err)
	}

	return nil
}

// FilterSpec appends the output format conversion to an effects chain.
func FilterSpec(chain string, sampleRate int) string {
	tail := fmt.Sprintf("aresample=%d,aformat=sample_fmts=flt:sample_rates=%d:channel_layouts=stereo", sampleRate, sampleRate)

	chain = strings.Trim(strings.TrimSpace(chain), ",")
	if chain == "" {
		return tail
	}
	return chain + "," + tail
}

func (at *AudioTrack) SampleRate() int {
	return at.sampleRate
}

// ReadSamples fills dst with stereo samples and returns how many were written. It returns
// io.EOF once the track is exhausted.
func (at *AudioTrack) ReadSamples(dst [][2]float64) (int, error) {
	n := 0
	for n < len(dst) {
		if len(at.pending) == 0 {
			if at.drained {
				break
			}
			if err := at.step(); err != nil {
				return n, err
			}
			continue
		}

		c := copy(dst[n:], at.pending)
		at.pending = at.pending[c:]
		n += c
	}

	if n == 0 && at.drained {
		return 0, io.EOF
	}
	return n, nil
}

// step advances the demuxer by one packet, or drains the decoder and filter at the end.
func (at *AudioTrack) step() error {
	if at.inputDone {
		if err := at.filter(nil); err != nil {
			return err
		}
		at.drained = true
		return nil
	}

	if err := at.input.ReadFrame(at.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			at.inputDone = true
			return at.decode(nil)
		}
		return fmt.Errorf("%w: reading audio packet failed: %w", ErrDecode, err)
	}

	defer at.pkt.Unref()

	if at.pkt.StreamIndex() != at.audio.st.Index() {
		return nil
	}
	return at.decode(at.pkt)
}

func (at *AudioTrack) decode(pkt *astiav.Packet) error {
	if err := at.audio.cc.SendPacket(pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil
		}
		return fmt.Errorf("%w: sending packet to audio decoder failed: %w", ErrDecode, err)
	}

	for {
		if err := at.audio.cc.ReceiveFrame(at.decodedFrame); err != nil {
			if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
				return nil
			}
			return fmt.Errorf("%w: receiving audio frame failed: %w", ErrDecode, err)
		}

		err := at.filter(at.decodedFrame)
		at.decodedFrame.Unref()
		if err != nil {
			return err
		}
	}
}

// filter pushes f (nil flushes the graph) and collects the converted samples.
func (at *AudioTrack) filter(f *astiav.Frame) error {
	if err := at.buffersrcCtx.AddFrame(f, astiav.NewBuffersrcFlags(astiav.BuffersrcFlagKeepRef)); err != nil {
		return fmt.Errorf("audio filter: adding frame failed: %w", err)
	}

	for {
		if err := at.buffersinkCtx.GetFrame(at.filteredFrame, astiav.NewBuffersinkFlags()); err != nil {
			if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
				return nil
			}
			return fmt.Errorf("audio filter: getting frame failed: %w", err)
		}

		b, err := at.filteredFrame.Data().Bytes(1)
		n := at.filteredFrame.NbSamples()
		at.filteredFrame.Unref()
		if err != nil {
			return fmt.Errorf("audio filter: get data failed: %w", err)
		}

		at.pending = append(at.pending, decodeStereoFloat32(b, n)...)
	}
}

// decodeStereoFloat32 converts n interleaved little-endian float32 stereo samples.
func decodeStereoFloat32(b []byte, n int) [][2]float64 {
	const frameSize = 4 * Channels

	if limit := len(b) / frameSize; n > limit || n < 0 {
		n = limit
	}

	out := make([][2]float64, n)
	for i := range out {
		off := i * frameSize
		out[i][0] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
		out[i][1] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:])))
	}
	return out
}

func (at *AudioTrack) Close() error {
	return at.closer.Close()
}
