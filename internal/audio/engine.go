package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// Engine plays one asset at a time on its own thread.
type Engine interface {
	Load(asset Asset) error
	// Play starts the loaded asset at offset.
	Play(offset time.Duration) error
	Pause()
	Resume()
	// Stop halts playback and releases the loaded asset.
	Stop()
	// SetVolume takes a percentage in [0,100].
	SetVolume(volume int)
}

// bytesPerFrame is one interleaved stereo float32 sample.
const bytesPerFrame = 8

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoContext returns the process wide oto context. oto allows only one.
func otoContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if otoErr != nil {
			otoErr = fmt.Errorf("audio: oto.NewContext failed: %w", otoErr)
			return
		}
		<-ready
	})
	return otoCtx, otoErr
}

// OtoEngine plays WAV assets through oto.
type OtoEngine struct {
	mu sync.Mutex

	sampleRate int
	volume     int

	stream beep.StreamSeekCloser
	reader *pcmReader
	player *oto.Player

	log *logrus.Entry
}

var _ Engine = (*OtoEngine)(nil)

func NewOtoEngine(sampleRate, volume int) *OtoEngine {
	return &OtoEngine{
		sampleRate: sampleRate,
		volume:     volume,
		log:        log.For("oto"),
	}
}

func (e *OtoEngine) Load(asset Asset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.release()

	if asset.SampleRate != e.sampleRate {
		return fmt.Errorf("%w: asset rate %d does not match output rate %d", ErrAudioLoad, asset.SampleRate, e.sampleRate)
	}

	ctx, err := otoContext(e.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAudioLoad, err)
	}

	f, err := filesystem.API().Open(asset.Path)
	if err != nil {
		return fmt.Errorf("%w: open asset failed: %w", ErrAudioLoad, err)
	}

	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: decode asset failed: %w", ErrAudioLoad, err)
	}
	if int(format.SampleRate) != e.sampleRate {
		stream.Close()
		return fmt.Errorf("%w: asset rate %d does not match output rate %d", ErrAudioLoad, format.SampleRate, e.sampleRate)
	}

	e.stream = stream
	e.reader = newPCMReader(stream)
	e.player = ctx.NewPlayer(e.reader)
	e.player.SetVolume(float64(e.volume) / 100)
	return nil
}

func (e *OtoEngine) Play(offset time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player == nil {
		return fmt.Errorf("%w: nothing loaded", ErrAudioLoad)
	}

	frames := int64(offset.Seconds() * float64(e.sampleRate))
	if _, err := e.player.Seek(frames*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("audio: seek to %v failed: %w", offset, err)
	}
	e.player.Play()
	return nil
}

func (e *OtoEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		e.player.Pause()
	}
}

func (e *OtoEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		e.player.Play()
	}
}

func (e *OtoEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
}

func (e *OtoEngine) SetVolume(volume int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = max(0, min(100, volume))
	if e.player != nil {
		e.player.SetVolume(float64(e.volume) / 100)
	}
}

func (e *OtoEngine) release() {
	if e.player != nil {
		e.player.Pause()
		if err := e.player.Close(); err != nil {
			e.log.Warnf("closing player failed: %v", err)
		}
		e.player = nil
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			e.log.Warnf("closing asset failed: %v", err)
		}
		e.stream = nil
	}
	e.reader = nil
}

// pcmReader renders a seekable beep stream as interleaved float32 little-endian bytes.
type pcmReader struct {
	s       beep.StreamSeeker
	buf     [][2]float64
	pending []byte
}

func newPCMReader(s beep.StreamSeeker) *pcmReader {
	return &pcmReader{
		s:   s,
		buf: make([][2]float64, 512),
	}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			k, ok := r.s.Stream(r.buf)
			if k == 0 {
				if !ok {
					if err := r.s.Err(); err != nil {
						return n, err
					}
				}
				if n == 0 {
					return 0, io.EOF
				}
				break
			}
			r.fill(r.buf[:k])
		}

		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	return n, nil
}

func (r *pcmReader) fill(samples [][2]float64) {
	out := r.pending[:0]
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(s[0])))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(s[1])))
	}
	r.pending = out
}

// Seek positions the reader on a frame boundary.
func (r *pcmReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(r.s.Position())*bytesPerFrame - int64(len(r.pending)) + offset
	case io.SeekEnd:
		abs = int64(r.s.Len())*bytesPerFrame + offset
	default:
		return 0, errors.New("pcm: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("pcm: negative position")
	}

	frame := min(int(abs/bytesPerFrame), r.s.Len())
	if err := r.s.Seek(frame); err != nil {
		return 0, fmt.Errorf("pcm: seek failed: %w", err)
	}
	r.pending = r.pending[:0]
	return int64(frame) * bytesPerFrame, nil
}
