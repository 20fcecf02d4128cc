// Package audio prepares an item's audio track as a playable asset and plays it through
// the host audio device.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoldenFealla/framesync/internal/decoder"
	"github.com/GoldenFealla/framesync/internal/effects"
	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// ErrAudioLoad is non-fatal: playback continues without sound.
var ErrAudioLoad = errors.New("audio: load failed")

// Asset is a ready-to-play audio file.
type Asset struct {
	ID         uuid.UUID
	Path       string
	SampleRate int
	Samples    int
}

func (a Asset) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(a.Samples) * time.Second / time.Duration(a.SampleRate)
}

// SampleReader yields interleaved stereo samples at a fixed rate.
type SampleReader interface {
	ReadSamples(dst [][2]float64) (int, error)
	Close() error
}

// OpenFunc opens the audio track of path with an effects chain applied.
type OpenFunc func(path, chain string, sampleRate int) (SampleReader, error)

func openTrack(path, chain string, sampleRate int) (SampleReader, error) {
	return decoder.OpenAudioTrack(path, chain, sampleRate)
}

// Pipeline extracts an item's audio, applies the effects transform and writes a WAV asset.
type Pipeline struct {
	SampleRate int
	Open       OpenFunc

	mu      sync.Mutex
	effects effects.Settings
}

func NewPipeline(sampleRate int, settings effects.Settings) *Pipeline {
	return &Pipeline{
		SampleRate: sampleRate,
		Open:       openTrack,
		effects:    settings,
	}
}

// SetEffects applies to the next Prepare.
func (p *Pipeline) SetEffects(settings effects.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.effects = settings
}

func (p *Pipeline) Effects() effects.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.effects
}

// Prepare writes the processed track of path into cacheDir. Every failure wraps ErrAudioLoad.
func (p *Pipeline) Prepare(ctx context.Context, path, cacheDir string) (Asset, error) {
	logger := log.For("audio").WithField("item", filepath.Base(path))

	open := p.Open
	if open == nil {
		open = openTrack
	}

	settings := p.Effects()
	chain := settings.Chain()
	if chain != "" {
		logger.WithField("effects", settings.String()).Debug("applying effects")
	}

	src, err := open(path, chain, p.SampleRate)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrAudioLoad, err)
	}
	defer src.Close()

	asset := Asset{
		ID:         uuid.New(),
		SampleRate: p.SampleRate,
	}
	asset.Path = filepath.Join(cacheDir, fmt.Sprintf("audio-%s.wav", asset.ID))

	f, err := filesystem.API().Create(asset.Path)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: create asset failed: %w", ErrAudioLoad, err)
	}
	defer f.Close()

	s := &trackStreamer{ctx: ctx, src: src}
	format := beep.Format{
		SampleRate:  beep.SampleRate(p.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}

	if err := wav.Encode(f, s, format); err != nil {
		return Asset{}, fmt.Errorf("%w: encode asset failed: %w", ErrAudioLoad, err)
	}
	if s.err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrAudioLoad, s.err)
	}
	if s.total == 0 {
		return Asset{}, fmt.Errorf("%w: track is empty", ErrAudioLoad)
	}

	asset.Samples = s.total
	logger.WithField("duration", asset.Duration().Round(time.Millisecond)).Info("audio ready")
	return asset, nil
}

// trackStreamer adapts a SampleReader to beep. It stops early when ctx is cancelled.
type trackStreamer struct {
	ctx   context.Context
	src   SampleReader
	total int
	err   error
}

func (s *trackStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return 0, false
	}

	n, err := s.src.ReadSamples(samples)
	s.total += n
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return n, n > 0
	}
	return n, true
}

func (s *trackStreamer) Err() error {
	return s.err
}
