// Package player is the playback engine: it drives a frame source and a processing pool,
// keeps the presentation clock and runs the seek protocol.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoldenFealla/framesync/internal/audio"
	"github.com/GoldenFealla/framesync/internal/decoder"
	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/GoldenFealla/framesync/internal/transcode"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Presenter is the display surface.
type Presenter interface {
	Present(img image.Image, width, height int)
}

// AudioPreparer turns an item's audio track into a playable asset.
type AudioPreparer interface {
	Prepare(ctx context.Context, path, cacheDir string) (audio.Asset, error)
}

// Deps are the engine's collaborators. Only Source is required.
type Deps struct {
	Source     func() media.FrameSource
	Transcoder transcode.Transcoder
	Audio      AudioPreparer
	Output     audio.Engine
	Presenter  Presenter
	Converter  media.Converter
	Now        func() time.Time
}

const seekPollInterval = 5 * time.Millisecond

// session is everything that belongs to one loaded item.
type session struct {
	id       uuid.UUID
	ctx      context.Context
	cancel   context.CancelFunc
	source   media.FrameSource
	queue    *media.FrameQueue
	cacheDir string
	done     chan struct{}

	// audioDone is set once the audio track is loaded or given up on. Guarded by Engine.mu.
	audioDone bool
}

// Engine plays one item at a time.
//
// mu is the seek lock. It guards the playback state shared between the decode goroutine,
// the presentation loop and callers: the pending seek, the displayed frame and the
// wall-clock anchor, plus the decoder's intake position.
type Engine struct {
	opts Options
	deps Deps
	log  *logrus.Entry

	buffer   *media.FrameBuffer
	viewport *media.ViewportState

	// seekMu serializes whole seek operations.
	seekMu sync.Mutex

	mu   sync.Mutex
	cond *sync.Cond

	state    State
	item     media.Item
	session  *session
	seeking  bool
	current  int
	target   int
	anchor   time.Time
	pausedAt time.Time

	pendingSeek mo.Option[int]
	// playhead is where lookahead is measured from, next the index the decoder emits next.
	playhead int
	next     int
	// endFrame is TotalFrames, or less when the stream ended early.
	endFrame int

	audioReady bool
	volume     int
	status     string
	onEnd      func()
}

func New(opts Options, deps Deps) *Engine {
	opts = opts.withDefaults()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Converter == nil {
		deps.Converter = media.ScaleConverter{}
	}

	e := &Engine{
		opts:     opts,
		deps:     deps,
		log:      log.For("engine"),
		buffer:   media.NewFrameBuffer(),
		viewport: media.NewViewportState(media.Viewport{}),
		current:  -1,
		target:   -1,
		volume:   opts.Volume,
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// OnEnd registers the end-of-stream callback. It runs on its own goroutine after the
// engine has stopped.
func (e *Engine) OnEnd(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnd = fn
}

// Load stops whatever plays and starts preparing path. Probe and transcode failures are
// returned; audio failures only downgrade playback to video only.
func (e *Engine) Load(ctx context.Context, path string) error {
	e.Stop()

	logger := e.log.WithField("item", filepath.Base(path))

	e.mu.Lock()
	e.state = Loading
	e.item = media.Item{Path: path}
	e.status = "Loading " + filepath.Base(path)
	e.mu.Unlock()

	s, item, err := e.open(ctx, path, logger)
	if err != nil {
		e.mu.Lock()
		e.state = Stopped
		e.status = Classify(err).Status()
		e.mu.Unlock()
		logger.Errorf("load failed: %v", err)
		return err
	}

	pool := &media.Pool{
		Queue:        s.queue,
		Buffer:       e.buffer,
		Viewport:     e.viewport,
		Converter:    e.deps.Converter,
		Workers:      e.opts.Workers,
		SourceWidth:  item.Width,
		SourceHeight: item.Height,
		Log:          log.For("processor").WithField("session", s.id),
	}

	e.mu.Lock()
	e.buffer.Invalidate()
	e.session = s
	e.item = item
	e.current, e.target = -1, -1
	e.playhead, e.next = 0, 0
	e.endFrame = item.TotalFrames
	e.pendingSeek = mo.None[int]()
	e.audioReady = false
	e.seeking = false
	e.status = ""
	e.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return e.decodeLoop(s)
	})
	g.Go(func() error {
		return pool.Run(s.ctx)
	})
	g.Go(func() error {
		e.prepareAudio(s, path, item)
		return nil
	})
	go func() {
		if err := g.Wait(); err != nil {
			logger.Warnf("session ended with error: %v", err)
		}
		close(s.done)
	}()

	logger.WithField("session", s.id).Infof("loaded %s", item)
	return nil
}

// open probes path, normalizes it when needed and returns a ready session.
func (e *Engine) open(ctx context.Context, path string, logger *logrus.Entry) (*session, media.Item, error) {
	if e.deps.Source == nil {
		return nil, media.Item{}, fmt.Errorf("%w: no frame source", decoder.ErrProbe)
	}

	cacheDir, err := filesystem.NewCacheDir(path)
	if err != nil {
		logger.Warnf("using system temp dir: %v", err)
		if cacheDir, err = filesystem.API().TempDir("", filesystem.CachePrefix); err != nil {
			return nil, media.Item{}, err
		}
	}

	fail := func(src media.FrameSource, err error) (*session, media.Item, error) {
		if src != nil {
			src.Close()
		}
		if rmErr := filesystem.RemoveCacheDir(cacheDir); rmErr != nil {
			logger.Warn(rmErr)
		}
		return nil, media.Item{}, err
	}

	src := e.deps.Source()
	item, err := src.Open(path)
	if err != nil {
		return fail(src, err)
	}

	if t := e.deps.Transcoder; t != nil && t.Needed(item) {
		src.Close()

		e.setStatus(fmt.Sprintf("Converting %s to a lower frame rate", filepath.Base(path)))
		out, err := t.Normalize(ctx, path, cacheDir)
		if err != nil {
			return fail(nil, err)
		}

		src = e.deps.Source()
		if item, err = src.Open(out); err != nil {
			return fail(src, err)
		}
	}

	sctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:       uuid.New(),
		ctx:      sctx,
		cancel:   cancel,
		source:   src,
		queue:    media.NewFrameQueue(e.opts.QueueSize),
		cacheDir: cacheDir,
		done:     make(chan struct{}),
	}, item, nil
}

func (e *Engine) prepareAudio(s *session, path string, item media.Item) {
	logger := e.log.WithField("session", s.id)

	if !item.HasAudio || e.deps.Audio == nil || e.deps.Output == nil {
		logger.Info("no audio, playing video only")
		e.settleAudio(s, false)
		return
	}

	asset, err := e.deps.Audio.Prepare(s.ctx, path, s.cacheDir)
	if err == nil {
		e.mu.Lock()
		if e.session == s {
			if err = e.deps.Output.Load(asset); err == nil {
				e.deps.Output.SetVolume(e.volume)
			}
		}
		e.mu.Unlock()
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warnf("audio disabled: %v", err)
		e.mu.Lock()
		if e.session == s {
			e.status = Classify(err).Status()
		}
		e.mu.Unlock()
	}
	e.settleAudio(s, err == nil)
}

// settleAudio lets Loading proceed.
func (e *Engine) settleAudio(s *session, ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != s {
		return
	}
	e.audioReady = ready
	s.audioDone = true
}

// decodeLoop is the only goroutine touching the source.
func (e *Engine) decodeLoop(s *session) error {
	logger := e.log.WithField("session", s.id)

	for {
		e.mu.Lock()
		for s.ctx.Err() == nil && e.pendingSeek.IsAbsent() && e.next > e.playhead+e.opts.Lookahead {
			e.cond.Wait()
		}
		if s.ctx.Err() != nil {
			e.mu.Unlock()
			return nil
		}

		if target, ok := e.pendingSeek.Get(); ok {
			err := s.source.Reposition(target)
			e.pendingSeek = mo.None[int]()
			e.next = target
			e.mu.Unlock()

			if err != nil {
				logger.Warnf("reposition to %d failed: %v", target, err)
				e.endOfStream(s, err)
			}
			continue
		}

		epoch := e.buffer.Epoch()
		e.mu.Unlock()

		raw, err := s.source.ReadNext()
		if err != nil {
			if !errors.Is(err, media.ErrEndOfStream) {
				logger.Warnf("decode failed: %v", err)
			}
			e.endOfStream(s, err)
			continue
		}

		raw.Epoch = epoch
		if !s.queue.Push(raw) {
			return nil
		}

		e.mu.Lock()
		if epoch == e.buffer.Epoch() {
			e.next = raw.Index + 1
		}
		e.mu.Unlock()
	}
}

// endOfStream records where the stream stopped and parks the decoder until a seek or stop.
func (e *Engine) endOfStream(s *session, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pendingSeek.IsAbsent() {
		e.endFrame = max(0, min(e.endFrame, e.next))
		if err != nil && !errors.Is(err, media.ErrEndOfStream) {
			e.status = Classify(err).Status()
		}
	}

	for s.ctx.Err() == nil && e.pendingSeek.IsAbsent() {
		e.cond.Wait()
	}
}

// Tick runs one presentation step. It never blocks on decoding.
func (e *Engine) Tick() {
	now := e.deps.Now()
	starting := false

	e.mu.Lock()

	switch e.state {
	case Loading:
		if e.session == nil || !e.session.audioDone {
			e.mu.Unlock()
			return
		}
		window := max(1, int(e.item.FrameRate/2))
		// An item whose stream ended before its first frame falls through to the end check.
		if _, ok := e.buffer.FirstInRange(0, window); !ok && e.endFrame > 0 {
			e.mu.Unlock()
			return
		}
		e.state = Playing
		e.anchor = now
		starting = e.audioReady
	case Playing:
		if e.seeking {
			e.mu.Unlock()
			return
		}
	default:
		e.mu.Unlock()
		return
	}

	target := e.item.FrameAtTime(now.Sub(e.anchor))
	e.target = target

	if target >= e.endFrame {
		s := e.session
		e.state = Stopped
		e.mu.Unlock()
		e.log.WithField("item", e.item.Name()).Info("end of stream")
		go e.finish(s)
		return
	}
	if starting {
		defer e.playAudio(0)
	}

	f, ok := e.buffer.Get(target)
	if !ok || target == e.current {
		e.mu.Unlock()
		return
	}

	e.current = target
	e.playhead = target
	e.buffer.EvictBelow(target - e.opts.EvictionMargin)
	e.cond.Broadcast()
	e.mu.Unlock()

	e.present(f)
}

// finish stops s unless another item was loaded in the meantime, then reports the end.
func (e *Engine) finish(s *session) {
	e.mu.Lock()
	fn := e.onEnd
	e.mu.Unlock()

	if !e.stop(s) {
		return
	}
	if fn != nil {
		fn()
	}
}

func (e *Engine) present(f media.ProcessedFrame) {
	if e.deps.Presenter == nil || f.Image == nil {
		return
	}
	b := f.Image.Bounds()
	e.deps.Presenter.Present(f.Image, b.Dx(), b.Dy())
}

func (e *Engine) playAudio(offset time.Duration) {
	if e.deps.Output == nil {
		return
	}
	if err := e.deps.Output.Play(offset); err != nil {
		e.log.Warnf("audio play failed: %v", err)
	}
}

// Pause freezes the clock.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.state != Playing {
		e.mu.Unlock()
		return
	}
	e.state = Paused
	e.pausedAt = e.deps.Now()
	ready := e.audioReady
	e.mu.Unlock()

	if ready && e.deps.Output != nil {
		e.deps.Output.Pause()
	}
}

// Resume shifts the anchor by the time spent paused so the same frame is due.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.state != Paused {
		e.mu.Unlock()
		return
	}
	e.anchor = e.anchor.Add(e.deps.Now().Sub(e.pausedAt))
	e.state = Playing
	ready := e.audioReady && !e.seeking
	e.mu.Unlock()

	if ready && e.deps.Output != nil {
		e.deps.Output.Resume()
	}
}

// TogglePause switches between Playing and Paused.
func (e *Engine) TogglePause() {
	if e.State() == Playing {
		e.Pause()
	} else {
		e.Resume()
	}
}

// Stop cancels the session and joins its goroutines for at most the join timeout. A
// goroutine that does not finish in time is left behind; its resources are released once
// it does.
func (e *Engine) Stop() {
	e.stop(nil)
}

// stop tears down the running session. With only set, it does nothing unless only is the
// running session, and reports whether it stopped it.
func (e *Engine) stop(only *session) bool {
	e.mu.Lock()
	s := e.session
	if only != nil && s != only {
		e.mu.Unlock()
		return false
	}
	e.session = nil
	e.state = Stopped
	e.current, e.target = -1, -1
	e.pendingSeek = mo.None[int]()
	e.audioReady = false
	e.seeking = false
	if s != nil {
		s.cancel()
		s.queue.Close()
		e.buffer.Invalidate()
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	if s == nil {
		return false
	}

	if e.deps.Output != nil {
		e.deps.Output.Stop()
	}

	logger := e.log.WithField("session", s.id)
	release := func() {
		if err := s.source.Close(); err != nil {
			logger.Warnf("closing source failed: %v", err)
		}
		if err := filesystem.RemoveCacheDir(s.cacheDir); err != nil {
			logger.Warn(err)
		}
	}

	select {
	case <-s.done:
		release()
	case <-time.After(e.opts.JoinTimeout):
		logger.Warnf("workers still running after %v, leaving them behind", e.opts.JoinTimeout)
		go func() {
			<-s.done
			release()
		}()
	}
	return true
}

// Resize records a new viewport. The buffer is cleared and refilled from the displayed
// frame so upcoming frames use the new size.
func (e *Engine) Resize(width, height int) {
	if !e.viewport.Set(media.Viewport{Width: width, Height: height}) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer.Clear()
	if e.session == nil || e.seeking {
		return
	}

	from := e.item.Clamp(e.current + 1)
	if e.current < 0 {
		from = 0
	}
	if e.pendingSeek.IsAbsent() {
		e.pendingSeek = mo.Some(from)
	}
	e.next = from
	e.endFrame = e.item.TotalFrames
	e.cond.Broadcast()
}

// SeekProgress seeks to a normalized position in [0,1].
func (e *Engine) SeekProgress(progress float64) error {
	e.mu.Lock()
	item := e.item
	e.mu.Unlock()
	return e.Seek(item.FrameAt(progress))
}

// Seek moves playback to target. It blocks until the frame, or one within half a second
// after it, is buffered, or the seek timeout expires.
func (e *Engine) Seek(target int) error {
	e.seekMu.Lock()
	defer e.seekMu.Unlock()

	e.mu.Lock()
	if e.session == nil || (e.state != Playing && e.state != Paused) {
		e.mu.Unlock()
		return ErrNotLoaded
	}

	s := e.session
	item := e.item
	target = item.Clamp(target)
	wasPlaying := e.state == Playing

	if target == e.current && e.buffer.Has(target) {
		e.mu.Unlock()
		return nil
	}

	started := e.deps.Now()
	// Clock position when the seek began, restored if it times out.
	position := started.Sub(e.anchor)
	if !wasPlaying {
		position = e.pausedAt.Sub(e.anchor)
	}

	e.seeking = true
	e.reposition(s, target)
	ready := e.audioReady
	e.mu.Unlock()

	if wasPlaying && ready && e.deps.Output != nil {
		e.deps.Output.Pause()
	}

	logger := e.log.WithFields(logrus.Fields{"item": item.Name(), "frame": target})
	window := max(1, int(item.FrameRate/2))
	f, found := e.awaitFrame(s, target, min(target+window, item.TotalFrames))

	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return ErrNotLoaded
	}

	now := e.deps.Now()
	e.seeking = false
	// Pause and Resume may have run while waiting.
	playing := e.state == Playing

	if !found {
		if playing {
			e.anchor = now.Add(-position)
		} else {
			e.anchor = e.pausedAt.Add(-position)
		}
		e.reposition(s, max(e.current+1, 0))
		e.playhead = max(e.current, 0)
		e.status = KindSeekTimeout.Status()
		e.mu.Unlock()

		if playing && ready && e.deps.Output != nil {
			e.deps.Output.Resume()
		}
		logger.Warn("seek timed out")
		return fmt.Errorf("%w: frame %d after %v", ErrSeekTimeout, target, e.opts.SeekTimeout)
	}

	offset := item.Offset(f.Index)
	e.current = f.Index
	e.target = f.Index
	e.playhead = f.Index
	e.anchor = now.Add(-offset)
	if !playing {
		e.pausedAt = now
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	e.present(f)

	if ready && e.deps.Output != nil {
		e.playAudio(offset)
		if !playing {
			e.deps.Output.Pause()
		}
	}

	logger.WithField("took", e.deps.Now().Sub(started).Round(time.Millisecond)).Debug("seek done")
	return nil
}

// reposition discards buffered and queued frames and points the decoder at index.
// Callers hold e.mu.
func (e *Engine) reposition(s *session, index int) {
	index = e.item.Clamp(index)
	e.pendingSeek = mo.Some(index)
	e.buffer.Invalidate()
	s.queue.Clear()
	e.playhead, e.next = index, index
	e.endFrame = e.item.TotalFrames
	e.cond.Broadcast()
}

// awaitFrame polls the buffer for the first frame in [from, to).
func (e *Engine) awaitFrame(s *session, from, to int) (media.ProcessedFrame, bool) {
	to = max(to, from+1)
	deadline := time.Now().Add(e.opts.SeekTimeout)

	for {
		e.mu.Lock()
		consumed := e.pendingSeek.IsAbsent()
		e.mu.Unlock()

		if consumed {
			if f, ok := e.buffer.FirstInRange(from, to); ok {
				return f, true
			}
		}

		if s.ctx.Err() != nil || time.Now().After(deadline) {
			return media.ProcessedFrame{}, false
		}
		time.Sleep(seekPollInterval)
	}
}

// SetVolume takes a percentage in [0,100].
func (e *Engine) SetVolume(volume int) {
	volume = max(0, min(100, volume))

	e.mu.Lock()
	e.volume = volume
	e.mu.Unlock()

	if e.deps.Output != nil {
		e.deps.Output.SetVolume(volume)
	}
}

func (e *Engine) setStatus(status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		State:    e.state,
		Item:     e.item,
		Frame:    e.current,
		Target:   e.target,
		Anchor:   e.anchor,
		Buffered: e.buffer.Len(),
		Seeking:  e.seeking,
		Audio:    e.audioReady,
		Status:   e.status,
	}
}
