package player

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoldenFealla/framesync/internal/effects"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/GoldenFealla/framesync/internal/playlist"
	"github.com/sirupsen/logrus"
)

// EffectsSink receives audio effects settings for the next prepared asset.
type EffectsSink interface {
	SetEffects(settings effects.Settings)
}

// Controller connects the playlist to the engine: it loads the current item, advances on
// end of stream and skips items that fail to load.
type Controller struct {
	ctx      context.Context
	engine   *Engine
	playlist *playlist.Scheduler
	effects  EffectsSink

	advanceDelay time.Duration

	mu       sync.Mutex
	failures int
	retry    *time.Timer
	watcher  *playlist.Watcher
	onChange func()

	log *logrus.Entry
}

func NewController(ctx context.Context, engine *Engine, scheduler *playlist.Scheduler, sink EffectsSink, advanceDelay time.Duration) *Controller {
	c := &Controller{
		ctx:          ctx,
		engine:       engine,
		playlist:     scheduler,
		effects:      sink,
		advanceDelay: advanceDelay,
		log:          log.For("controller"),
	}
	engine.OnEnd(c.handleEnd)
	return c
}

// OnChange registers a callback run after every item change.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) Engine() *Engine {
	return c.engine
}

func (c *Controller) Playlist() *playlist.Scheduler {
	return c.playlist
}

// OpenFolder replaces the playlist with the videos of dir and starts the first one. With
// watch set, files added to or removed from dir update the playlist.
func (c *Controller) OpenFolder(dir string, watch bool) error {
	c.engine.Stop()
	c.stopWatching()

	if err := c.playlist.LoadFolder(dir); err != nil {
		c.engine.setStatus("No videos in " + filepath.Base(dir))
		c.notify()
		return err
	}

	if watch {
		w, err := playlist.Watch(c.playlist, dir, c.notify)
		if err != nil {
			c.log.Warnf("folder watch disabled: %v", err)
		} else {
			c.mu.Lock()
			c.watcher = w
			c.mu.Unlock()
		}
	}
	return c.Start()
}

// OpenFiles replaces the playlist with the given files and starts the first one.
func (c *Controller) OpenFiles(paths ...string) error {
	c.engine.Stop()
	c.stopWatching()

	if err := c.playlist.LoadFiles(paths...); err != nil {
		c.notify()
		return err
	}
	return c.Start()
}

// Start selects the first item when nothing is selected and plays it.
func (c *Controller) Start() error {
	if _, ok := c.playlist.Current(); !ok {
		if _, ok := c.playlist.Advance(); !ok {
			return playlist.ErrEmpty
		}
	}
	return c.PlayCurrent()
}

// PlayCurrent loads the playlist's current item.
func (c *Controller) PlayCurrent() error {
	c.cancelRetry()

	path, ok := c.playlist.Current()
	if !ok {
		return playlist.ErrEmpty
	}

	logger := c.log.WithField("item", path)
	logger.Infof("playing %s", c.playlist.Position())

	err := c.engine.Load(c.ctx, path)
	c.notify()
	if err == nil {
		c.mu.Lock()
		c.failures = 0
		c.mu.Unlock()
		return nil
	}

	kind := Classify(err)
	switch {
	case kind == KindNone:
		return err
	case kind.PerItem():
		c.skipFailed(logger, kind)
	default:
		logger.Errorf("fatal: %v", err)
		c.engine.Stop()
		c.engine.setStatus(KindFatal.Status())
	}
	return err
}

// skipFailed schedules the next item after the advance delay, giving up once every item
// failed in a row.
func (c *Controller) skipFailed(logger *logrus.Entry, kind ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	if c.failures >= c.playlist.Len() || !c.playlist.CanAdvance() {
		logger.Warnf("%s failure, nothing left to try", kind)
		c.engine.setStatus(kind.Status())
		return
	}

	logger.Warnf("%s failure, skipping in %v", kind, c.advanceDelay)
	c.engine.setStatus(fmt.Sprintf("%s, skipping", kind.Status()))
	c.retry = time.AfterFunc(c.advanceDelay, func() {
		if c.ctx.Err() != nil {
			return
		}
		if _, ok := c.playlist.Advance(); ok {
			c.PlayCurrent()
		}
	})
}

func (c *Controller) handleEnd() {
	if c.ctx.Err() != nil {
		return
	}
	if !c.playlist.ContinuesAfterEnd() {
		c.log.Info("playlist finished")
		c.engine.setStatus("Finished")
		c.notify()
		return
	}
	c.Next()
}

// Next advances the playlist and plays the new item.
func (c *Controller) Next() error {
	if _, ok := c.playlist.Advance(); !ok {
		return playlist.ErrEmpty
	}
	c.resetFailures()
	return c.PlayCurrent()
}

// Prev retreats the playlist and plays the new item.
func (c *Controller) Prev() error {
	if _, ok := c.playlist.Retreat(); !ok {
		return playlist.ErrEmpty
	}
	c.resetFailures()
	return c.PlayCurrent()
}

// JumpTo plays the item at index.
func (c *Controller) JumpTo(index int) error {
	if _, err := c.playlist.JumpTo(index); err != nil {
		return err
	}
	c.resetFailures()
	return c.PlayCurrent()
}

// SetMode changes the playlist order. Playback of the current item continues.
func (c *Controller) SetMode(mode playlist.Mode) error {
	if err := c.playlist.SetMode(mode); err != nil {
		return err
	}
	c.notify()
	return nil
}

// ApplyEffects stores new audio effects and reloads the current item so they take effect.
func (c *Controller) ApplyEffects(settings effects.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if c.effects != nil {
		c.effects.SetEffects(settings)
	}

	c.log.Infof("effects: %s", settings)
	if c.engine.State() == Stopped {
		return nil
	}
	return c.PlayCurrent()
}

// Close stops playback, folder watching and any pending skip.
func (c *Controller) Close() {
	c.cancelRetry()
	c.stopWatching()
	c.engine.Stop()
}

func (c *Controller) stopWatching() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			c.log.Warn(err)
		}
	}
}

func (c *Controller) resetFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
}

func (c *Controller) cancelRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
