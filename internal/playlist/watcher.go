package playlist

import (
	"fmt"
	"time"

	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups the bursts of events a single copy or move produces.
const watchDebounce = 250 * time.Millisecond

// Watcher refreshes a scheduler when video files appear in or vanish from its folder.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching dir. onChange runs after each successful refresh.
func Watch(s *Scheduler, dir string, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("playlist: creating watcher failed: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("playlist: watching %s failed: %w", dir, err)
	}

	pw := &Watcher{w: w, done: make(chan struct{})}
	go pw.run(s, onChange)
	return pw, nil
}

func relevant(ev fsnotify.Event) bool {
	if !isVideo(ev.Name) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (pw *Watcher) run(s *Scheduler, onChange func()) {
	defer close(pw.done)

	logger := log.For("watcher")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case ev, ok := <-pw.w.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-pw.w.Errors:
			if !ok {
				return
			}
			logger.Warnf("watch error: %v", err)
		case <-fire:
			fire = nil
			if err := s.Refresh(); err != nil {
				logger.Warnf("refresh failed: %v", err)
				continue
			}
			if onChange != nil {
				onChange()
			}
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (pw *Watcher) Close() error {
	err := pw.w.Close()
	<-pw.done
	return err
}
